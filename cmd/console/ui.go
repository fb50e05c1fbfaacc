package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/emberworks/echofall/internal/engine"
	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
)

// creation flow stages
const (
	stageName = iota
	stageClass
	stageOrigin
	stageDone
)

var classChoices = []string{"vanguard", "courier", "psychic", "oathmarked"}
var originChoices = []string{
	"wasteland-born",
	"vault-bred",
	"disgraced-noble",
	"exiled-researcher",
	"forgotten-clone",
	"sanctioned-hunter",
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *session.Session
	lastResult   *engine.ActionResult
	logLines     []string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Character creation state
	showCreationModal bool
	creationStage     int
	playerName        string
	playerClass       string
	selectedChoice    int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type actionResultMsg struct {
	result *engine.ActionResult
	err    error
}

type sessionMsg struct {
	session *session.Session
	err     error
}

type sessionCreatedMsg struct {
	session *session.Session
	err     error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")). // ice blue
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("45")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:            cfg,
		client:            client,
		textarea:          ta,
		chatViewport:      chatVp,
		metaViewport:      metaVp,
		ready:             false,
		showCreationModal: true,
		creationStage:     stageName,
	}
}

func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ECHOFALL") + "\n\n")
	content.WriteString("The Frozen Cathedral awaits. Type commands below; /help lists them.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, line := range m.logLines {
		content.WriteString(wordwrap.String(line, chatWidth) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	if m.session == nil {
		return
	}
	s := m.session
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("ID:\n")
	content.WriteString(s.ID.String()[:8] + "...\n\n")

	currentMode := s.Mode
	if m.lastResult != nil {
		currentMode = m.lastResult.Mode
	}
	content.WriteString("Mode:\n")
	content.WriteString(string(currentMode) + "\n\n")

	if s.Player != nil {
		content.WriteString(fmt.Sprintf("%s (lv %d)\n", s.Player.Name, s.Player.Level))
		content.WriteString(fmt.Sprintf("HP %d/%d\n", s.Player.Health, s.Player.MaxHealth))
		content.WriteString(fmt.Sprintf("MP %d/%d\n\n", s.Player.Mana, s.Player.MaxMana))
	}

	if loc, err := s.World.CurrentLocation(); err == nil {
		content.WriteString("Location:\n")
		content.WriteString(loc.Name + "\n\n")
	}

	if m.lastResult != nil && len(m.lastResult.SuggestedActions) > 0 {
		content.WriteString("Try:\n")
		for _, a := range m.lastResult.SuggestedActions {
			content.WriteString("• " + a + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showCreationModal {
		return m.updateCreationModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		m.writeMetadata()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.logLines = append(m.logLines, userStyle.Render("You: ")+input)
			m.writeChatContent()

			return m, tea.Batch(m.submitInput(input), progressTick())
		}

	case actionResultMsg:
		m.loading = false
		if msg.err != nil {
			m.logLines = append(m.logLines, errorStyle.Render("✗ "+msg.err.Error()))
		} else {
			m.lastResult = msg.result
			text := msg.result.Narrative
			if text == "" {
				text = msg.result.Description
			}
			m.logLines = append(m.logLines, narratorStyle.Render(AgentName+": ")+text)
			if msg.result.Combat != nil && msg.result.Combat.Active {
				m.logLines = append(m.logLines, m.renderCombatStatus(msg.result.Combat))
			}
		}
		m.writeChatContent()
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.session != nil {
			m.session = msg.session
			m.writeMetadata()
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) renderCombatStatus(c *session.CombatState) string {
	var sb strings.Builder
	sb.WriteString(separatorStyle.Render(fmt.Sprintf("— round %d —", c.Round)))
	for _, enemy := range c.Enemies {
		if enemy.Health > 0 {
			sb.WriteString(fmt.Sprintf("\n  %s (%s): %d/%d hp", enemy.Name, enemy.ID, enemy.Health, enemy.MaxHealth))
		}
	}
	return sb.String()
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimSpace(input))
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help":
		helpText := `
Exploration: move <place>, examine [target], interact <object>, take <item>, talk <npc>, use <item>
Combat: attack [enemy], cast <ability> [enemy], use <item> [enemy], defend, flee
Dialogue: just type to respond, ask <question>, leave
Other: attempt, abort, drop <item>, combine <a> <b>, stats, levelup, assign <skill>
Modes: /mode <exploration|combat|dialogue|skill_check|inventory|character_sheet|menu>
Menu: save, load, settings [narration on|off], exit
`
		m.logLines = append(m.logLines, titleStyle.Render("Help:")+helpText)
		m.writeChatContent()

	case "/mode":
		if len(fields) < 2 {
			m.logLines = append(m.logLines, errorStyle.Render("✗ usage: /mode <mode>"))
			m.writeChatContent()
			break
		}
		m.textarea.Reset()
		m.loading = true
		return m, tea.Batch(m.requestTransition(fields[1]), progressTick())
	}

	m.textarea.Reset()
	return m, nil
}

// submitInput parses free text into an action request for the current mode.
func (m ConsoleUI) submitInput(input string) tea.Cmd {
	req := m.parseInput(input)
	return func() tea.Msg {
		result, err := sendAction(m.client, m.config.APIBaseURL, m.session.ID, req)
		return actionResultMsg{result, err}
	}
}

func (m ConsoleUI) parseInput(input string) ActionRequest {
	currentMode := m.session.Mode
	if m.lastResult != nil {
		currentMode = m.lastResult.Mode
	}

	fields := strings.Fields(input)
	verb := strings.ToLower(fields[0])
	rest := fields[1:]
	arg := func(i int) string {
		if i < len(rest) {
			return rest[i]
		}
		return ""
	}

	// Dialogue mode treats unrecognized input as speech.
	if currentMode == mode.Dialogue {
		switch verb {
		case "ask":
			return ActionRequest{Action: "question", Payload: engine.Payload{Text: strings.Join(rest, " ")}}
		case "leave", "bye":
			return ActionRequest{Action: "leave"}
		case "use":
			return ActionRequest{Action: "use_item", Payload: engine.Payload{ItemID: arg(0)}}
		default:
			return ActionRequest{Action: "respond", Payload: engine.Payload{Text: input}}
		}
	}

	switch verb {
	case "move", "go":
		return ActionRequest{Action: "move", Payload: engine.Payload{LocationID: arg(0)}}
	case "examine", "look", "inspect":
		if currentMode == mode.Inventory {
			return ActionRequest{Action: "examine_item", Payload: engine.Payload{ItemID: arg(0)}}
		}
		return ActionRequest{Action: "examine", Payload: engine.Payload{ObjectID: arg(0)}}
	case "interact", "activate", "destroy":
		return ActionRequest{Action: "interact", Payload: engine.Payload{ObjectID: arg(0)}}
	case "take", "get", "pickup":
		return ActionRequest{Action: "interact", Payload: engine.Payload{ItemID: arg(0)}}
	case "talk":
		return ActionRequest{Action: "talk", Payload: engine.Payload{NPCID: arg(0)}}
	case "use":
		return ActionRequest{Action: "use_item", Payload: engine.Payload{ItemID: arg(0), TargetID: arg(1)}}
	case "attack":
		return ActionRequest{Action: "attack", Payload: engine.Payload{TargetID: arg(0)}}
	case "cast":
		return ActionRequest{Action: "use_ability", Payload: engine.Payload{AbilityID: arg(0), TargetID: arg(1)}}
	case "defend":
		return ActionRequest{Action: "defend"}
	case "flee", "run":
		return ActionRequest{Action: "flee"}
	case "attempt", "try":
		return ActionRequest{Action: "attempt"}
	case "abort":
		return ActionRequest{Action: "abort"}
	case "drop":
		return ActionRequest{Action: "drop_item", Payload: engine.Payload{ItemID: arg(0)}}
	case "combine":
		return ActionRequest{Action: "combine_items", Payload: engine.Payload{ItemID: arg(0), SecondItem: arg(1)}}
	case "stats":
		return ActionRequest{Action: "view_stats"}
	case "levelup":
		return ActionRequest{Action: "level_up"}
	case "assign":
		return ActionRequest{Action: "assign_points", Payload: engine.Payload{SkillID: arg(0)}}
	case "save":
		return ActionRequest{Action: "save"}
	case "load":
		return ActionRequest{Action: "load"}
	case "settings":
		return ActionRequest{Action: "settings", Payload: engine.Payload{Text: strings.Join(rest, " ")}}
	case "exit":
		return ActionRequest{Action: "exit"}
	default:
		// Unknown verbs go to the server verbatim; the mode table will
		// reject them with a readable error.
		return ActionRequest{Action: verb, Payload: engine.Payload{Text: strings.Join(rest, " ")}}
	}
}

func (m ConsoleUI) requestTransition(target string) tea.Cmd {
	return func() tea.Msg {
		result, err := transitionMode(m.client, m.config.APIBaseURL, m.session.ID, target)
		return actionResultMsg{result, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		s, err := getSession(m.client, m.config.APIBaseURL, m.session.ID)
		return sessionMsg{s, err}
	}
}

func (m ConsoleUI) createSessionCmd(name, class, origin string) tea.Cmd {
	return func() tea.Msg {
		s, err := createSession(m.client, m.config.APIBaseURL, name, class, origin)
		return sessionCreatedMsg{s, err}
	}
}

func (m ConsoleUI) updateCreationModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showCreationModal = false
			m.creationStage = stageDone
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			if loc, err := m.session.World.CurrentLocation(); err == nil {
				m.logLines = append(m.logLines, narratorStyle.Render(AgentName+": ")+loc.Description)
			}
			m.writeChatContent()
			m.writeMetadata()
			m.textarea.Reset()
			m.textarea.Placeholder = PlaceHolderText
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyUp:
			if m.selectedChoice > 0 {
				m.selectedChoice--
			}
			return m, nil

		case tea.KeyDown:
			if m.selectedChoice < len(m.currentChoices())-1 {
				m.selectedChoice++
			}
			return m, nil

		case tea.KeyEnter:
			switch m.creationStage {
			case stageName:
				name := strings.TrimSpace(m.textarea.Value())
				if name == "" {
					return m, nil
				}
				m.playerName = name
				m.creationStage = stageClass
				m.selectedChoice = 0
				m.textarea.Reset()
				return m, nil
			case stageClass:
				m.creationStage = stageOrigin
				m.playerClass = classChoices[m.selectedChoice]
				m.selectedChoice = 0
				return m, nil
			case stageOrigin:
				origin := originChoices[m.selectedChoice]
				m.loading = true
				return m, m.createSessionCmd(m.playerName, m.playerClass, origin)
			}
			return m, nil
		}
	}

	if m.creationStage == stageName {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ConsoleUI) currentChoices() []string {
	if m.creationStage == stageClass {
		return classChoices
	}
	return originChoices
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCreationModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Entering the Cathedral..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your adventure..."))

	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to create session: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")

	case m.creationStage == stageName:
		content.WriteString(modalTitleStyle.Render("Who are you?"))
		content.WriteString("\n\n")
		content.WriteString(m.textarea.View())
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Type a name and press Enter"))

	default:
		title := "Choose a Class"
		if m.creationStage == stageOrigin {
			title = "Choose an Origin"
		}
		content.WriteString(modalTitleStyle.Render(title))
		content.WriteString("\n\n")
		for i, choice := range m.currentChoices() {
			if i == m.selectedChoice {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", choice)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", choice)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showCreationModal {
		return m.renderCreationModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
