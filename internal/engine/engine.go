// Package engine implements the session orchestrator: it validates every
// player-submitted action against the current mode, dispatches it to the
// registered mode handler, applies any resulting mode transition, and keeps
// the scene history and narrative context windows consistent with the world
// state. Each session is logically single-threaded; the engine serializes
// mutations per session ID while processing distinct sessions in parallel.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberworks/echofall/internal/content"
	"github.com/emberworks/echofall/internal/services"
	"github.com/emberworks/echofall/internal/storage"
	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

// dice abstracts the engine's randomness so tests can script rolls.
type dice interface {
	// IntN returns a uniform int in [0, n).
	IntN(n int) int
	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

type systemDice struct{}

func (systemDice) IntN(n int) int   { return rand.IntN(n) }
func (systemDice) Float64() float64 { return rand.Float64() }

// Payload carries the typed parameters of a player action. Which fields are
// meaningful depends on the action kind; handlers validate what they need.
type Payload struct {
	TargetID   string `json:"target_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	SecondItem string `json:"second_item_id,omitempty"`
	AbilityID  string `json:"ability_id,omitempty"`
	LocationID string `json:"location_id,omitempty"`
	ObjectID   string `json:"object_id,omitempty"`
	NPCID      string `json:"npc_id,omitempty"`
	SkillID    string `json:"skill_id,omitempty"`
	Count      int    `json:"count,omitempty"`
	Text       string `json:"text,omitempty"`
}

// ActionResult is the structured outcome of a processed action.
type ActionResult struct {
	SessionID        uuid.UUID            `json:"session_id"`
	Description      string               `json:"description"`
	Narrative        string               `json:"narrative,omitempty"`
	Mode             mode.Mode            `json:"mode"`
	AllowedActions   []mode.Action        `json:"allowed_actions"`
	Transitions      []mode.Mode          `json:"allowed_transitions"`
	SuggestedActions []string             `json:"suggested_actions,omitempty"`
	Combat           *session.CombatState `json:"combat_state,omitempty"`
}

// handlerResult is what a mode handler reports back to the orchestrator.
// Handlers mutate the session directly; the orchestrator owns transitions,
// scene records, narration and persistence.
type handlerResult struct {
	description   string
	transitionTo  mode.Mode // empty means no transition requested
	suppressScene bool
	suggested     []string
	skipNarrative bool
}

// handlerFunc resolves one (mode, action) pair against a locked session.
type handlerFunc func(ctx context.Context, s *session.Session, p Payload) (handlerResult, error)

// Options tunes engine behavior.
type Options struct {
	// NarrativeTimeout bounds the narrative-generation call. A timeout or
	// failure degrades to the handler's own description; it never blocks
	// or corrupts the action itself.
	NarrativeTimeout time.Duration
}

// Engine binds sessions to the mode state machine, the combat and skill
// check resolvers, the world graph mutations, and the external collaborators
// (persistence and narrative generation).
type Engine struct {
	store     storage.SessionStore
	narrative services.NarrativeService
	content   *content.Registry
	logger    *slog.Logger
	dice      dice
	opts      Options

	handlers map[mode.Mode]map[mode.Action]handlerFunc

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// New constructs an engine. The handler registry is built here; RegisteredFor
// exposes it so tests can verify the action-table/handler symmetry.
func New(store storage.SessionStore, narrative services.NarrativeService, registry *content.Registry, logger *slog.Logger, opts Options) *Engine {
	if opts.NarrativeTimeout <= 0 {
		opts.NarrativeTimeout = 15 * time.Second
	}
	e := &Engine{
		store:     store,
		narrative: narrative,
		content:   registry,
		logger:    logger,
		dice:      systemDice{},
		opts:      opts,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
	e.handlers = map[mode.Mode]map[mode.Action]handlerFunc{
		mode.Exploration: {
			mode.ActionMove:     e.handleMove,
			mode.ActionExamine:  e.handleExamine,
			mode.ActionInteract: e.handleInteract,
			mode.ActionTalk:     e.handleTalk,
			mode.ActionUseItem:  e.handleUseConsumable,
		},
		mode.Combat: {
			mode.ActionAttack:     e.handleAttack,
			mode.ActionUseAbility: e.handleUseAbility,
			mode.ActionUseItem:    e.handleCombatItem,
			mode.ActionDefend:     e.handleDefend,
			mode.ActionFlee:       e.handleFlee,
		},
		mode.Dialogue: {
			mode.ActionRespond:  e.handleDialogueLine,
			mode.ActionQuestion: e.handleDialogueLine,
			mode.ActionLeave:    e.handleLeaveDialogue,
			mode.ActionUseItem:  e.handleUseConsumable,
		},
		mode.SkillCheck: {
			mode.ActionAttempt: e.handleSkillAttempt,
			mode.ActionUseItem: e.handleUseConsumable,
			mode.ActionAbort:   e.handleSkillAbort,
		},
		mode.Inventory: {
			mode.ActionExamineItem:  e.handleExamineItem,
			mode.ActionUseItem:      e.handleUseConsumable,
			mode.ActionDropItem:     e.handleDropItem,
			mode.ActionCombineItems: e.handleCombineItems,
		},
		mode.CharacterSheet: {
			mode.ActionViewStats:    e.handleViewStats,
			mode.ActionLevelUp:      e.handleLevelUp,
			mode.ActionAssignPoints: e.handleAssignPoints,
		},
		mode.Menu: {
			mode.ActionSave:     e.handleMenuSave,
			mode.ActionLoad:     e.handleMenuLoad,
			mode.ActionSettings: e.handleMenuSettings,
			mode.ActionExit:     e.handleMenuExit,
		},
	}
	return e
}

// RegisteredFor returns the actions with a registered handler for a mode.
func (e *Engine) RegisteredFor(m mode.Mode) []mode.Action {
	out := make([]mode.Action, 0, len(e.handlers[m]))
	for a := range e.handlers[m] {
		out = append(out, a)
	}
	return out
}

// sessionLock returns the mutex serializing mutations for one session ID.
func (e *Engine) sessionLock(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// CreateSession builds a new session from the content tables: a fresh player
// of the given class and origin placed at the starting location, in
// Exploration mode.
func (e *Engine) CreateSession(ctx context.Context, playerName, class, origin string) (*session.Session, error) {
	player, err := e.content.NewPlayer(playerName, class, origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	s := session.New(player, content.SeedWorld())

	if err := e.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}
	e.logger.Info("Session created", "id", s.ID, "player", playerName, "class", class, "origin", origin)
	return s, nil
}

// GetSession loads a session by ID.
func (e *Engine) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	s, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return s, nil
}

// EndSession deletes a session.
func (e *Engine) EndSession(ctx context.Context, id uuid.UUID) error {
	if err := e.store.Delete(ctx, id); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.locks, id)
	e.mu.Unlock()
	e.logger.Info("Session ended", "id", id)
	return nil
}

// ProcessAction is the single entry point for player actions. It resolves
// the session, checks the action against the current mode's table, dispatches
// to the registered handler, applies any resulting transition, appends scene
// history, trims the context windows, narrates, and saves. On any taxonomy
// error the persisted session is untouched.
func (e *Engine) ProcessAction(ctx context.Context, sessionID uuid.UUID, action mode.Action, p Payload) (*ActionResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !mode.IsActionAllowed(s.Mode, action) {
		return nil, fmt.Errorf("%w: %q is not legal in %s mode", ErrInvalidAction, action, s.Mode)
	}

	handler, ok := e.handlers[s.Mode][action]
	if !ok {
		// Allowed by the table but never registered: a configuration
		// gap, failed closed.
		e.logger.Error("Action allowed but unregistered", "mode", s.Mode, "action", action)
		return nil, fmt.Errorf("%w: %s/%s", ErrNoHandler, s.Mode, action)
	}

	result, err := handler(ctx, s, p)
	if err != nil {
		return nil, err
	}

	if result.transitionTo != "" && result.transitionTo != s.Mode {
		if err := e.applyTransition(s, result.transitionTo); err != nil {
			return nil, err
		}
	}

	if !result.suppressScene {
		s.AddScene(session.SceneRecord{
			Type:   "action",
			Mode:   s.Mode,
			Action: string(action),
			Text:   result.description,
		})
	}
	s.Context.AddAction(string(action), result.description)

	narrative := result.description
	var suggested []string
	var directive *services.Directive
	if !result.skipNarrative {
		narrative, suggested, directive = e.narrate(ctx, s, string(action), result.description)
	}
	s.Context.AddNarrative(narrative)
	if s.Dialogue.Active && s.Mode == mode.Dialogue && !result.skipNarrative {
		s.Dialogue.AddExchange(s.Dialogue.NPCID, narrative)
	}
	e.applyDirective(s, directive)

	if err := e.store.Save(ctx, s); err != nil {
		// Save failure is non-fatal: the action already resolved.
		e.logger.Error("Failed to save session after action", "id", s.ID, "error", err)
	}

	if len(suggested) == 0 {
		suggested = result.suggested
	}
	out := &ActionResult{
		SessionID:        s.ID,
		Description:      result.description,
		Narrative:        narrative,
		Mode:             s.Mode,
		AllowedActions:   s.AllowedActions(),
		Transitions:      s.AllowedTransitions(),
		SuggestedActions: suggested,
	}
	if s.Mode == mode.Combat || s.Combat.Active {
		combatCopy := s.Combat
		out.Combat = &combatCopy
	}
	return out, nil
}

// TransitionMode is the lower-level transition primitive, used directly by
// callers and internally after action handlers. It unconditionally appends a
// transition scene record describing the mode change.
func (e *Engine) TransitionMode(ctx context.Context, sessionID uuid.UUID, target mode.Mode, note string) (*ActionResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := e.applyTransition(s, target); err != nil {
		return nil, err
	}

	if note != "" {
		s.Context.AddNarrative(note)
	}

	if err := e.store.Save(ctx, s); err != nil {
		e.logger.Error("Failed to save session after transition", "id", s.ID, "error", err)
	}

	return &ActionResult{
		SessionID:      s.ID,
		Description:    fmt.Sprintf("Mode changed to %s.", target),
		Mode:           s.Mode,
		AllowedActions: s.AllowedActions(),
		Transitions:    s.AllowedTransitions(),
	}, nil
}

// applyTransition validates and applies a mode change on a locked session,
// recording it in scene history. The session is untouched when the
// transition is illegal.
func (e *Engine) applyTransition(s *session.Session, target mode.Mode) error {
	if _, err := mode.Parse(string(target)); err != nil {
		return fmt.Errorf("%w: %v", ErrStateTransition, err)
	}
	if !s.CanTransition(target) {
		return fmt.Errorf("%w: %s -> %s", ErrStateTransition, s.Mode, target)
	}
	from := s.Mode
	if target == mode.Menu {
		s.PreviousMode = from
	}
	s.Mode = target
	s.AddScene(session.SceneRecord{
		Type: "transition",
		Mode: target,
		Text: fmt.Sprintf("Mode changed from %s to %s.", from, target),
	})
	e.logger.Debug("Mode transition", "session", s.ID, "from", from, "to", target)
	return nil
}

// narrate asks the external generator to dress the resolved action in prose.
// Any failure, timeout, or unparsable output degrades to the fallback
// description; the action's state mutations stand regardless. The parsed
// directive is returned so the caller can act on an embedded game action.
func (e *Engine) narrate(ctx context.Context, s *session.Session, action, fallback string) (string, []string, *services.Directive) {
	if !s.Settings.Narration {
		return fallback, nil, nil
	}
	nctx, cancel := context.WithTimeout(ctx, e.opts.NarrativeTimeout)
	defer cancel()

	prompt := e.buildPrompt(s, action, fallback)
	recent := e.recentContext(s)

	raw, err := e.narrative.Generate(nctx, prompt, recent)
	if err != nil {
		e.logger.Warn("Narrative generation failed, using fallback", "session", s.ID, "error", err)
		return fallback, nil, nil
	}

	directive, err := services.ParseStructured(raw)
	if err != nil || directive.Description == "" {
		e.logger.Warn("Narrative output unparsable, using fallback", "session", s.ID, "error", err)
		return fallback, nil, nil
	}
	return directive.Description, directive.SuggestedActions, directive
}

// applyDirective acts on a game directive embedded in generated narration:
// the generator can put the session into a skill check or start combat.
// Directives are honored only while exploring; a malformed one is logged and
// dropped, never surfaced as an action failure.
func (e *Engine) applyDirective(s *session.Session, d *services.Directive) {
	if d == nil || d.Action == "" || s.Mode != mode.Exploration {
		return
	}
	switch d.Action {
	case services.DirectiveSkillCheck:
		req := SkillCheckRequest{
			Skill:      d.Skill,
			Difficulty: d.Difficulty,
			Success:    session.Outcome{Description: d.SuccessOutcome.Description, SuggestedActions: d.SuccessOutcome.SuggestedActions},
			Failure:    session.Outcome{Description: d.FailureOutcome.Description, SuggestedActions: d.FailureOutcome.SuggestedActions},
		}
		if err := e.beginSkillCheck(s, req); err != nil {
			e.logger.Warn("Dropping skill check directive", "session", s.ID, "skill", d.Skill, "error", err)
			return
		}
		s.Context.AddKeyEvent(fmt.Sprintf("A %s check presents itself", d.Skill))
	case services.DirectiveInitiateCombat:
		roster := make([]EnemyGroup, 0, len(d.Enemies))
		for _, enemy := range d.Enemies {
			roster = append(roster, EnemyGroup{TemplateID: enemy.ID, Count: enemy.Count, Modifiers: enemy.Modifiers})
		}
		if _, err := e.beginCombat(s, roster, ""); err != nil {
			e.logger.Warn("Dropping combat directive", "session", s.ID, "error", err)
		}
	default:
		e.logger.Warn("Unknown narrative directive", "session", s.ID, "action", d.Action)
	}
}

// buildPrompt summarizes the player, location, and resolved action for the
// narrative generator.
func (e *Engine) buildPrompt(s *session.Session, action, outcome string) string {
	loc, err := s.World.CurrentLocation()
	locName := "an unknown place"
	if err == nil {
		locName = loc.Name
	}
	return fmt.Sprintf(
		"Player: %s, a level %d %s (%s). Location: %s. Mode: %s.\nAction: %s\nResolved outcome: %s",
		s.Player.Name, s.Player.Level, s.Player.Class, s.Player.Origin,
		locName, s.Mode, action, outcome,
	)
}

// recentContext flattens the bounded narrative window for the generator.
func (e *Engine) recentContext(s *session.Session) []string {
	var recent []string
	for _, n := range s.Context.Narratives {
		recent = append(recent, n.Text)
	}
	for _, ev := range s.Context.KeyEvents {
		recent = append(recent, "Key event: "+ev)
	}
	return recent
}
