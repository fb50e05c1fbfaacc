package world

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph lookups.
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrNPCNotFound      = errors.New("npc not found")
	ErrQuestNotFound    = errors.New("quest not found")
)

// InteractiveObject is something in a location the player can act on.
type InteractiveObject struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	InteractionType string `json:"interaction_type"` // examine, activate, destroy
	RequiresItem    string `json:"requires_item,omitempty"`
}

// LocationItem is an item stack lying in a location, available for pickup.
type LocationItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemType    string `json:"item_type"`
	Count       int    `json:"count,omitempty"`
}

// Location is a node in the world graph.
type Location struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Visited     bool                `json:"visited"`
	VisitCount  int                 `json:"visit_count"`
	Connections []string            `json:"connections,omitempty"`
	NPCs        []string            `json:"npcs,omitempty"`
	Items       []LocationItem      `json:"items,omitempty"`
	Objects     []InteractiveObject `json:"interactive_objects,omitempty"`
}

// NPC is a non-player character placed in the world graph. Its Location field
// and the containing Location's NPC list are kept in sync by
// UpdateNPCLocation; they must always agree.
type NPC struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location"`
	Hostile     bool   `json:"hostile"`
	Health      int    `json:"health,omitempty"`
	MaxHealth   int    `json:"max_health,omitempty"`
}

// Quest objective and quest statuses.
const (
	QuestInactive  = "inactive"
	QuestActive    = "active"
	QuestCompleted = "completed"
	QuestFailed    = "failed"
)

// Quest tracks one quest and its objectives. ObjectiveOrder fixes the
// activation order; Objectives maps objective ID to status.
type Quest struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Status         string            `json:"status"`
	ObjectiveOrder []string          `json:"objective_order"`
	Objectives     map[string]string `json:"objectives"`
}

// Graph is the mutable world model for one session: locations, the symmetric
// connection set between them, NPC placement, and quest state.
type Graph struct {
	Locations map[string]*Location `json:"locations"`
	NPCs      map[string]*NPC      `json:"npcs"`
	Quests    map[string]*Quest    `json:"quests"`
	Current   string               `json:"current_location"`
}

// NewGraph returns an empty world graph.
func NewGraph() *Graph {
	return &Graph{
		Locations: make(map[string]*Location),
		NPCs:      make(map[string]*NPC),
		Quests:    make(map[string]*Quest),
	}
}

// Location returns the location with the given ID.
func (g *Graph) Location(id string) (*Location, error) {
	loc, ok := g.Locations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, id)
	}
	return loc, nil
}

// CurrentLocation returns the location the player currently occupies.
func (g *Graph) CurrentLocation() (*Location, error) {
	return g.Location(g.Current)
}

// MoveTo updates the current location, marking the destination visited and
// incrementing its visit counter. Re-entry is allowed and simply counts
// another visit.
func (g *Graph) MoveTo(id string) (*Location, error) {
	loc, err := g.Location(id)
	if err != nil {
		return nil, err
	}
	g.Current = id
	loc.Visited = true
	loc.VisitCount++
	return loc, nil
}

// Connected reports whether two locations share an edge.
func (g *Graph) Connected(a, b string) bool {
	loc, ok := g.Locations[a]
	if !ok {
		return false
	}
	for _, id := range loc.Connections {
		if id == b {
			return true
		}
	}
	return false
}

// AddConnection inserts a bidirectional edge between two locations as a
// single operation. It is idempotent: re-adding an existing edge changes
// nothing. The symmetry invariant (every edge exists in both directions)
// holds after every call.
func (g *Graph) AddConnection(a, b string) error {
	locA, err := g.Location(a)
	if err != nil {
		return err
	}
	locB, err := g.Location(b)
	if err != nil {
		return err
	}
	if !contains(locA.Connections, b) {
		locA.Connections = append(locA.Connections, b)
	}
	if !contains(locB.Connections, a) {
		locB.Connections = append(locB.Connections, a)
	}
	return nil
}

// ValidateSymmetry verifies that every connection exists in both directions
// and that NPC placement agrees between NPC records and location lists. A
// non-nil return is an internal invariant violation, a defect to surface
// rather than swallow.
func (g *Graph) ValidateSymmetry() error {
	for id, loc := range g.Locations {
		for _, neighbor := range loc.Connections {
			other, ok := g.Locations[neighbor]
			if !ok {
				return fmt.Errorf("location %s connects to unknown location %s", id, neighbor)
			}
			if !contains(other.Connections, id) {
				return fmt.Errorf("asymmetric connection: %s -> %s has no reverse edge", id, neighbor)
			}
		}
		for _, npcID := range loc.NPCs {
			npc, ok := g.NPCs[npcID]
			if !ok {
				return fmt.Errorf("location %s lists unknown npc %s", id, npcID)
			}
			if npc.Location != id {
				return fmt.Errorf("npc %s listed in %s but records location %s", npcID, id, npc.Location)
			}
		}
	}
	return nil
}

// NPC returns the NPC with the given ID.
func (g *Graph) NPC(id string) (*NPC, error) {
	npc, ok := g.NPCs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNPCNotFound, id)
	}
	return npc, nil
}

// UpdateNPCLocation moves an NPC to a new location, removing it from its
// previous location's NPC list and keeping the NPC's own location field in
// sync.
func (g *Graph) UpdateNPCLocation(npcID, newLocationID string) error {
	npc, err := g.NPC(npcID)
	if err != nil {
		return err
	}
	dest, err := g.Location(newLocationID)
	if err != nil {
		return err
	}
	if old, ok := g.Locations[npc.Location]; ok {
		old.NPCs = remove(old.NPCs, npcID)
	}
	if !contains(dest.NPCs, npcID) {
		dest.NPCs = append(dest.NPCs, npcID)
	}
	npc.Location = newLocationID
	return nil
}

// RemoveItem takes an item stack out of a location and returns it.
func (g *Graph) RemoveItem(locationID, itemID string) (*LocationItem, error) {
	loc, err := g.Location(locationID)
	if err != nil {
		return nil, err
	}
	for i := range loc.Items {
		if loc.Items[i].ID == itemID {
			item := loc.Items[i]
			loc.Items = append(loc.Items[:i], loc.Items[i+1:]...)
			return &item, nil
		}
	}
	return nil, nil
}

// Quest returns the quest with the given ID.
func (g *Graph) Quest(id string) (*Quest, error) {
	q, ok := g.Quests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuestNotFound, id)
	}
	return q, nil
}

// ActivateQuest flips an inactive quest to active and marks its first
// inactive objective active, in declared order.
func (g *Graph) ActivateQuest(id string) error {
	q, err := g.Quest(id)
	if err != nil {
		return err
	}
	if q.Status != QuestInactive {
		return fmt.Errorf("quest %s is %s, not inactive", id, q.Status)
	}
	q.Status = QuestActive
	for _, objID := range q.ObjectiveOrder {
		if q.Objectives[objID] == QuestInactive {
			q.Objectives[objID] = QuestActive
			break
		}
	}
	return nil
}

// UpdateObjective sets an objective's status. When every objective reaches
// completed, the quest itself flips to completed.
func (g *Graph) UpdateObjective(questID, objectiveID, status string) error {
	q, err := g.Quest(questID)
	if err != nil {
		return err
	}
	if _, ok := q.Objectives[objectiveID]; !ok {
		return fmt.Errorf("%w: quest %s has no objective %s", ErrQuestNotFound, questID, objectiveID)
	}
	q.Objectives[objectiveID] = status

	for _, s := range q.Objectives {
		if s != QuestCompleted {
			return nil
		}
	}
	q.Status = QuestCompleted
	return nil
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func remove(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
