package content

import (
	"fmt"

	"github.com/emberworks/echofall/pkg/actor"
	"github.com/emberworks/echofall/pkg/world"
)

// StartingLocation is where every new session begins.
const StartingLocation = "frozen_cathedral_entrance"

// NewPlayer builds a fresh player character from the class and origin tables.
// All skills start at level 1; the class's starting skills begin at 2.
func (r *Registry) NewPlayer(name, classID, originID string) (*actor.Player, error) {
	class, ok := r.Class(classID)
	if !ok {
		return nil, fmt.Errorf("unknown character class %q", classID)
	}
	if _, ok := r.Origin(originID); !ok {
		return nil, fmt.Errorf("unknown origin %q", originID)
	}

	playerSkills := make(map[string]int, len(r.skills))
	for skill := range r.skills {
		playerSkills[skill] = 1
	}
	for _, skill := range class.StartingSkills {
		playerSkills[skill] = 2
	}

	abilities := classAbilities[classID]
	equipped := make([]string, 0, len(abilities))
	for _, a := range abilities {
		equipped = append(equipped, a.ID)
	}

	return &actor.Player{
		Name:         name,
		Class:        classID,
		Origin:       originID,
		Level:        1,
		Health:       class.BaseHealth,
		MaxHealth:    class.BaseHealth,
		Mana:         class.BaseMana,
		MaxMana:      class.BaseMana,
		Skills:       playerSkills,
		Abilities:    append([]actor.Ability(nil), abilities...),
		Equipped:     equipped,
		MaxInventory: 20,
	}, nil
}

// classAbilities grants each class its signature starting abilities.
var classAbilities = map[string][]actor.Ability{
	"vanguard": {
		{ID: "crushing_blow", Name: "Crushing Blow", Description: "A devastating overhead strike.", ManaCost: 8, Cooldown: 2, Damage: 12},
	},
	"courier": {
		{ID: "quick_strike", Name: "Quick Strike", Description: "A fast attack that is hard to anticipate.", ManaCost: 5, Cooldown: 1, Damage: 8},
	},
	"psychic": {
		{ID: "mind_lance", Name: "Mind Lance", Description: "A focused spike of psychic force.", ManaCost: 12, Cooldown: 2, Damage: 14},
		{ID: "mend", Name: "Mend", Description: "Psychically knit flesh back together.", ManaCost: 10, Cooldown: 3, Healing: 12},
	},
	"oathmarked": {
		{ID: "consecrate", Name: "Consecrate", Description: "Channel the oath's power to smite and sustain.", ManaCost: 10, Cooldown: 3, Damage: 10, Healing: 5},
	},
}

// SeedWorld builds the initial world graph for a new session: the Frozen
// Cathedral area, its NPCs, and its quest line. The hidden chamber starts
// disconnected; an in-game interaction reveals the path.
func SeedWorld() *world.Graph {
	g := world.NewGraph()

	g.Locations["frozen_cathedral_entrance"] = &world.Location{
		ID:          "frozen_cathedral_entrance",
		Name:        "The Frozen Cathedral - Entrance",
		Description: "A massive doorway carved into the side of a glacier leads to an ancient structure. Frost-laden winds howl around you, but the air grows still as you approach the entrance. Faint blue light emanates from within, and strange symbols are etched into the ice around the doorframe.",
		Connections: []string{"frozen_cathedral_main_hall"},
		Objects: []world.InteractiveObject{
			{
				ID:              "entrance_symbols",
				Name:            "Ancient Symbols",
				Description:     "Strange glyphs carved into the ice, glowing with a faint blue energy.",
				InteractionType: "examine",
			},
		},
	}

	g.Locations["frozen_cathedral_main_hall"] = &world.Location{
		ID:          "frozen_cathedral_main_hall",
		Name:        "The Frozen Cathedral - Main Hall",
		Description: "The massive hall stretches before you, its ceiling lost in shadows. Fractured ice columns rise like silent sentinels, reflecting the pale blue light that filters through stained glass windows. A soft hum emanates from a raised dais at the far end, where a peculiar beacon pulses with energy.",
		Connections: []string{"frozen_cathedral_entrance", "frozen_cathedral_altar", "frozen_cathedral_eastern_corridor", "frozen_cathedral_western_passage"},
		Objects: []world.InteractiveObject{
			{
				ID:              "frozen_beacon",
				Name:            "Pulsing Beacon",
				Description:     "A crystalline structure atop a raised dais, pulsing with ethereal blue energy.",
				InteractionType: "activate",
				RequiresItem:    "echo_key",
			},
		},
	}

	g.Locations["frozen_cathedral_altar"] = &world.Location{
		ID:          "frozen_cathedral_altar",
		Name:        "The Frozen Cathedral - Altar Chamber",
		Description: "A circular chamber dominated by a massive altar of black stone. Unlike the rest of the cathedral, this area is devoid of ice, and the stone floor radiates a subtle warmth. Blue flames dance across the altar's surface without consuming it.",
		Connections: []string{"frozen_cathedral_main_hall"},
		Items: []world.LocationItem{
			{
				ID:          "echo_key",
				Name:        "Echo Key",
				Description: "A translucent crystalline key that hums with the same frequency as the beacon.",
				ItemType:    "key",
				Count:       1,
			},
		},
		Objects: []world.InteractiveObject{
			{
				ID:              "altar_flames",
				Name:            "Blue Flames",
				Description:     "Ethereal flames that give off no heat, dancing across the surface of the altar.",
				InteractionType: "examine",
			},
		},
	}

	g.Locations["frozen_cathedral_eastern_corridor"] = &world.Location{
		ID:          "frozen_cathedral_eastern_corridor",
		Name:        "The Frozen Cathedral - Eastern Corridor",
		Description: "A long hallway lined with frozen statues. Each depicts a robed figure in various poses of reverence or contemplation. The ice here is thicker, and your footsteps echo loudly with each step. Strange whispers seem to follow you.",
		Connections: []string{"frozen_cathedral_main_hall"},
		NPCs:        []string{"frost_guardian_1", "ice_imp_1", "ice_imp_2"},
		Items: []world.LocationItem{
			{
				ID:          "frost_shard",
				Name:        "Frost Shard",
				Description: "A splinter of resonating ice, cold enough to burn. It vibrates faintly near the statues.",
				ItemType:    "misc",
				Count:       2,
			},
		},
	}

	g.Locations["frozen_cathedral_western_passage"] = &world.Location{
		ID:          "frozen_cathedral_western_passage",
		Name:        "The Frozen Cathedral - Western Passage",
		Description: "A twisting passage where the walls are formed of perfectly clear ice, revealing strange artifacts and relics embedded within. The passage appears to lead deeper into the glacier, but the way is blocked by a wall of ice.",
		Connections: []string{"frozen_cathedral_main_hall"},
		Items: []world.LocationItem{
			{
				ID:          "empty_vial",
				Name:        "Empty Vial",
				Description: "A glass vial embedded in the clear ice, somehow intact after all this time.",
				ItemType:    "misc",
				Count:       1,
			},
		},
		Objects: []world.InteractiveObject{
			{
				ID:              "ice_wall",
				Name:            "Wall of Ice",
				Description:     "A thick barrier of ice blocking further passage. It seems different from the surrounding walls, as if it was formed more recently.",
				InteractionType: "destroy",
			},
		},
	}

	g.Locations["frozen_cathedral_hidden_chamber"] = &world.Location{
		ID:          "frozen_cathedral_hidden_chamber",
		Name:        "The Frozen Cathedral - Hidden Chamber",
		Description: "A small, hexagonal room revealed behind the melted ice wall. The walls here are made of metal rather than ice or stone, covered in complex circuitry that pulses with blue energy. In the center, a cylindrical container holds what appears to be a preserved human brain.",
		Objects: []world.InteractiveObject{
			{
				ID:              "brain_container",
				Name:            "Preserved Brain",
				Description:     "A human brain suspended in glowing blue fluid within a cylindrical metal and glass container.",
				InteractionType: "examine",
			},
		},
	}

	g.NPCs["frost_guardian_1"] = &world.NPC{
		ID:          "frost_guardian_1",
		Name:        "Frost Guardian",
		Description: "A massive construct of animated ice and stone, formed into the shape of a knight with a blank, featureless face.",
		Location:    "frozen_cathedral_eastern_corridor",
		Hostile:     true,
		Health:      60,
		MaxHealth:   60,
	}
	g.NPCs["ice_imp_1"] = &world.NPC{
		ID:          "ice_imp_1",
		Name:        "Ice Imp",
		Description: "A small, mischievous creature formed of crystalline ice, with sharp claws and a manic grin.",
		Location:    "frozen_cathedral_eastern_corridor",
		Hostile:     true,
		Health:      30,
		MaxHealth:   30,
	}
	g.NPCs["ice_imp_2"] = &world.NPC{
		ID:          "ice_imp_2",
		Name:        "Ice Imp",
		Description: "A small, mischievous creature formed of crystalline ice, with sharp claws and a manic grin.",
		Location:    "frozen_cathedral_eastern_corridor",
		Hostile:     true,
		Health:      30,
		MaxHealth:   30,
	}
	g.NPCs["frosted_archivist"] = &world.NPC{
		ID:          "frosted_archivist",
		Name:        "Frosted Archivist",
		Description: "A tall, slender figure composed of translucent ice with visible organs of blue energy pulsing within. Its voice reverberates as if coming from multiple sources at once.",
		Location:    "frozen_cathedral_main_hall",
		Hostile:     false,
	}

	g.Quests["cathedral_mysteries"] = &world.Quest{
		ID:     "cathedral_mysteries",
		Name:   "Cathedral Mysteries",
		Status: world.QuestInactive,
		ObjectiveOrder: []string{
			"find_echo_key",
			"activate_beacon",
			"investigate_whispers",
			"find_hidden_chamber",
		},
		Objectives: map[string]string{
			"find_echo_key":        world.QuestInactive,
			"activate_beacon":      world.QuestInactive,
			"investigate_whispers": world.QuestInactive,
			"find_hidden_chamber":  world.QuestInactive,
		},
	}

	g.Current = StartingLocation
	entrance := g.Locations[StartingLocation]
	entrance.Visited = true
	entrance.VisitCount = 1

	return g
}
