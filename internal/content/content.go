// Package content holds the static, read-only game data tables: character
// classes and origins, skills, difficulty levels, status-effect and enemy
// templates, and the seed world. Tables are keyed by string ID; a missing key
// is a data error surfaced to the caller, never a panic.
package content

// Class defines a character class's base resources and starting skills.
type Class struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	BaseHealth     int      `json:"base_health"`
	BaseMana       int      `json:"base_mana"`
	StartingSkills []string `json:"starting_skills"`
}

// Origin defines a character background with a passive perk.
type Origin struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Passive     string `json:"passive"`
}

// StatusEffectTemplate is the blueprint for a status effect instance.
type StatusEffectTemplate struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	EffectType  string  `json:"effect_type"`
	Value       float64 `json:"value"`
	MaxDuration int     `json:"max_duration"`
}

// EnemyTemplate is the blueprint for a combat enemy instance.
type EnemyTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Health      int      `json:"health"`
	Damage      int      `json:"damage"`
	Abilities   []string `json:"abilities"`
}

// Registry exposes string-keyed lookups over the static tables.
type Registry struct {
	classes       map[string]Class
	origins       map[string]Origin
	skills        map[string]string
	difficulties  map[string]int
	statusEffects map[string]StatusEffectTemplate
	enemies       map[string]EnemyTemplate
}

// NewRegistry builds the registry from the built-in tables.
func NewRegistry() *Registry {
	return &Registry{
		classes:       classes,
		origins:       origins,
		skills:        skills,
		difficulties:  difficulties,
		statusEffects: statusEffects,
		enemies:       enemies,
	}
}

// Class looks up a character class by ID.
func (r *Registry) Class(id string) (Class, bool) {
	c, ok := r.classes[id]
	return c, ok
}

// Origin looks up a character origin by ID.
func (r *Registry) Origin(id string) (Origin, bool) {
	o, ok := r.origins[id]
	return o, ok
}

// Skills returns the full skill table (skill ID to description).
func (r *Registry) Skills() map[string]string {
	out := make(map[string]string, len(r.skills))
	for k, v := range r.skills {
		out[k] = v
	}
	return out
}

// Difficulty resolves a named difficulty level to its threshold.
func (r *Registry) Difficulty(name string) (int, bool) {
	d, ok := r.difficulties[name]
	return d, ok
}

// StatusEffect looks up a status-effect template by ID.
func (r *Registry) StatusEffect(id string) (StatusEffectTemplate, bool) {
	t, ok := r.statusEffects[id]
	return t, ok
}

// Enemy looks up an enemy template by ID.
func (r *Registry) Enemy(id string) (EnemyTemplate, bool) {
	e, ok := r.enemies[id]
	return e, ok
}

// ClassIDs lists the valid class IDs, for validation error messages.
func (r *Registry) ClassIDs() []string {
	out := make([]string, 0, len(r.classes))
	for id := range r.classes {
		out = append(out, id)
	}
	return out
}

// OriginIDs lists the valid origin IDs.
func (r *Registry) OriginIDs() []string {
	out := make([]string, 0, len(r.origins))
	for id := range r.origins {
		out = append(out, id)
	}
	return out
}

var classes = map[string]Class{
	"courier": {
		ID:             "courier",
		Description:    "Movement-based skirmisher and support",
		BaseHealth:     45,
		BaseMana:       25,
		StartingSkills: []string{"agility", "perception"},
	},
	"psychic": {
		ID:             "psychic",
		Description:    "Charge-based controller or nuker",
		BaseHealth:     40,
		BaseMana:       40,
		StartingSkills: []string{"willpower", "knowledge"},
	},
	"oathmarked": {
		ID:             "oathmarked",
		Description:    "Thematic reactive class",
		BaseHealth:     50,
		BaseMana:       30,
		StartingSkills: []string{"strength", "perception"},
	},
	"vanguard": {
		ID:             "vanguard",
		Description:    "Melee bruiser or tank",
		BaseHealth:     60,
		BaseMana:       20,
		StartingSkills: []string{"strength", "willpower"},
	},
}

var origins = map[string]Origin{
	"wasteland-born": {
		ID:          "wasteland-born",
		Description: "Born in the harsh wastelands, you've developed natural survival skills.",
		Passive:     "Wasteland Resilience: +10% resistance to environmental effects",
	},
	"vault-bred": {
		ID:          "vault-bred",
		Description: "Raised in the safety of a vault, you've received extensive education.",
		Passive:     "Technical Expertise: +1 to knowledge checks",
	},
	"disgraced-noble": {
		ID:          "disgraced-noble",
		Description: "Once part of the ruling class, now forced to survive on your own.",
		Passive:     "Commanding Presence: +1 to social interactions with non-hostile NPCs",
	},
	"exiled-researcher": {
		ID:          "exiled-researcher",
		Description: "A scientist who pushed boundaries too far and was cast out.",
		Passive:     "Scientific Method: Can analyze unknown tech items without tools",
	},
	"forgotten-clone": {
		ID:          "forgotten-clone",
		Description: "A clone created for unknown purposes, now seeking your own identity.",
		Passive:     "Genetic Memory: Can attempt to recall information even without direct knowledge",
	},
	"sanctioned-hunter": {
		ID:          "sanctioned-hunter",
		Description: "Trained to hunt down threats, you now work on your own terms.",
		Passive:     "Tracker's Instinct: Can detect hidden enemies more easily",
	},
}

var skills = map[string]string{
	"strength":   "Physical power and might",
	"agility":    "Dexterity, speed, and reflexes",
	"perception": "Awareness and observation",
	"willpower":  "Mental fortitude and determination",
	"knowledge":  "Education and information recall",
}

var difficulties = map[string]int{
	"trivial":     3,
	"easy":        4,
	"moderate":    5,
	"challenging": 6,
	"difficult":   7,
	"extreme":     8,
	"legendary":   9,
}

var statusEffects = map[string]StatusEffectTemplate{
	"burning": {
		ID:          "burning",
		Description: "Taking fire damage over time",
		EffectType:  "damage_over_time",
		Value:       3,
		MaxDuration: 3,
	},
	"frostbite": {
		ID:          "frostbite",
		Description: "Movement slowed by extreme cold",
		EffectType:  "movement_penalty",
		Value:       -1,
		MaxDuration: 4,
	},
	"focused": {
		ID:          "focused",
		Description: "Increased damage with abilities",
		EffectType:  "damage_bonus",
		Value:       0.1,
		MaxDuration: 3,
	},
	"protected": {
		ID:          "protected",
		Description: "Damage reduction shield",
		EffectType:  "damage_reduction",
		Value:       0.2,
		MaxDuration: 2,
	},
}

var enemies = map[string]EnemyTemplate{
	"frost_guardian": {
		ID:          "frost_guardian",
		Name:        "Frost Guardian",
		Description: "A massive construct of animated ice and stone",
		Health:      60,
		Damage:      8,
		Abilities:   []string{"ice_strike", "frost_armor"},
	},
	"ice_imp": {
		ID:          "ice_imp",
		Name:        "Ice Imp",
		Description: "A small, mischievous creature formed of crystalline ice",
		Health:      30,
		Damage:      5,
		Abilities:   []string{"frost_shard", "blink"},
	},
}
