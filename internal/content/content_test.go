package content

import (
	"testing"
)

func TestClassTable(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		id     string
		health int
		mana   int
	}{
		{"vanguard", 60, 20},
		{"courier", 45, 25},
		{"psychic", 40, 40},
		{"oathmarked", 50, 30},
	}
	for _, tt := range tests {
		class, ok := r.Class(tt.id)
		if !ok {
			t.Fatalf("class %s missing", tt.id)
		}
		if class.BaseHealth != tt.health || class.BaseMana != tt.mana {
			t.Errorf("%s: health/mana = %d/%d, want %d/%d",
				tt.id, class.BaseHealth, class.BaseMana, tt.health, tt.mana)
		}
		if len(class.StartingSkills) == 0 {
			t.Errorf("%s: no starting skills", tt.id)
		}
		for _, skill := range class.StartingSkills {
			if _, ok := r.Skills()[skill]; !ok {
				t.Errorf("%s: starting skill %q not in skill table", tt.id, skill)
			}
		}
	}

	if _, ok := r.Class("bard"); ok {
		t.Error("unknown class must not resolve")
	}
}

func TestDifficultyTable(t *testing.T) {
	r := NewRegistry()
	for name, want := range map[string]int{
		"trivial":     3,
		"easy":        4,
		"moderate":    5,
		"challenging": 6,
		"difficult":   7,
	} {
		got, ok := r.Difficulty(name)
		if !ok || got != want {
			t.Errorf("difficulty %s = %d (%v), want %d", name, got, ok, want)
		}
	}
}

func TestEnemyTemplates(t *testing.T) {
	r := NewRegistry()

	guardian, ok := r.Enemy("frost_guardian")
	if !ok {
		t.Fatal("frost_guardian template missing")
	}
	if guardian.Health != 60 || guardian.Damage != 8 {
		t.Errorf("frost_guardian = %d hp / %d dmg, want 60/8", guardian.Health, guardian.Damage)
	}

	imp, ok := r.Enemy("ice_imp")
	if !ok {
		t.Fatal("ice_imp template missing")
	}
	if imp.Health != 30 || imp.Damage != 5 {
		t.Errorf("ice_imp = %d hp / %d dmg, want 30/5", imp.Health, imp.Damage)
	}
}

func TestNewPlayer(t *testing.T) {
	r := NewRegistry()

	p, err := r.NewPlayer("kira", "vanguard", "wasteland-born")
	if err != nil {
		t.Fatalf("NewPlayer failed: %v", err)
	}
	if p.Health != 60 || p.MaxHealth != 60 || p.Mana != 20 || p.MaxMana != 20 {
		t.Errorf("vanguard stats = %d/%d hp %d/%d mp, want 60/60 20/20",
			p.Health, p.MaxHealth, p.Mana, p.MaxMana)
	}
	if p.Level != 1 {
		t.Errorf("level = %d, want 1", p.Level)
	}

	// All skills start at 1; the class's starting skills begin at 2.
	for skill, level := range p.Skills {
		switch skill {
		case "strength", "perception":
			if level != 2 {
				t.Errorf("class skill %s = %d, want 2", skill, level)
			}
		default:
			if level != 1 {
				t.Errorf("skill %s = %d, want 1", skill, level)
			}
		}
	}
	if len(p.Skills) != len(r.Skills()) {
		t.Errorf("skill count = %d, want %d", len(p.Skills), len(r.Skills()))
	}

	if len(p.Abilities) == 0 || len(p.Equipped) == 0 {
		t.Error("new players should start with their class abilities equipped")
	}

	if _, err := r.NewPlayer("kira", "bard", "wasteland-born"); err == nil {
		t.Error("unknown class must be rejected")
	}
	if _, err := r.NewPlayer("kira", "vanguard", "star-child"); err == nil {
		t.Error("unknown origin must be rejected")
	}
}

func TestSeedWorldInvariants(t *testing.T) {
	g := SeedWorld()

	if err := g.ValidateSymmetry(); err != nil {
		t.Fatalf("seed world breaks the symmetry invariant: %v", err)
	}
	if g.Current != StartingLocation {
		t.Errorf("current = %s, want %s", g.Current, StartingLocation)
	}

	entrance, err := g.Location(StartingLocation)
	if err != nil {
		t.Fatal(err)
	}
	if !entrance.Visited || entrance.VisitCount != 1 {
		t.Error("starting location should already count as visited")
	}

	// The hidden chamber is revealed during play, never at the start.
	hidden, err := g.Location("frozen_cathedral_hidden_chamber")
	if err != nil {
		t.Fatal(err)
	}
	if len(hidden.Connections) != 0 {
		t.Error("hidden chamber must start disconnected")
	}

	quest, err := g.Quest("cathedral_mysteries")
	if err != nil {
		t.Fatal(err)
	}
	if quest.Status != "inactive" {
		t.Errorf("quest status = %s, want inactive", quest.Status)
	}
	if len(quest.ObjectiveOrder) != len(quest.Objectives) {
		t.Error("objective order and objective map must agree")
	}

	// Every hostile NPC maps back to an enemy template.
	r := NewRegistry()
	for id, npc := range g.NPCs {
		if !npc.Hostile {
			continue
		}
		trimmed := id[:len(id)-2] // strip _N suffix
		if _, ok := r.Enemy(trimmed); !ok {
			t.Errorf("hostile NPC %s has no enemy template %s", id, trimmed)
		}
	}
}
