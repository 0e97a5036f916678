package rule

import (
	"testing"

	"github.com/coachkit/automation/internal/action"
	"github.com/coachkit/automation/internal/condition"
)

func testRule(id string) Rule {
	return Rule{
		ID:      id,
		Name:    "rule " + id,
		Trigger: EventTrigger{Name: "test_event"},
		Conditions: []condition.Condition{
			{Field: "adherence_rate", Op: condition.OpLessThan, Value: 70},
		},
		Actions: []action.Action{
			{Kind: action.KindNotifyCoach, Priority: action.PriorityMedium},
		},
		Enabled: true,
	}
}

// Mutating a non-existent id must not alter the registry and must not panic.
func TestRegistry_UnknownIDNoOp(t *testing.T) {
	reg := NewRegistry()
	reg.Add(testRule("r1"))

	before, _ := reg.Get("r1")

	name := "renamed"
	reg.Update("ghost", Patch{Name: &name})
	reg.Enable("ghost")
	reg.Disable("ghost")

	if reg.Len() != 1 {
		t.Errorf("registry size changed: got %d, want 1", reg.Len())
	}
	after, ok := reg.Get("r1")
	if !ok || after != before {
		t.Error("existing rule was altered by unknown-id mutation")
	}
}

func TestRegistry_EnableDisable(t *testing.T) {
	reg := NewRegistry()
	reg.Add(testRule("r1"))

	reg.Disable("r1")
	if rl, _ := reg.Get("r1"); rl.Enabled {
		t.Error("rule should be disabled")
	}
	reg.Enable("r1")
	if rl, _ := reg.Get("r1"); !rl.Enabled {
		t.Error("rule should be enabled")
	}
}

func TestRegistry_UpdatePatch(t *testing.T) {
	reg := NewRegistry()
	reg.Add(testRule("r1"))

	name := "patched"
	reg.Update("r1", Patch{
		Name:    &name,
		Actions: []action.Action{{Kind: action.KindGenerateInsights, Priority: action.PriorityHigh}},
	})

	rl, _ := reg.Get("r1")
	if rl.Name != "patched" {
		t.Errorf("name = %q, want patched", rl.Name)
	}
	if len(rl.Actions) != 1 || rl.Actions[0].Kind != action.KindGenerateInsights {
		t.Errorf("actions not patched: %+v", rl.Actions)
	}
	// Untouched fields survive.
	if len(rl.Conditions) != 1 {
		t.Errorf("conditions should be unchanged, got %+v", rl.Conditions)
	}
	if rl.Trigger.Kind() != TriggerKindEvent {
		t.Errorf("trigger should be unchanged, got %v", rl.Trigger.Kind())
	}
}

// A snapshot taken before a mutation keeps observing the old rule value.
func TestRegistry_SnapshotIsolation(t *testing.T) {
	reg := NewRegistry()
	reg.Add(testRule("r1"))

	snap := reg.Snapshot()
	reg.Disable("r1")

	if !snap[0].Enabled {
		t.Error("snapshot should still see the rule as enabled")
	}
	if rl, _ := reg.Get("r1"); rl.Enabled {
		t.Error("registry should see the rule as disabled")
	}
}

func TestRegistry_SnapshotOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		reg.Add(testRule(id))
	}
	snap := reg.Snapshot()
	got := []string{snap[0].ID, snap[1].ID, snap[2].ID}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot order = %v, want %v", got, want)
		}
	}
}

func TestRegistry_Reseed(t *testing.T) {
	reg := NewRegistry()
	reg.Add(testRule("old"))

	reg.Reseed([]Rule{testRule("n1"), testRule("n2")})

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	if _, ok := reg.Get("old"); ok {
		t.Error("old rule should be gone after reseed")
	}
	if _, ok := reg.Get("n1"); !ok {
		t.Error("n1 should exist after reseed")
	}
}

func TestRegistry_AddReplacesSameID(t *testing.T) {
	reg := NewRegistry()
	reg.Add(testRule("r1"))

	replacement := testRule("r1")
	replacement.Name = "second"
	reg.Add(replacement)

	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
	if rl, _ := reg.Get("r1"); rl.Name != "second" {
		t.Errorf("name = %q, want second", rl.Name)
	}
}
