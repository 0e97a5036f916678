// Package rule holds the automation rule model and the in-memory registry.
package rule

import (
	"github.com/coachkit/automation/internal/action"
	"github.com/coachkit/automation/internal/condition"
)

// TriggerKind discriminates the three kinds of triggers.
type TriggerKind string

const (
	TriggerKindSchedule   TriggerKind = "schedule"
	TriggerKindDataChange TriggerKind = "data_change"
	TriggerKindEvent      TriggerKind = "event"
)

// Trigger is the event shape that makes a rule eligible for evaluation.
// The kind is fixed at creation; matching only compares within a kind.
type Trigger interface {
	Kind() TriggerKind
	triggerNode()
}

// Cadence is how often a schedule trigger recurs.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// ScheduleTrigger fires on the scheduler's hour tick. DayOfWeek is nil for
// daily rules; 0 = Sunday.
type ScheduleTrigger struct {
	Cadence   Cadence
	DayOfWeek *int
	Hour      int
}

func (ScheduleTrigger) Kind() TriggerKind { return TriggerKindSchedule }
func (ScheduleTrigger) triggerNode()      {}

// Due reports whether the trigger's time window covers the given hour and
// day-of-week.
func (t ScheduleTrigger) Due(hour, day int) bool {
	if t.Hour != hour {
		return false
	}
	return t.DayOfWeek == nil || *t.DayOfWeek == day
}

// DataChangeTrigger fires when a tracked entity field changes.
type DataChangeTrigger struct {
	Entity string
	Field  string
}

func (DataChangeTrigger) Kind() TriggerKind { return TriggerKindDataChange }
func (DataChangeTrigger) triggerNode()      {}

// EventTrigger fires on an explicit named domain event.
type EventTrigger struct {
	Name string
}

func (EventTrigger) Kind() TriggerKind { return TriggerKindEvent }
func (EventTrigger) triggerNode()      {}

// Rule is a trigger + conditions + actions tuple. Rules are immutable value
// objects except for Enabled; all mutation goes through the Registry, which
// replaces the whole rule rather than editing it in place.
type Rule struct {
	ID         string
	Name       string
	Trigger    Trigger
	Conditions []condition.Condition
	Actions    []action.Action
	Enabled    bool
}
