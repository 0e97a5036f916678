package rule

import (
	"fmt"

	"github.com/coachkit/automation/internal/action"
	"github.com/coachkit/automation/internal/condition"
	"github.com/coachkit/automation/internal/config"
)

// FromConfig builds domain rules from validated config definitions.
// Enum parsing (operators, action kinds, cadence) happens here, so invalid
// names are caught before a rule can enter the registry.
func FromConfig(defs []config.RuleDef) ([]Rule, error) {
	rules := make([]Rule, 0, len(defs))
	for _, rd := range defs {
		rl, err := Build(rd)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rl)
	}
	return rules, nil
}

// Build constructs a single rule from its definition.
func Build(rd config.RuleDef) (Rule, error) {
	trig, err := buildTrigger(rd.Trigger)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rd.ID, err)
	}

	conds := make([]condition.Condition, 0, len(rd.Conditions))
	for _, cd := range rd.Conditions {
		op, err := condition.ParseOperator(cd.Op)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: condition %q: %w", rd.ID, cd.Field, err)
		}
		conds = append(conds, condition.Condition{Field: cd.Field, Op: op, Value: cd.Value})
	}

	actions := make([]action.Action, 0, len(rd.Actions))
	for _, ad := range rd.Actions {
		kind, err := action.ParseKind(ad.Kind)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", rd.ID, err)
		}
		prio, err := action.ParsePriority(ad.Priority)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: action %s: %w", rd.ID, ad.Kind, err)
		}
		actions = append(actions, action.Action{Kind: kind, Priority: prio, Params: ad.Params})
	}

	return Rule{
		ID:         rd.ID,
		Name:       rd.Name,
		Trigger:    trig,
		Conditions: conds,
		Actions:    actions,
		Enabled:    rd.Enabled,
	}, nil
}

func buildTrigger(td config.TriggerDef) (Trigger, error) {
	switch {
	case td.Schedule != nil:
		cadence := Cadence(td.Schedule.Cadence)
		if cadence != CadenceDaily && cadence != CadenceWeekly {
			return nil, fmt.Errorf("unknown cadence %q", td.Schedule.Cadence)
		}
		return ScheduleTrigger{
			Cadence:   cadence,
			DayOfWeek: td.Schedule.DayOfWeek,
			Hour:      td.Schedule.Hour,
		}, nil
	case td.DataChange != nil:
		return DataChangeTrigger{
			Entity: td.DataChange.Entity,
			Field:  td.DataChange.Field,
		}, nil
	case td.Event != nil:
		return EventTrigger{Name: td.Event.Name}, nil
	}
	return nil, fmt.Errorf("trigger is empty")
}
