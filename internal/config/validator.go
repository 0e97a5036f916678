package config

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a rule file:
//   - Version and rule IDs present, IDs unique
//   - Exactly one trigger variant set per rule
//   - Schedule hour/day ranges and cadence values
//   - Required trigger, condition, and action fields
//
// Operator and action-kind enums are checked when rules are built, so a
// file that validates here can still be rejected at build time.
func Validate(cfg *File) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	ids := make(map[string]struct{})
	var errs []string

	for i, rd := range cfg.Rules {
		if rd.ID == "" {
			errs = append(errs, fmt.Sprintf("rules[%d]: id is required", i))
			continue
		}
		loc := fmt.Sprintf("rule %s", rd.ID)
		if _, dup := ids[rd.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate rule id %q", rd.ID))
		}
		ids[rd.ID] = struct{}{}

		validateTrigger(rd.Trigger, loc, &errs)

		for j, c := range rd.Conditions {
			if c.Field == "" {
				errs = append(errs, fmt.Sprintf("%s.conditions[%d]: field is required", loc, j))
			}
			if c.Op == "" {
				errs = append(errs, fmt.Sprintf("%s.conditions[%d]: operator is required", loc, j))
			}
		}

		if len(rd.Actions) == 0 {
			errs = append(errs, fmt.Sprintf("%s: actions must not be empty", loc))
		}
		for j, a := range rd.Actions {
			if a.Kind == "" {
				errs = append(errs, fmt.Sprintf("%s.actions[%d]: kind is required", loc, j))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateTrigger(t TriggerDef, loc string, errs *[]string) {
	set := 0
	if t.Schedule != nil {
		set++
	}
	if t.DataChange != nil {
		set++
	}
	if t.Event != nil {
		set++
	}
	if set != 1 {
		*errs = append(*errs, fmt.Sprintf("%s.trigger: exactly one of schedule/data_change/event must be set", loc))
		return
	}

	switch {
	case t.Schedule != nil:
		s := t.Schedule
		if s.Cadence != "daily" && s.Cadence != "weekly" {
			*errs = append(*errs, fmt.Sprintf("%s.trigger.schedule: cadence must be daily or weekly, got %q", loc, s.Cadence))
		}
		if s.Hour < 0 || s.Hour > 23 {
			*errs = append(*errs, fmt.Sprintf("%s.trigger.schedule: hour %d out of range 0-23", loc, s.Hour))
		}
		if s.DayOfWeek != nil && (*s.DayOfWeek < 0 || *s.DayOfWeek > 6) {
			*errs = append(*errs, fmt.Sprintf("%s.trigger.schedule: day_of_week %d out of range 0-6", loc, *s.DayOfWeek))
		}
		if s.Cadence == "weekly" && s.DayOfWeek == nil {
			*errs = append(*errs, fmt.Sprintf("%s.trigger.schedule: weekly cadence requires day_of_week", loc))
		}
	case t.DataChange != nil:
		if t.DataChange.Entity == "" || t.DataChange.Field == "" {
			*errs = append(*errs, fmt.Sprintf("%s.trigger.data_change: entity and field are required", loc))
		}
	case t.Event != nil:
		if t.Event.Name == "" {
			*errs = append(*errs, fmt.Sprintf("%s.trigger.event: name is required", loc))
		}
	}
}
