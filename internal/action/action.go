package action

import "fmt"

// Kind discriminates the closed set of automation action kinds.
type Kind string

const (
	KindGenerateInsights        Kind = "generate_insights"
	KindGenerateRecommendations Kind = "generate_recommendations"
	KindCreateCoachingAction    Kind = "create_coaching_action"
	KindNotifyCoach             Kind = "notify_coach"
	KindCreateProgressReport    Kind = "create_progress_report"
	KindUpdateGoalStatus        Kind = "update_goal_status"
)

// ParseKind validates an action kind string from config or the API.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindGenerateInsights, KindGenerateRecommendations, KindCreateCoachingAction,
		KindNotifyCoach, KindCreateProgressReport, KindUpdateGoalStatus:
		return k, nil
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// Priority orders actions for the humans downstream; the engine itself
// executes in declaration order regardless.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority validates a priority string; empty defaults to medium.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Action is one unit of automated work. Params carry kind-specific extras
// (insight types, message text, due offsets) and may be nil.
type Action struct {
	Kind     Kind
	Priority Priority
	Params   map[string]any
}

// Status classifies the outcome of a single action attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Outcome is the per-action result the executor reports back.
type Outcome struct {
	Kind   Kind
	Status Status
	Err    error
}
