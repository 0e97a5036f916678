// Package collab defines the contracts the automation engine consumes:
// AI advice generation, the domain data store, and coach notification.
// Implementations live with the surrounding application; the in-memory
// versions here back the dev server and the tests.
package collab

import (
	"context"
	"time"

	"github.com/coachkit/automation/internal/flow"
)

// Insight is one piece of AI-generated coaching insight.
type Insight struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Recommendation is one AI-generated recommendation for a user.
type Recommendation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ContextType string    `json:"context_type"`
	Text        string    `json:"text"`
	Urgency     string    `json:"urgency"`
	CreatedAt   time.Time `json:"created_at"`
}

// Advisor generates insights and recommendations. Both calls may fail
// (network, quota, model error); failures propagate as ordinary errors to
// the action executor's per-action isolation.
type Advisor interface {
	GenerateInsights(ctx context.Context, clientID, coachID string, insightTypes, dataSources []string, timeRange string) ([]Insight, error)
	GenerateRecommendations(ctx context.Context, userID, contextType string, current flow.Context, goals []string, urgency string) ([]Recommendation, error)
}

// Subject is one entity a scheduled sweep evaluates rules against.
type Subject struct {
	ID      string       `json:"id"`
	CoachID string       `json:"coach_id"`
	Data    flow.Context `json:"data"`
}

// CoachingAction is a unit of coach work created by an automation.
type CoachingAction struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	CoachID     string     `json:"coach_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProgressReport is a periodic client progress summary record.
type ProgressReport struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	CoachID   string    `json:"coach_id"`
	Period    string    `json:"period"`
	CreatedAt time.Time `json:"created_at"`
}

// MonitoringPlan is the progress-monitoring bookkeeping armed during
// onboarding: which metrics to track and the alert thresholds.
type MonitoringPlan struct {
	ClientID        string   `json:"client_id"`
	Metrics         []string `json:"metrics"`
	PlateauWeeks    int      `json:"plateau_weeks"`
	AdherenceFloor  float64  `json:"adherence_floor"`
	MotivationFloor float64  `json:"motivation_floor"`
}

// LogEntry is the append-only audit record written once per rule firing.
type LogEntry struct {
	ID           string       `json:"id"`
	RuleID       string       `json:"rule_id"`
	ExecutedAt   time.Time    `json:"executed_at"`
	InputContext flow.Context `json:"input_context"`
	Success      bool         `json:"success"`
}

// DataStore is the abstract read/write surface the engine needs. All writes
// are fire-and-forget from the engine's perspective.
type DataStore interface {
	ListActiveSubjects(ctx context.Context, kind string) ([]Subject, error)
	InsertCoachingAction(ctx context.Context, rec CoachingAction) error
	CreateProgressReport(ctx context.Context, rep ProgressReport) error
	UpdateGoalStatus(ctx context.Context, goalID, status string) error
	ArmProgressMonitoring(ctx context.Context, plan MonitoringPlan) error
	AppendAutomationLog(ctx context.Context, entry LogEntry) error
}

// Notification is the payload delivered to a coach.
type Notification struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
	RuleID   string `json:"rule_id,omitempty"`
}

// Notifier delivers best-effort notifications; failure is logged only.
type Notifier interface {
	NotifyCoach(ctx context.Context, coachID string, n Notification) error
}
