package collab

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coachkit/automation/internal/flow"
)

// MemoryStore is an in-memory DataStore. It backs the dev server and the
// engine tests; a real deployment plugs in its own persistence behind the
// same interface.
type MemoryStore struct {
	mu       sync.Mutex
	subjects []Subject
	actions  []CoachingAction
	reports  []ProgressReport
	goals    map[string]string
	plans    map[string]MonitoringPlan
	log      []LogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		goals: make(map[string]string),
		plans: make(map[string]MonitoringPlan),
	}
}

// UpsertSubject adds or replaces a subject on the active roster.
func (s *MemoryStore) UpsertSubject(sub Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.subjects {
		if existing.ID == sub.ID {
			s.subjects[i] = sub
			return
		}
	}
	s.subjects = append(s.subjects, sub)
}

func (s *MemoryStore) ListActiveSubjects(ctx context.Context, kind string) ([]Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Subject, len(s.subjects))
	copy(out, s.subjects)
	return out, nil
}

func (s *MemoryStore) InsertCoachingAction(ctx context.Context, rec CoachingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, rec)
	return nil
}

func (s *MemoryStore) CreateProgressReport(ctx context.Context, rep ProgressReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, rep)
	return nil
}

func (s *MemoryStore) UpdateGoalStatus(ctx context.Context, goalID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[goalID] = status
	return nil
}

func (s *MemoryStore) ArmProgressMonitoring(ctx context.Context, plan MonitoringPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ClientID] = plan
	return nil
}

func (s *MemoryStore) AppendAutomationLog(ctx context.Context, entry LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
	return nil
}

// CoachingActions returns a copy of all recorded coaching actions.
func (s *MemoryStore) CoachingActions() []CoachingAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CoachingAction, len(s.actions))
	copy(out, s.actions)
	return out
}

// Reports returns a copy of all recorded progress reports.
func (s *MemoryStore) Reports() []ProgressReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProgressReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// GoalStatus returns the last status written for a goal.
func (s *MemoryStore) GoalStatus(goalID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.goals[goalID]
	return status, ok
}

// Plan returns the monitoring plan armed for a client.
func (s *MemoryStore) Plan(clientID string) (MonitoringPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[clientID]
	return plan, ok
}

// AuditLog returns a copy of the automation audit log.
func (s *MemoryStore) AuditLog() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

// StubAdvisor is an Advisor that returns canned results and records calls.
// Setting FailInsights / FailRecommendations makes the corresponding call
// fail, which tests use to exercise partial-failure isolation.
type StubAdvisor struct {
	mu                  sync.Mutex
	FailInsights        error
	FailRecommendations error
	insightCalls        []InsightCall
	recommendationCalls []RecommendationCall
}

// InsightCall records one GenerateInsights invocation.
type InsightCall struct {
	ClientID     string
	CoachID      string
	InsightTypes []string
	DataSources  []string
	TimeRange    string
}

// RecommendationCall records one GenerateRecommendations invocation.
type RecommendationCall struct {
	UserID      string
	ContextType string
	Urgency     string
}

func (a *StubAdvisor) GenerateInsights(ctx context.Context, clientID, coachID string, insightTypes, dataSources []string, timeRange string) ([]Insight, error) {
	a.mu.Lock()
	a.insightCalls = append(a.insightCalls, InsightCall{
		ClientID:     clientID,
		CoachID:      coachID,
		InsightTypes: insightTypes,
		DataSources:  dataSources,
		TimeRange:    timeRange,
	})
	fail := a.FailInsights
	a.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return []Insight{{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Type:      firstOr(insightTypes, "general"),
		Summary:   fmt.Sprintf("insight for client %s over %s", clientID, timeRange),
		CreatedAt: time.Now(),
	}}, nil
}

func (a *StubAdvisor) GenerateRecommendations(ctx context.Context, userID, contextType string, current flow.Context, goals []string, urgency string) ([]Recommendation, error) {
	a.mu.Lock()
	a.recommendationCalls = append(a.recommendationCalls, RecommendationCall{
		UserID:      userID,
		ContextType: contextType,
		Urgency:     urgency,
	})
	fail := a.FailRecommendations
	a.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return []Recommendation{{
		ID:          uuid.New().String(),
		UserID:      userID,
		ContextType: contextType,
		Text:        fmt.Sprintf("recommendation for user %s", userID),
		Urgency:     urgency,
		CreatedAt:   time.Now(),
	}}, nil
}

// InsightCalls returns a copy of all recorded insight calls.
func (a *StubAdvisor) InsightCalls() []InsightCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]InsightCall, len(a.insightCalls))
	copy(out, a.insightCalls)
	return out
}

// RecommendationCalls returns a copy of all recorded recommendation calls.
func (a *StubAdvisor) RecommendationCalls() []RecommendationCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RecommendationCall, len(a.recommendationCalls))
	copy(out, a.recommendationCalls)
	return out
}

func firstOr(vals []string, fallback string) string {
	if len(vals) > 0 {
		return vals[0]
	}
	return fallback
}

// LogNotifier logs notifications and records them for inspection.
type LogNotifier struct {
	mu    sync.Mutex
	calls []Notification
}

func (n *LogNotifier) NotifyCoach(ctx context.Context, coachID string, note Notification) error {
	slog.Info("coach notified",
		"coach_id", coachID,
		"subject", note.Subject,
		"priority", note.Priority,
	)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, note)
	return nil
}

// Notifications returns a copy of all delivered notifications.
func (n *LogNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.calls))
	copy(out, n.calls)
	return out
}
