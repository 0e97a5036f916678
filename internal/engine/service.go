// Package engine wires the rule registry, condition evaluation, and action
// execution into the workflow service external callers use.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coachkit/automation/internal/action"
	"github.com/coachkit/automation/internal/collab"
	"github.com/coachkit/automation/internal/condition"
	"github.com/coachkit/automation/internal/flow"
	"github.com/coachkit/automation/internal/metrics"
	"github.com/coachkit/automation/internal/rule"
)

// Config holds engine tunables.
type Config struct {
	SweepWorkers int
	SubjectKind  string
}

// Service is the workflow facade: event ingestion, the scheduled sweep,
// onboarding, and rule management. It owns the registry's lifetime.
type Service struct {
	registry *rule.Registry
	exec     *action.Executor
	store    collab.DataStore
	seq      *Sequencer
	conf     Config
}

// New creates a Service. Zero-valued config fields get defaults.
func New(registry *rule.Registry, exec *action.Executor, store collab.DataStore, seq *Sequencer, conf Config) *Service {
	if conf.SweepWorkers <= 0 {
		conf.SweepWorkers = 8
	}
	if conf.SubjectKind == "" {
		conf.SubjectKind = "client"
	}
	return &Service{
		registry: registry,
		exec:     exec,
		store:    store,
		seq:      seq,
		conf:     conf,
	}
}

// OnEvent dispatches a named domain event. It returns the IDs of the rules
// that fired.
func (s *Service) OnEvent(ctx context.Context, name string, data flow.Context) []string {
	return s.dispatch(ctx, rule.EventTrigger{Name: name}, data)
}

// OnDataChange dispatches a data-field change notification. It returns the
// IDs of the rules that fired.
func (s *Service) OnDataChange(ctx context.Context, entity, field string, data flow.Context) []string {
	return s.dispatch(ctx, rule.DataChangeTrigger{Entity: entity, Field: field}, data)
}

// dispatch runs every matching enabled rule against the context. Rules are
// independent: one rule's action failures never block the next rule.
func (s *Service) dispatch(ctx context.Context, incoming rule.Trigger, data flow.Context) []string {
	metrics.EventsProcessed.Inc()
	now := time.Now()

	var fired []string
	for _, rl := range s.registry.Snapshot() {
		if !rl.Enabled || !rule.Matches(rl.Trigger, incoming) {
			continue
		}
		if !condition.EvaluateAll(rl.Conditions, data, now) {
			continue
		}
		s.fire(ctx, rl, data, now)
		fired = append(fired, rl.ID)
	}
	return fired
}

// fire executes a rule's action list and appends the audit record.
func (s *Service) fire(ctx context.Context, rl *rule.Rule, data flow.Context, now time.Time) {
	outcomes := s.exec.ExecuteAll(ctx, rl.ID, rl.Actions, data)

	success := true
	for _, out := range outcomes {
		if out.Status == action.StatusError {
			success = false
			break
		}
	}

	metrics.RulesFired.WithLabelValues(rl.ID).Inc()
	slog.Info("rule fired", "rule_id", rl.ID, "actions", len(outcomes), "success", success)

	entry := collab.LogEntry{
		ID:           uuid.New().String(),
		RuleID:       rl.ID,
		ExecutedAt:   now,
		InputContext: data.Clone(),
		Success:      success,
	}
	if err := s.store.AppendAutomationLog(ctx, entry); err != nil {
		slog.Warn("audit log append failed", "rule_id", rl.ID, "err", err)
	}
}

// OnboardClient starts the one-shot onboarding sequence for a new client.
func (s *Service) OnboardClient(ctx context.Context, clientID, coachID string) {
	s.seq.Onboard(ctx, clientID, coachID)
}

// AddRule registers a rule, replacing any rule with the same ID.
func (s *Service) AddRule(rl rule.Rule) { s.registry.Add(rl) }

// UpdateRule patches a rule; unknown IDs are a no-op.
func (s *Service) UpdateRule(id string, p rule.Patch) { s.registry.Update(id, p) }

// EnableRule enables a rule; unknown IDs are a no-op.
func (s *Service) EnableRule(id string) { s.registry.Enable(id) }

// DisableRule disables a rule; unknown IDs are a no-op.
func (s *Service) DisableRule(id string) { s.registry.Disable(id) }

// Rules returns the current rule set in registration order.
func (s *Service) Rules() []*rule.Rule { return s.registry.Snapshot() }

// Reseed atomically replaces the rule set (used on config hot-reload).
func (s *Service) Reseed(rules []rule.Rule) { s.registry.Reseed(rules) }
