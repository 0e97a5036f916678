package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coachkit/automation/internal/collab"
	"github.com/coachkit/automation/internal/condition"
	"github.com/coachkit/automation/internal/flow"
	"github.com/coachkit/automation/internal/metrics"
	"github.com/coachkit/automation/internal/rule"
)

// SweepReport summarizes one scheduled sweep.
type SweepReport struct {
	RulesDue int `json:"rules_due"`
	Subjects int `json:"subjects"`
	Fired    int `json:"fired"`
}

type sweepWork struct {
	rule    *rule.Rule
	subject collab.Subject
}

// RunScheduledSweep re-evaluates every enabled schedule rule whose time
// window covers now against every active subject. The caller supplies now
// (a cron entry in production, a fixed timestamp in tests); the sweep never
// reads the wall clock itself. Subject evaluations are independent and fan
// out over a bounded worker pool; a failure on one subject or one rule is
// logged and never stops the rest of the sweep.
func (s *Service) RunScheduledSweep(ctx context.Context, now time.Time) SweepReport {
	metrics.SweepsRun.Inc()
	hour, day := now.Hour(), int(now.Weekday())

	var due []*rule.Rule
	for _, rl := range s.registry.Snapshot() {
		st, ok := rl.Trigger.(rule.ScheduleTrigger)
		if ok && rl.Enabled && st.Due(hour, day) {
			due = append(due, rl)
		}
	}
	report := SweepReport{RulesDue: len(due)}
	if len(due) == 0 {
		return report
	}

	var subjects, fired atomic.Int64
	pool := newWorkerPool(ctx, s.conf.SweepWorkers, s.conf.SweepWorkers*2, func(ctx context.Context, w sweepWork) {
		metrics.SweepSubjects.Inc()
		subjects.Add(1)
		data := subjectContext(w.subject, s.conf.SubjectKind)
		if !condition.EvaluateAll(w.rule.Conditions, data, now) {
			return
		}
		s.fire(ctx, w.rule, data, now)
		fired.Add(1)
	})

	for _, rl := range due {
		subs, err := s.store.ListActiveSubjects(ctx, s.conf.SubjectKind)
		if err != nil {
			slog.Warn("sweep: subject fetch failed", "rule_id", rl.ID, "err", err)
			continue
		}
		for _, sub := range subs {
			pool.Submit(ctx, sweepWork{rule: rl, subject: sub})
		}
	}
	pool.Drain()

	report.Subjects = int(subjects.Load())
	report.Fired = int(fired.Load())
	slog.Info("sweep complete",
		"hour", hour,
		"day", day,
		"rules_due", report.RulesDue,
		"subjects", report.Subjects,
		"fired", report.Fired,
	)
	return report
}

// subjectContext builds the per-subject execution context: the subject's
// data snapshot plus the identifiers the action guards read. The snapshot is
// exposed both flat and nested under the subject kind, so conditions may
// address fields as "adherence_rate" or "client.adherence_rate" — the latter
// is the shape data-change payloads use, and rules are written against it.
func subjectContext(sub collab.Subject, kind string) flow.Context {
	data := sub.Data.Clone()
	data[kind] = sub.Data.Clone()
	data["client_id"] = sub.ID
	data["user_id"] = sub.ID
	if sub.CoachID != "" {
		data["coach_id"] = sub.CoachID
	}
	return data
}
