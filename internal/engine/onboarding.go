package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coachkit/automation/internal/collab"
	"github.com/coachkit/automation/internal/metrics"
)

// Delays holds the relative offsets of the deferred onboarding steps,
// configurable so tests can compress them.
type Delays struct {
	Recommendations time.Duration
	Checkin         time.Duration
	CheckinDue      time.Duration
}

// DefaultDelays matches the production onboarding cadence.
func DefaultDelays() Delays {
	return Delays{
		Recommendations: time.Hour,
		Checkin:         24 * time.Hour,
		CheckinDue:      24 * time.Hour,
	}
}

// Sequencer runs the one-shot new-client onboarding workflow: welcome
// insights and monitoring bookkeeping immediately, recommendations and a
// first check-in at fixed relative delays. Deferred steps are in-process
// timers with no cancellation; a restart before a timer fires drops that
// step, which is acceptable for this advisory workflow.
type Sequencer struct {
	advisor collab.Advisor
	store   collab.DataStore
	delays  Delays
	timeout time.Duration
}

func NewSequencer(advisor collab.Advisor, store collab.DataStore, delays Delays, timeout time.Duration) *Sequencer {
	return &Sequencer{advisor: advisor, store: store, delays: delays, timeout: timeout}
}

// Onboard fires the four-step sequence. The two immediate steps run
// synchronously within the call; the two deferred steps are scheduled and
// attempted once each, independently.
func (q *Sequencer) Onboard(ctx context.Context, clientID, coachID string) {
	q.step(ctx, clientID, "welcome_insights", func(ctx context.Context) error {
		_, err := q.advisor.GenerateInsights(ctx,
			clientID, coachID,
			[]string{"welcome"},
			[]string{"profile", "goals"},
			"7d",
		)
		return err
	})

	q.step(ctx, clientID, "monitoring_armed", func(ctx context.Context) error {
		return q.store.ArmProgressMonitoring(ctx, collab.MonitoringPlan{
			ClientID:        clientID,
			Metrics:         []string{"adherence_rate", "session_count", "progress_trend"},
			PlateauWeeks:    2,
			AdherenceFloor:  70,
			MotivationFloor: 5,
		})
	})

	time.AfterFunc(q.delays.Recommendations, func() {
		// The caller's context is long gone by now.
		q.step(context.Background(), clientID, "initial_recommendations", func(ctx context.Context) error {
			_, err := q.advisor.GenerateRecommendations(ctx,
				clientID, "onboarding", nil, nil, "medium")
			return err
		})
	})

	time.AfterFunc(q.delays.Checkin, func() {
		q.step(context.Background(), clientID, "first_checkin", func(ctx context.Context) error {
			due := time.Now().Add(q.delays.CheckinDue)
			return q.store.InsertCoachingAction(ctx, collab.CoachingAction{
				ID:          uuid.New().String(),
				ClientID:    clientID,
				CoachID:     coachID,
				Title:       "First check-in",
				Description: "Review the client's first days and adjust the plan.",
				Priority:    "high",
				DueAt:       &due,
				CreatedAt:   time.Now(),
			})
		})
	})
}

func (q *Sequencer) step(ctx context.Context, clientID, name string, fn func(context.Context) error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		metrics.OnboardingSteps.WithLabelValues(name, "error").Inc()
		slog.Warn("onboarding step failed", "step", name, "client_id", clientID, "err", err)
		return
	}
	metrics.OnboardingSteps.WithLabelValues(name, "success").Inc()
	slog.Info("onboarding step done", "step", name, "client_id", clientID)
}
