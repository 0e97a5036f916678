package action

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coachkit/automation/internal/collab"
	"github.com/coachkit/automation/internal/flow"
	"github.com/coachkit/automation/internal/metrics"
)

// Executor dispatches actions to the collaborators. Failures are terminal
// per action, never per list: coaching automations must not be
// all-or-nothing, since "notify coach" succeeding while "generate insights"
// fails is still useful.
type Executor struct {
	Advisor  collab.Advisor
	Store    collab.DataStore
	Notifier collab.Notifier

	// Timeout bounds each collaborator call; zero disables the bound.
	// A timeout counts as an action failure.
	Timeout time.Duration
}

// ExecuteAll runs the actions in declaration order, at most once each.
// An outcome is returned for every action, including failed and skipped ones.
func (e *Executor) ExecuteAll(ctx context.Context, ruleID string, actions []Action, data flow.Context) []Outcome {
	outcomes := make([]Outcome, 0, len(actions))
	for _, a := range actions {
		out := e.execute(ctx, ruleID, a, data)
		outcomes = append(outcomes, out)

		metrics.ActionsExecuted.WithLabelValues(string(a.Kind), string(out.Status)).Inc()
		switch out.Status {
		case StatusError:
			slog.Warn("action failed",
				"rule_id", ruleID,
				"kind", a.Kind,
				"err", out.Err,
			)
		case StatusSkipped:
			slog.Info("action skipped",
				"rule_id", ruleID,
				"kind", a.Kind,
			)
		}
	}
	return outcomes
}

func (e *Executor) execute(ctx context.Context, ruleID string, a Action, data flow.Context) Outcome {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		metrics.ActionDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	switch a.Kind {
	case KindGenerateInsights:
		return e.generateInsights(ctx, a, data)
	case KindGenerateRecommendations:
		return e.generateRecommendations(ctx, a, data)
	case KindCreateCoachingAction:
		return e.createCoachingAction(ctx, a, data)
	case KindNotifyCoach:
		return e.notifyCoach(ctx, ruleID, a, data)
	case KindCreateProgressReport:
		return e.createProgressReport(ctx, a, data)
	case KindUpdateGoalStatus:
		return e.updateGoalStatus(ctx, a, data)
	}
	// Unrecognized kinds decode only from legacy data; keep the historic
	// no-op behavior rather than failing the rest of the list.
	return Outcome{Kind: a.Kind, Status: StatusSkipped}
}

func (e *Executor) generateInsights(ctx context.Context, a Action, data flow.Context) Outcome {
	clientID, okClient := data.String("client_id")
	coachID, okCoach := data.String("coach_id")
	if !okClient || !okCoach {
		return Outcome{Kind: a.Kind, Status: StatusSkipped}
	}
	_, err := e.Advisor.GenerateInsights(ctx,
		clientID,
		coachID,
		stringsParam(a.Params, "insight_types", []string{"general"}),
		stringsParam(a.Params, "data_sources", []string{"workouts", "nutrition"}),
		stringParam(a.Params, "time_range", "30d"),
	)
	return outcomeFor(a.Kind, err)
}

func (e *Executor) generateRecommendations(ctx context.Context, a Action, data flow.Context) Outcome {
	userID, ok := data.String("user_id")
	if !ok {
		return Outcome{Kind: a.Kind, Status: StatusSkipped}
	}
	_, err := e.Advisor.GenerateRecommendations(ctx,
		userID,
		stringParam(a.Params, "context_type", "coaching"),
		data,
		stringsParam(a.Params, "goals", nil),
		string(a.Priority),
	)
	return outcomeFor(a.Kind, err)
}

func (e *Executor) createCoachingAction(ctx context.Context, a Action, data flow.Context) Outcome {
	clientID, _ := data.String("client_id")
	coachID, _ := data.String("coach_id")
	rec := collab.CoachingAction{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		CoachID:     coachID,
		Title:       stringParam(a.Params, "title", "Check in with client"),
		Description: stringParam(a.Params, "description", ""),
		Priority:    string(a.Priority),
		CreatedAt:   time.Now(),
	}
	if hours, ok := floatParam(a.Params, "due_in_hours"); ok {
		due := time.Now().Add(time.Duration(hours * float64(time.Hour)))
		rec.DueAt = &due
	}
	return outcomeFor(a.Kind, e.Store.InsertCoachingAction(ctx, rec))
}

func (e *Executor) notifyCoach(ctx context.Context, ruleID string, a Action, data flow.Context) Outcome {
	coachID, _ := data.String("coach_id")
	err := e.Notifier.NotifyCoach(ctx, coachID, collab.Notification{
		Subject:  stringParam(a.Params, "subject", "Automated coaching alert"),
		Message:  stringParam(a.Params, "message", ""),
		Priority: string(a.Priority),
		RuleID:   ruleID,
	})
	return outcomeFor(a.Kind, err)
}

func (e *Executor) createProgressReport(ctx context.Context, a Action, data flow.Context) Outcome {
	clientID, _ := data.String("client_id")
	coachID, _ := data.String("coach_id")
	rep := collab.ProgressReport{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		CoachID:   coachID,
		Period:    stringParam(a.Params, "period", "weekly"),
		CreatedAt: time.Now(),
	}
	return outcomeFor(a.Kind, e.Store.CreateProgressReport(ctx, rep))
}

func (e *Executor) updateGoalStatus(ctx context.Context, a Action, data flow.Context) Outcome {
	goalID, ok := data.String("goal_id")
	if !ok {
		return Outcome{Kind: a.Kind, Status: StatusSkipped}
	}
	status := stringParam(a.Params, "status", "completed")
	return outcomeFor(a.Kind, e.Store.UpdateGoalStatus(ctx, goalID, status))
}

func outcomeFor(kind Kind, err error) Outcome {
	if err != nil {
		return Outcome{Kind: kind, Status: StatusError, Err: err}
	}
	return Outcome{Kind: kind, Status: StatusSuccess}
}

// stringParam reads a string param, falling back when absent or mistyped.
func stringParam(params map[string]any, key, fallback string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// stringsParam reads a string-slice param; YAML and JSON both decode
// sequences as []any, so both shapes are accepted.
func stringsParam(params map[string]any, key string, fallback []string) []string {
	switch v := params[key].(type) {
	case []string:
		if len(v) > 0 {
			return v
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, el := range v {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
