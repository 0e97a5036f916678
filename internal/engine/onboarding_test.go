package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coachkit/automation/internal/collab"
)

var errTest = errors.New("advisor unavailable")

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestOnboard(t *testing.T) {
	advisor := &collab.StubAdvisor{}
	store := collab.NewMemoryStore()
	delays := Delays{
		Recommendations: 10 * time.Millisecond,
		Checkin:         20 * time.Millisecond,
		CheckinDue:      time.Hour,
	}
	seq := NewSequencer(advisor, store, delays, time.Second)

	seq.Onboard(context.Background(), "c1", "k1")

	// The welcome insights and monitoring bookkeeping run within the call.
	insights := advisor.InsightCalls()
	if len(insights) != 1 {
		t.Fatalf("insight calls = %d, want 1", len(insights))
	}
	if insights[0].ClientID != "c1" || insights[0].CoachID != "k1" {
		t.Errorf("unexpected insight call: %+v", insights[0])
	}
	if insights[0].InsightTypes[0] != "welcome" || insights[0].TimeRange != "7d" {
		t.Errorf("unexpected welcome parameters: %+v", insights[0])
	}

	plan, ok := store.Plan("c1")
	if !ok {
		t.Fatal("monitoring plan not armed")
	}
	if plan.PlateauWeeks != 2 || plan.AdherenceFloor != 70 || plan.MotivationFloor != 5 {
		t.Errorf("unexpected monitoring plan: %+v", plan)
	}
	if len(plan.Metrics) == 0 {
		t.Error("monitoring plan should name metrics")
	}

	// The deferred steps fire on their own after the configured delays.
	waitFor(t, "initial recommendations", func() bool {
		return len(advisor.RecommendationCalls()) == 1
	})
	recs := advisor.RecommendationCalls()
	if recs[0].UserID != "c1" || recs[0].ContextType != "onboarding" {
		t.Errorf("unexpected recommendation call: %+v", recs[0])
	}

	waitFor(t, "first check-in", func() bool {
		return len(store.CoachingActions()) == 1
	})
	checkin := store.CoachingActions()[0]
	if checkin.ClientID != "c1" || checkin.CoachID != "k1" || checkin.Priority != "high" {
		t.Errorf("unexpected check-in action: %+v", checkin)
	}
	if checkin.DueAt == nil {
		t.Fatal("check-in should carry a due time")
	}
	if due := time.Until(*checkin.DueAt); due < 50*time.Minute || due > 70*time.Minute {
		t.Errorf("check-in due in %s, want about an hour", due)
	}
}

// A failing immediate step never aborts the sequence.
func TestOnboard_StepFailureIsolated(t *testing.T) {
	advisor := &collab.StubAdvisor{FailInsights: errTest}
	store := collab.NewMemoryStore()
	delays := Delays{
		Recommendations: 5 * time.Millisecond,
		Checkin:         5 * time.Millisecond,
		CheckinDue:      time.Hour,
	}
	seq := NewSequencer(advisor, store, delays, time.Second)

	seq.Onboard(context.Background(), "c1", "k1")

	if _, ok := store.Plan("c1"); !ok {
		t.Error("monitoring should still be armed after the insights step fails")
	}
	waitFor(t, "deferred steps", func() bool {
		return len(advisor.RecommendationCalls()) == 1 && len(store.CoachingActions()) == 1
	})
}
