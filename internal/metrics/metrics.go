package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_events_processed_total",
		Help: "Total number of incoming events and data changes dispatched.",
	})

	RulesFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_rules_fired_total",
		Help: "Total number of rule firings, labelled by rule ID.",
	}, []string{"rule_id"})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_actions_executed_total",
		Help: "Total number of actions executed, labelled by kind and status.",
	}, []string{"kind", "status"})

	SweepsRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_sweeps_run_total",
		Help: "Total number of scheduled sweeps executed.",
	})

	SweepSubjects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_sweep_subjects_total",
		Help: "Total number of subject evaluations performed by sweeps.",
	})

	OnboardingSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_onboarding_steps_total",
		Help: "Total number of onboarding steps attempted, labelled by step and status.",
	}, []string{"step", "status"})

	ActionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "automation_action_duration_ms",
		Help:    "Single action execution latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})
)
