package condition

import (
	"testing"
	"time"

	"github.com/coachkit/automation/internal/flow"
)

var now = time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

func ctx(kv ...any) flow.Context {
	m := make(flow.Context)
	for i := 0; i < len(kv)-1; i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

type evalCase struct {
	name string
	cond Condition
	ctx  flow.Context
	want bool
}

func TestEvaluate(t *testing.T) {
	cases := []evalCase{
		// equals
		{
			name: "equals number true",
			cond: Condition{Field: "adherence_rate", Op: OpEquals, Value: 70},
			ctx:  ctx("adherence_rate", float64(70)),
			want: true,
		},
		{
			name: "equals string false",
			cond: Condition{Field: "status", Op: OpEquals, Value: "active"},
			ctx:  ctx("status", "paused"),
			want: false,
		},
		{
			name: "equals bool",
			cond: Condition{Field: "premium", Op: OpEquals, Value: true},
			ctx:  ctx("premium", true),
			want: true,
		},
		// numeric comparisons
		{
			name: "lessThan true",
			cond: Condition{Field: "adherence_rate", Op: OpLessThan, Value: 70},
			ctx:  ctx("adherence_rate", float64(60)),
			want: true,
		},
		{
			name: "lessThan false",
			cond: Condition{Field: "adherence_rate", Op: OpLessThan, Value: 70},
			ctx:  ctx("adherence_rate", float64(80)),
			want: false,
		},
		{
			name: "greaterThan int field",
			cond: Condition{Field: "session_count", Op: OpGreaterThan, Value: 2},
			ctx:  ctx("session_count", 3),
			want: true,
		},
		{
			name: "greaterThanOrEqual boundary",
			cond: Condition{Field: "session_count", Op: OpGreaterThanOrEqual, Value: 3},
			ctx:  ctx("session_count", 3),
			want: true,
		},
		{
			name: "lessThanOrEqual boundary",
			cond: Condition{Field: "session_count", Op: OpLessThanOrEqual, Value: 3},
			ctx:  ctx("session_count", 3),
			want: true,
		},
		// incompatible types fail closed
		{
			name: "numeric compare on string fails closed",
			cond: Condition{Field: "adherence_rate", Op: OpGreaterThan, Value: 50},
			ctx:  ctx("adherence_rate", "high"),
			want: false,
		},
		{
			name: "numeric compare on non-numeric value fails closed",
			cond: Condition{Field: "adherence_rate", Op: OpGreaterThan, Value: "fifty"},
			ctx:  ctx("adherence_rate", float64(60)),
			want: false,
		},
		// missing and nested fields
		{
			name: "missing field fails closed",
			cond: Condition{Field: "missing", Op: OpEquals, Value: 1},
			ctx:  ctx("adherence_rate", float64(60)),
			want: false,
		},
		{
			name: "nested field resolves",
			cond: Condition{Field: "goal.progress_percentage", Op: OpGreaterThan, Value: 90},
			ctx:  ctx("goal", map[string]any{"progress_percentage": float64(95)}),
			want: true,
		},
		{
			name: "missing nested leaf fails closed",
			cond: Condition{Field: "goal.progress_percentage", Op: OpGreaterThan, Value: 90},
			ctx:  ctx("goal", map[string]any{"status": "active"}),
			want: false,
		},
		{
			name: "path through scalar fails closed",
			cond: Condition{Field: "goal.progress.value", Op: OpEquals, Value: 1},
			ctx:  ctx("goal", map[string]any{"progress": 5}),
			want: false,
		},
		// contains on sequences and scalars
		{
			name: "contains sequence member",
			cond: Condition{Field: "tags", Op: OpContains, Value: "b"},
			ctx:  ctx("tags", []any{"a", "b", "c"}),
			want: true,
		},
		{
			name: "contains sequence non-member",
			cond: Condition{Field: "tags", Op: OpContains, Value: "d"},
			ctx:  ctx("tags", []any{"a", "b", "c"}),
			want: false,
		},
		{
			name: "contains string slice member",
			cond: Condition{Field: "tags", Op: OpContains, Value: "vip"},
			ctx:  ctx("tags", []string{"vip", "early"}),
			want: true,
		},
		{
			name: "contains scalar substring",
			cond: Condition{Field: "plan", Op: OpContains, Value: "premium"},
			ctx:  ctx("plan", "premium-annual"),
			want: true,
		},
		{
			name: "contains scalar no substring",
			cond: Condition{Field: "plan", Op: OpContains, Value: "premium"},
			ctx:  ctx("plan", "basic"),
			want: false,
		},
		// olderThan
		{
			name: "olderThan days true",
			cond: Condition{Field: "last_activity", Op: OpOlderThan, Value: map[string]any{"days": 3}},
			ctx:  ctx("last_activity", now.Add(-5*24*time.Hour)),
			want: true,
		},
		{
			name: "olderThan days false",
			cond: Condition{Field: "last_activity", Op: OpOlderThan, Value: map[string]any{"days": 3}},
			ctx:  ctx("last_activity", now.Add(-24*time.Hour)),
			want: false,
		},
		{
			name: "olderThan hours",
			cond: Condition{Field: "last_activity", Op: OpOlderThan, Value: map[string]any{"hours": 6}},
			ctx:  ctx("last_activity", now.Add(-7*time.Hour)),
			want: true,
		},
		{
			name: "olderThan RFC3339 string field",
			cond: Condition{Field: "last_activity", Op: OpOlderThan, Value: map[string]any{"days": 1}},
			ctx:  ctx("last_activity", now.Add(-48*time.Hour).Format(time.RFC3339)),
			want: true,
		},
		{
			name: "olderThan unparseable timestamp fails closed",
			cond: Condition{Field: "last_activity", Op: OpOlderThan, Value: map[string]any{"days": 1}},
			ctx:  ctx("last_activity", "yesterday"),
			want: false,
		},
		{
			name: "olderThan malformed value fails closed",
			cond: Condition{Field: "last_activity", Op: OpOlderThan, Value: "3 days"},
			ctx:  ctx("last_activity", now.Add(-5*24*time.Hour)),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.cond, tc.ctx, now); got != tc.want {
				t.Errorf("Evaluate(%+v) = %v, want %v", tc.cond, got, tc.want)
			}
		})
	}
}

// Exactly at the threshold the condition must be false (strict inequality);
// one second earlier it must be true.
func TestEvaluate_OlderThanBoundary(t *testing.T) {
	cond := Condition{Field: "last_activity", Op: OpOlderThan, Value: map[string]any{"days": 3}}
	threshold := now.Add(-3 * 24 * time.Hour)

	if Evaluate(cond, ctx("last_activity", threshold), now) {
		t.Error("timestamp exactly at threshold should evaluate false")
	}
	if !Evaluate(cond, ctx("last_activity", threshold.Add(-time.Second)), now) {
		t.Error("timestamp one second before threshold should evaluate true")
	}
}

func TestEvaluateAll(t *testing.T) {
	data := ctx("adherence_rate", float64(60), "session_count", 3)

	passing := []Condition{
		{Field: "adherence_rate", Op: OpLessThan, Value: 70},
		{Field: "session_count", Op: OpGreaterThan, Value: 1},
	}
	if !EvaluateAll(passing, data, now) {
		t.Error("all-true conditions should evaluate true")
	}

	// A single false condition forces overall false regardless of position.
	for i := 0; i <= len(passing); i++ {
		conds := make([]Condition, 0, len(passing)+1)
		conds = append(conds, passing[:i]...)
		conds = append(conds, Condition{Field: "adherence_rate", Op: OpGreaterThan, Value: 90})
		conds = append(conds, passing[i:]...)
		if EvaluateAll(conds, data, now) {
			t.Errorf("false condition at position %d should force overall false", i)
		}
	}

	if !EvaluateAll(nil, data, now) {
		t.Error("empty condition list should be vacuously true")
	}
}

func TestParseOperator(t *testing.T) {
	for _, valid := range []string{
		"equals", "greaterThan", "lessThan", "greaterThanOrEqual",
		"lessThanOrEqual", "contains", "olderThan",
	} {
		if _, err := ParseOperator(valid); err != nil {
			t.Errorf("ParseOperator(%q) error: %v", valid, err)
		}
	}
	if _, err := ParseOperator("regex"); err == nil {
		t.Error("expected error for unknown operator")
	}
}
