package condition

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/coachkit/automation/internal/flow"
)

// Evaluate applies a single condition to the context.
// Every failure mode — missing field, type mismatch, unparseable timestamp —
// evaluates to false rather than erroring, so one bad condition can never
// block unrelated rules.
func Evaluate(c Condition, ctx flow.Context, now time.Time) bool {
	val, ok := ctx.Resolve(SplitPath(c.Field))
	if !ok {
		return false
	}

	switch c.Op {
	case OpEquals:
		return equal(val, c.Value)
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		return numericCompare(c.Op, val, c.Value)
	case OpContains:
		return containsValue(val, c.Value)
	case OpOlderThan:
		return olderThan(val, c.Value, now)
	}
	return false
}

// EvaluateAll applies AND semantics, short-circuiting on the first failing
// condition. An empty list is vacuously true.
func EvaluateAll(conds []Condition, ctx flow.Context, now time.Time) bool {
	for _, c := range conds {
		if !Evaluate(c, ctx, now) {
			return false
		}
	}
	return true
}

// toFloat64 coerces a numeric value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// equal does deep-ish equality: numeric types are compared by value.
func equal(left, right any) bool {
	lf, lok := toFloat64(left)
	rf, rok := toFloat64(right)
	if lok && rok {
		return math.Abs(lf-rf) < 1e-9
	}
	if lok != rok {
		return false
	}
	if lb, ok := left.(bool); ok {
		rb, ok := right.(bool)
		return ok && lb == rb
	}
	// string fallback
	return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right)
}

func numericCompare(op Operator, left, right any) bool {
	lf, lok := toFloat64(left)
	rf, rok := toFloat64(right)
	if !lok || !rok {
		return false
	}
	switch op {
	case OpGreaterThan:
		return lf > rf
	case OpGreaterThanOrEqual:
		return lf >= rf
	case OpLessThan:
		return lf < rf
	case OpLessThanOrEqual:
		return lf <= rf
	}
	return false
}

// containsValue tests element membership when the field resolved to a
// sequence, substring containment otherwise.
func containsValue(field, want any) bool {
	switch seq := field.(type) {
	case []any:
		for _, el := range seq {
			if equal(el, want) {
				return true
			}
		}
		return false
	case []string:
		for _, el := range seq {
			if equal(el, want) {
				return true
			}
		}
		return false
	}
	return strings.Contains(fmt.Sprintf("%v", field), fmt.Sprintf("%v", want))
}

// olderThan holds iff the field timestamp is strictly before now minus the
// configured age. Unparseable values fail the condition.
func olderThan(field, value any, now time.Time) bool {
	age, ok := asAge(value)
	if !ok {
		return false
	}
	ts, ok := asTime(field)
	if !ok {
		return false
	}
	return ts.Before(age.Threshold(now))
}

// asAge accepts Age directly or the decoded {days, hours} map shape that
// YAML and JSON produce.
func asAge(v any) (Age, bool) {
	switch a := v.(type) {
	case Age:
		return a, true
	case map[string]any:
		var age Age
		found := false
		if d, ok := toFloat64(a["days"]); ok {
			age.Days = int(d)
			found = true
		}
		if h, ok := toFloat64(a["hours"]); ok {
			age.Hours = int(h)
			found = true
		}
		return age, found
	}
	return Age{}, false
}

// asTime accepts time.Time or an RFC 3339 string.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
