package condition

import (
	"fmt"
	"strings"
	"time"
)

// Operator is a comparison applied between a resolved field and a rule value.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpGreaterThan        Operator = "greaterThan"
	OpLessThan           Operator = "lessThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpContains           Operator = "contains"
	OpOlderThan          Operator = "olderThan"
)

// ParseOperator validates an operator string from config or the API.
func ParseOperator(s string) (Operator, error) {
	switch op := Operator(s); op {
	case OpEquals, OpGreaterThan, OpLessThan, OpGreaterThanOrEqual,
		OpLessThanOrEqual, OpContains, OpOlderThan:
		return op, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Condition is a single boolean guard: resolved field <op> value.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Age is the value shape for olderThan: "now minus Days and Hours".
type Age struct {
	Days  int
	Hours int
}

// Threshold returns now minus the age.
func (a Age) Threshold(now time.Time) time.Time {
	return now.Add(-time.Duration(a.Days)*24*time.Hour - time.Duration(a.Hours)*time.Hour)
}

// SplitPath splits a dotted field path into its segments.
func SplitPath(field string) []string {
	return strings.Split(field, ".")
}
