package alerts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpx_compliance/internal/biodiversity"
)

func violationsOn(operator string, days ...int) []biodiversity.Violation {
	var out []biodiversity.Violation
	for _, d := range days {
		out = append(out, biodiversity.Violation{
			FlightID:      fmt.Sprintf("%s-%d", operator, d),
			Registration:  "N" + operator,
			Operator:      operator,
			OperationDate: fmt.Sprintf("2025-03-%02d", d),
			OperationHour: 21,
		})
	}
	return out
}

func TestRepeatOffenderSlidingWindow(t *testing.T) {
	violations := violationsOn("Blade", 1, 2, 10, 11, 12)
	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 7})

	got := Evaluate(nil, violations, []Rule{r}, nil)
	require.Len(t, got, 1)

	a := got[0]
	assert.Equal(t, "alert-repeat-blade-b300137c3d8c1e70", a.ID)
	assert.Equal(t, "Blade", a.Operator)
	assert.Contains(t, a.Message, "3 violations within 7 days")
	assert.Equal(t, "Between 2025-03-10 and 2025-03-12; aircraft: NBlade", a.Details)
	assert.Equal(t, "2025-03-12T21:00:00", a.Timestamp)
}

func TestRepeatOffenderFullSpan(t *testing.T) {
	// Unsorted input within one period.
	violations := violationsOn("Wheels Up", 5, 1, 3, 2)
	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 7})

	got := Evaluate(nil, violations, []Rule{r}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "alert-repeat-wheels-up-6f9b34d42db4b01f", got[0].ID)
	assert.Contains(t, got[0].Message, "4 violations")
	assert.Equal(t, "2025-03-05T21:00:00", got[0].Timestamp)
}

func TestRepeatOffenderFirstWindowOnly(t *testing.T) {
	// Two qualifying bursts; only the earlier one is reported.
	violations := violationsOn("NetJets", 1, 2, 3, 20, 21, 22)
	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 5})

	got := Evaluate(nil, violations, []Rule{r}, nil)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Details, "2025-03-01 and 2025-03-03")
}

func TestRepeatOffenderWindowInclusive(t *testing.T) {
	// Days 1 and 8 are exactly 7 days apart.
	violations := violationsOn("Ops", 1, 8, 20)
	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 2, PeriodDays: 7})

	got := Evaluate(nil, violations, []Rule{r}, nil)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Details, "2025-03-01 and 2025-03-08")
}

func TestRepeatOffenderBelowMinimum(t *testing.T) {
	violations := violationsOn("Sparse", 1, 10, 20, 30)
	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 2, PeriodDays: 5})
	assert.Empty(t, Evaluate(nil, violations, []Rule{r}, nil))

	r = rule("repeat", RepeatOffenderTrigger{MinViolations: 5, PeriodDays: 365})
	assert.Empty(t, Evaluate(nil, violations, []Rule{r}, nil))
}

func TestRepeatOffenderSkipsUnnamedOperators(t *testing.T) {
	var violations []biodiversity.Violation
	violations = append(violations, violationsOn("Unknown", 1, 2, 3)...)
	violations = append(violations, violationsOn("Private", 1, 2, 3)...)
	violations = append(violations, violationsOn("", 1, 2, 3)...)

	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 7})
	assert.Empty(t, Evaluate(nil, violations, []Rule{r}, nil))
}

func TestRepeatOffenderPerOperator(t *testing.T) {
	var violations []biodiversity.Violation
	violations = append(violations, violationsOn("Blade", 1, 2, 3)...)
	violations = append(violations, violationsOn("NetJets", 4, 5, 6)...)
	violations = append(violations, violationsOn("Blade", 4)...)

	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 7})
	got := Evaluate(nil, violations, []Rule{r}, nil)
	assert.ElementsMatch(t, []string{"alert-repeat-blade-b300137c3d8c1e70", "alert-repeat-netjets-42bb7b1832ab6d54"}, ids(got))
}

func TestRepeatOffenderIgnoresBadDates(t *testing.T) {
	violations := violationsOn("Blade", 1, 2)
	violations = append(violations, biodiversity.Violation{Operator: "Blade", OperationDate: "garbage"})

	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 7})
	assert.Empty(t, Evaluate(nil, violations, []Rule{r}, nil))
}

func TestRepeatOffenderDistinctOperatorIDs(t *testing.T) {
	var violations []biodiversity.Violation
	for _, op := range []string{"Blade, Inc.", "Blade Inc", "BLADE INC", "Äero", "Øst"} {
		violations = append(violations, violationsOn(op, 1, 2, 3)...)
	}

	r := rule("repeat", RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 7})
	got := Evaluate(nil, violations, []Rule{r}, nil)
	require.Len(t, got, 5)

	operators := make(map[string]bool)
	for _, a := range got {
		operators[a.Operator] = true
	}
	assert.Len(t, operators, 5)
	assert.Contains(t, ids(got), "alert-repeat-blade-inc-3728bda5dd36f3d2")
	assert.Contains(t, ids(got), "alert-repeat-blade-inc-406465922a9b6f9f")
	assert.Contains(t, ids(got), "alert-repeat-a7f6c3b7f31eaa92")
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"NetJets", "netjets"},
		{"Wheels Up", "wheels-up"},
		{"  Blade / Fly  Blade ", "blade-fly-blade"},
		{"XO-Jet, Inc.", "xo-jet-inc"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
