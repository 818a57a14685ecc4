package alerts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
)

type datedViolation struct {
	date time.Time
	v    *biodiversity.Violation
}

func repeatOffenderAlerts(rule *Rule, trig RepeatOffenderTrigger, violations []biodiversity.Violation) []Triggered {
	var operators []string
	byOperator := make(map[string][]datedViolation)
	for i := range violations {
		v := &violations[i]
		if !flight.IsNamedOperator(v.Operator) {
			continue
		}
		d, ok := flight.ParseDate(v.OperationDate)
		if !ok {
			continue
		}
		if _, seen := byOperator[v.Operator]; !seen {
			operators = append(operators, v.Operator)
		}
		byOperator[v.Operator] = append(byOperator[v.Operator], datedViolation{d, v})
	}

	var out []Triggered
	for _, op := range operators {
		list := byOperator[op]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].date.Before(list[j].date)
		})

		window := firstWindow(list, trig.MinViolations, trig.PeriodDays)
		if window == nil {
			continue
		}
		out = append(out, repeatOffenderAlert(rule, trig, op, window))
	}
	return out
}

// firstWindow returns the violations of the earliest window of periodDays
// days holding at least minViolations entries, or nil. list must be sorted by
// date.
func firstWindow(list []datedViolation, minViolations, periodDays int) []datedViolation {
	if len(list) == 0 || len(list) < minViolations {
		return nil
	}

	period := time.Duration(periodDays) * 24 * time.Hour

	// Whole history fits in one period.
	if list[len(list)-1].date.Sub(list[0].date) <= period {
		return list
	}

	for i := range list {
		end := list[i].date.Add(period)
		var window []datedViolation
		for _, dv := range list {
			if !dv.date.Before(list[i].date) && !dv.date.After(end) {
				window = append(window, dv)
			}
		}
		if len(window) >= minViolations {
			return window
		}
	}
	return nil
}

func repeatOffenderAlert(rule *Rule, trig RepeatOffenderTrigger, operator string, window []datedViolation) Triggered {
	first := window[0].v
	last := window[len(window)-1].v

	var regs []string
	seen := make(map[string]bool)
	for _, dv := range window {
		r := dv.v.Registration
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		regs = append(regs, r)
	}

	a := newAlert(rule, operatorSubject(operator))
	a.Message = fmt.Sprintf("%s has %d violations within %d days", operator, len(window), trig.PeriodDays)
	a.Timestamp = Timestamp(last.OperationDate, last.OperationHour)
	a.Operator = operator
	a.Details = fmt.Sprintf("Between %s and %s", first.OperationDate, last.OperationDate)
	if len(regs) > 0 {
		a.Details += "; aircraft: " + strings.Join(regs, ", ")
	}
	return a
}

// operatorSubject keys an alert to the exact operator name: a readable slug
// followed by a digest, so names that slug alike still get distinct ids.
func operatorSubject(operator string) string {
	sum := sha256.Sum256([]byte(operator))
	digest := hex.EncodeToString(sum[:8])
	if s := slug(operator); s != "" {
		return s + "-" + digest
	}
	return digest
}

// slug lowercases s and collapses runs of non-alphanumerics to '-'.
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
