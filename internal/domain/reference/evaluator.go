package reference

import (
	"fmt"
	"math"
	"strings"
)

// Sex markers accepted by Evaluate. Anything else resolves to the general
// bounds.
const (
	SexMale   = "M"
	SexFemale = "F"
)

// Evaluate classifies value against the named reference range. Boundary
// values are IN_RANGE. A missing range, incomplete bounds, or a NaN value
// yields UNKNOWN; Evaluate never panics and never returns an error — an
// unresolved range must not block a result from being recorded, it only
// flags the value for human review.
func (t *Table) Evaluate(testName string, value float64, sex string) Evaluation {
	ev := Evaluation{
		TestName: strings.ToUpper(strings.TrimSpace(testName)),
		Value:    value,
	}

	if math.IsNaN(value) {
		ev.Status = StatusUnknown
		ev.Message = fmt.Sprintf("%s: value is not a number", ev.TestName)
		return ev
	}

	r, ok := t.Lookup(testName)
	if !ok {
		ev.Status = StatusUnknown
		ev.Message = fmt.Sprintf("reference range not found for %s", ev.TestName)
		return ev
	}
	ev.Range = r

	b := r.resolve(sex)
	if !b.complete() {
		ev.Status = StatusUnknown
		ev.Message = fmt.Sprintf("reference range for %s is incomplete", ev.TestName)
		return ev
	}

	switch {
	case b.Min != nil && value < *b.Min:
		ev.Status = StatusLow
		ev.Message = fmt.Sprintf("%s %g %s is below the reference range %s",
			ev.TestName, value, r.Unit, b.describe())
	case b.Max != nil && value > *b.Max:
		ev.Status = StatusHigh
		ev.Message = fmt.Sprintf("%s %g %s is above the reference range %s",
			ev.TestName, value, r.Unit, b.describe())
	default:
		ev.Status = StatusInRange
		ev.Message = fmt.Sprintf("%s %g %s is within the reference range %s",
			ev.TestName, value, r.Unit, b.describe())
	}
	return ev
}

// resolve picks the applicable bounds: sex-specific when present, general
// otherwise.
func (r *ReferenceRange) resolve(sex string) *Bounds {
	switch strings.ToUpper(strings.TrimSpace(sex)) {
	case SexMale:
		if r.Male != nil {
			return r.Male
		}
	case SexFemale:
		if r.Female != nil {
			return r.Female
		}
	}
	return r.General
}

func (b *Bounds) describe() string {
	switch {
	case b.Min != nil && b.Max != nil:
		return fmt.Sprintf("%g to %g", *b.Min, *b.Max)
	case b.Min != nil:
		return fmt.Sprintf(">= %g", *b.Min)
	case b.Max != nil:
		return fmt.Sprintf("<= %g", *b.Max)
	default:
		return "(none)"
	}
}
