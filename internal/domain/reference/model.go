// Package reference holds the clinical reference range table and the range
// evaluator that classifies a measured analyte value against it.
package reference

// Category groups reference ranges by laboratory discipline.
type Category string

const (
	CategoryImmunology    Category = "IMMUNOLOGY"
	CategoryEndocrinology Category = "ENDOCRINOLOGY"
	CategoryBiochemistry  Category = "BIOCHEMISTRY"
	CategoryHaematology   Category = "HAEMATOLOGY"
)

// Bounds is a closed numeric interval. A nil Min or Max means that side is
// unbounded in the source data.
type Bounds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// complete reports whether the bounds carry at least one usable limit.
func (b *Bounds) complete() bool {
	return b != nil && (b.Min != nil || b.Max != nil)
}

// ReferenceRange is a clinically defined normal interval for a lab analyte,
// optionally stratified by sex with a general fallback. At least one of
// Male, Female, General must be present for the range to be usable.
type ReferenceRange struct {
	TestName string   `json:"test_name"`
	Category Category `json:"category"`
	Unit     string   `json:"unit"`
	Male     *Bounds  `json:"male,omitempty"`
	Female   *Bounds  `json:"female,omitempty"`
	General  *Bounds  `json:"general,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Status classifies a measured value against a resolved range.
type Status string

const (
	StatusLow     Status = "LOW"
	StatusHigh    Status = "HIGH"
	StatusInRange Status = "IN_RANGE"
	StatusUnknown Status = "UNKNOWN"
)

// Evaluation is the outcome of classifying one value against one range.
type Evaluation struct {
	TestName string          `json:"test_name"`
	Value    float64         `json:"value"`
	Status   Status          `json:"status"`
	Range    *ReferenceRange `json:"range,omitempty"`
	Message  string          `json:"message"`
}
