package reference

import (
	"sort"
	"strings"
)

// Table is an immutable reference range lookup keyed by canonical
// (upper-case) test name. It is built once at startup; there is no runtime
// mutation path.
type Table struct {
	ranges map[string]*ReferenceRange
}

// NewTable builds a Table from the given ranges, canonicalising test names
// to upper case. Later duplicates replace earlier ones.
func NewTable(ranges []ReferenceRange) *Table {
	m := make(map[string]*ReferenceRange, len(ranges))
	for i := range ranges {
		r := ranges[i]
		r.TestName = strings.ToUpper(strings.TrimSpace(r.TestName))
		m[r.TestName] = &r
	}
	return &Table{ranges: m}
}

// DefaultTable builds the Table from the built-in clinical range set.
func DefaultTable() *Table {
	return NewTable(defaultRanges)
}

// Lookup returns the range for the exact upper-cased test name.
func (t *Table) Lookup(testName string) (*ReferenceRange, bool) {
	r, ok := t.ranges[strings.ToUpper(strings.TrimSpace(testName))]
	return r, ok
}

// All returns every loaded range sorted by test name.
func (t *Table) All() []ReferenceRange {
	out := make([]ReferenceRange, 0, len(t.ranges))
	for _, r := range t.ranges {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestName < out[j].TestName })
	return out
}

// Len returns the number of loaded ranges.
func (t *Table) Len() int { return len(t.ranges) }

func f(v float64) *float64 { return &v }

func bounds(min, max float64) *Bounds { return &Bounds{Min: f(min), Max: f(max)} }

func minOnly(min float64) *Bounds { return &Bounds{Min: f(min)} }

func maxOnly(max float64) *Bounds { return &Bounds{Max: f(max)} }

// defaultRanges is the built-in clinical reference range set. Values follow
// the lab's adult SOP; paediatric and age-banded ranges are not modelled.
var defaultRanges = []ReferenceRange{
	// -- Haematology (full blood count and friends) --
	{TestName: "HAEMOGLOBIN", Category: CategoryHaematology, Unit: "g/dL",
		Male: bounds(13.0, 17.0), Female: bounds(12.0, 15.5)},
	{TestName: "RED CELL COUNT", Category: CategoryHaematology, Unit: "x10^12/L",
		Male: bounds(4.5, 5.5), Female: bounds(3.8, 4.8)},
	{TestName: "HAEMATOCRIT", Category: CategoryHaematology, Unit: "%",
		Male: bounds(40, 50), Female: bounds(36, 46)},
	{TestName: "MCV", Category: CategoryHaematology, Unit: "fL",
		General: bounds(80, 100)},
	{TestName: "MCH", Category: CategoryHaematology, Unit: "pg",
		General: bounds(27, 32)},
	{TestName: "MCHC", Category: CategoryHaematology, Unit: "g/dL",
		General: bounds(32, 36)},
	{TestName: "RDW", Category: CategoryHaematology, Unit: "%",
		General: bounds(11.5, 14.5)},
	{TestName: "WHITE CELL COUNT", Category: CategoryHaematology, Unit: "x10^9/L",
		General: bounds(4.0, 11.0)},
	{TestName: "PLATELETS", Category: CategoryHaematology, Unit: "x10^9/L",
		General: bounds(150, 400)},
	{TestName: "NEUTROPHILS", Category: CategoryHaematology, Unit: "x10^9/L",
		General: bounds(2.0, 7.5)},
	{TestName: "LYMPHOCYTES", Category: CategoryHaematology, Unit: "x10^9/L",
		General: bounds(1.0, 4.0)},
	{TestName: "MONOCYTES", Category: CategoryHaematology, Unit: "x10^9/L",
		General: bounds(0.2, 1.0)},
	{TestName: "EOSINOPHILS", Category: CategoryHaematology, Unit: "x10^9/L",
		General: maxOnly(0.5)},
	{TestName: "BASOPHILS", Category: CategoryHaematology, Unit: "x10^9/L",
		General: maxOnly(0.1)},
	{TestName: "ESR", Category: CategoryHaematology, Unit: "mm/hr",
		Male: maxOnly(15), Female: maxOnly(20)},

	// -- Biochemistry --
	{TestName: "CREATININE", Category: CategoryBiochemistry, Unit: "umol/L",
		Male: bounds(62, 106), Female: bounds(44, 80)},
	{TestName: "UREA", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(2.5, 7.8)},
	{TestName: "SODIUM", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(135, 145)},
	{TestName: "POTASSIUM", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(3.5, 5.1)},
	{TestName: "CHLORIDE", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(98, 107)},
	{TestName: "BICARBONATE", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(22, 29)},
	{TestName: "GLUCOSE FASTING", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(3.9, 5.5)},
	{TestName: "HBA1C", Category: CategoryBiochemistry, Unit: "mmol/mol",
		General: bounds(20, 42)},
	{TestName: "CALCIUM", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(2.15, 2.55)},
	{TestName: "MAGNESIUM", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(0.7, 1.0)},
	{TestName: "PHOSPHATE", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: bounds(0.8, 1.45)},
	{TestName: "TOTAL PROTEIN", Category: CategoryBiochemistry, Unit: "g/L",
		General: bounds(60, 80)},
	{TestName: "ALBUMIN", Category: CategoryBiochemistry, Unit: "g/L",
		General: bounds(35, 50)},
	{TestName: "BILIRUBIN TOTAL", Category: CategoryBiochemistry, Unit: "umol/L",
		General: maxOnly(21)},
	{TestName: "ALT", Category: CategoryBiochemistry, Unit: "U/L",
		Male: maxOnly(41), Female: maxOnly(33)},
	{TestName: "AST", Category: CategoryBiochemistry, Unit: "U/L",
		General: maxOnly(40)},
	{TestName: "ALP", Category: CategoryBiochemistry, Unit: "U/L",
		General: bounds(30, 120)},
	{TestName: "GGT", Category: CategoryBiochemistry, Unit: "U/L",
		Male: maxOnly(60), Female: maxOnly(40)},
	{TestName: "CHOLESTEROL TOTAL", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: maxOnly(5.2)},
	{TestName: "LDL CHOLESTEROL", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: maxOnly(3.4)},
	{TestName: "HDL CHOLESTEROL", Category: CategoryBiochemistry, Unit: "mmol/L",
		Male: minOnly(1.0), Female: minOnly(1.2)},
	{TestName: "TRIGLYCERIDES", Category: CategoryBiochemistry, Unit: "mmol/L",
		General: maxOnly(1.7)},
	{TestName: "URIC ACID", Category: CategoryBiochemistry, Unit: "umol/L",
		Male: bounds(200, 430), Female: bounds(140, 360)},
	{TestName: "CRP", Category: CategoryBiochemistry, Unit: "mg/L",
		General: maxOnly(5)},

	// -- Endocrinology --
	{TestName: "TSH", Category: CategoryEndocrinology, Unit: "mIU/L",
		General: bounds(0.27, 4.2)},
	{TestName: "FREE T4", Category: CategoryEndocrinology, Unit: "pmol/L",
		General: bounds(12, 22)},
	{TestName: "FREE T3", Category: CategoryEndocrinology, Unit: "pmol/L",
		General: bounds(3.1, 6.8)},
	{TestName: "TESTOSTERONE", Category: CategoryEndocrinology, Unit: "nmol/L",
		Male: bounds(8.6, 29.0), Female: bounds(0.3, 1.7)},
	{TestName: "OESTRADIOL", Category: CategoryEndocrinology, Unit: "pmol/L",
		Male: bounds(28, 156), Female: bounds(45, 850),
		Notes: "female range spans the menstrual cycle"},
	{TestName: "PROLACTIN", Category: CategoryEndocrinology, Unit: "mIU/L",
		Male: bounds(86, 324), Female: bounds(102, 496)},
	{TestName: "CORTISOL MORNING", Category: CategoryEndocrinology, Unit: "nmol/L",
		General: bounds(133, 537), Notes: "sample collected 06:00-10:00"},
	{TestName: "FSH", Category: CategoryEndocrinology, Unit: "IU/L",
		Male: bounds(1.5, 12.4), Female: bounds(3.5, 12.5),
		Notes: "female follicular phase"},
	{TestName: "LH", Category: CategoryEndocrinology, Unit: "IU/L",
		Male: bounds(1.7, 8.6), Female: bounds(2.4, 12.6),
		Notes: "female follicular phase"},
	{TestName: "PSA", Category: CategoryEndocrinology, Unit: "ug/L",
		Male: maxOnly(4.0)},
	{TestName: "VITAMIN D", Category: CategoryEndocrinology, Unit: "nmol/L",
		General: bounds(50, 125)},
	{TestName: "INSULIN FASTING", Category: CategoryEndocrinology, Unit: "mIU/L",
		General: bounds(2.6, 24.9)},

	// -- Immunology --
	{TestName: "IGG", Category: CategoryImmunology, Unit: "g/L",
		General: bounds(7.0, 16.0)},
	{TestName: "IGA", Category: CategoryImmunology, Unit: "g/L",
		General: bounds(0.7, 4.0)},
	{TestName: "IGM", Category: CategoryImmunology, Unit: "g/L",
		General: bounds(0.4, 2.3)},
	{TestName: "IGE", Category: CategoryImmunology, Unit: "kU/L",
		General: maxOnly(100)},
	{TestName: "COMPLEMENT C3", Category: CategoryImmunology, Unit: "g/L",
		General: bounds(0.9, 1.8)},
	{TestName: "COMPLEMENT C4", Category: CategoryImmunology, Unit: "g/L",
		General: bounds(0.1, 0.4)},
	{TestName: "CD4 COUNT", Category: CategoryImmunology, Unit: "cells/uL",
		General: bounds(500, 1500)},
	{TestName: "FERRITIN", Category: CategoryImmunology, Unit: "ug/L",
		Male: bounds(30, 400), Female: bounds(13, 150)},
	{TestName: "VITAMIN B12", Category: CategoryImmunology, Unit: "ng/L",
		General: bounds(197, 771)},
	{TestName: "FOLATE", Category: CategoryImmunology, Unit: "ug/L",
		General: bounds(3.9, 26.8)},
	{TestName: "RHEUMATOID FACTOR", Category: CategoryImmunology, Unit: "IU/mL",
		General: maxOnly(14)},
	{TestName: "ANTI-TPO", Category: CategoryImmunology, Unit: "kIU/L",
		General: maxOnly(34)},
}
