package results

import (
	"fmt"
	"strings"

	"github.com/cianogeneway/lims/internal/domain/reference"
)

// pathologyTests maps a pathology workflow subtype to the reference-table
// test name it is evaluated against. FBC is absent: it is a panel, handled
// by validateFBC.
var pathologyTests = map[string]string{
	"TSH":           "TSH",
	"FREE_T4":       "FREE T4",
	"FREE_T3":       "FREE T3",
	"PSA":           "PSA",
	"CRP":           "CRP",
	"FERRITIN":      "FERRITIN",
	"VITAMIN_D":     "VITAMIN D",
	"VITAMIN_B12":   "VITAMIN B12",
	"FOLATE":        "FOLATE",
	"CREATININE":    "CREATININE",
	"UREA":          "UREA",
	"URIC_ACID":     "URIC ACID",
	"TOTAL_PROTEIN": "TOTAL PROTEIN",
	"ALBUMIN":       "ALBUMIN",
	"BILIRUBIN":     "BILIRUBIN TOTAL",
	"ALT":           "ALT",
	"AST":           "AST",
	"ALP":           "ALP",
	"GGT":           "GGT",
	"GLUCOSE":       "GLUCOSE FASTING",
	"HBA1C":         "HBA1C",
	"CHOLESTEROL":   "CHOLESTEROL TOTAL",
	"HDL":           "HDL CHOLESTEROL",
	"LDL":           "LDL CHOLESTEROL",
	"TRIGLYCERIDES": "TRIGLYCERIDES",
	"ESR":           "ESR",
	"TESTOSTERONE":  "TESTOSTERONE",
	"OESTRADIOL":    "OESTRADIOL",
	"PROLACTIN":     "PROLACTIN",
	"CORTISOL":      "CORTISOL MORNING",
}

// pathologyCategories are the department prefixes a requisition system may
// attach to a subtype, e.g. BIOCHEMISTRY_CREATININE. The prefix is stripped
// before lookup.
var pathologyCategories = []string{
	"BIOCHEMISTRY",
	"HAEMATOLOGY",
	"ENDOCRINOLOGY",
	"IMMUNOLOGY",
	"LIPIDS",
	"TUMOUR_MARKERS",
	"VITAMINS",
}

// fbcComponents lists the full blood count analytes in report order, keyed
// by the lower-camel names analysers report them under.
var fbcComponents = []struct {
	key  string
	test string
}{
	{"haemoglobin", "HAEMOGLOBIN"},
	{"redCellCount", "RED CELL COUNT"},
	{"haematocrit", "HAEMATOCRIT"},
	{"mcv", "MCV"},
	{"mch", "MCH"},
	{"mchc", "MCHC"},
	{"rdw", "RDW"},
	{"whiteCellCount", "WHITE CELL COUNT"},
	{"platelets", "PLATELETS"},
	{"neutrophils", "NEUTROPHILS"},
	{"lymphocytes", "LYMPHOCYTES"},
	{"monocytes", "MONOCYTES"},
	{"eosinophils", "EOSINOPHILS"},
	{"basophils", "BASOPHILS"},
}

// ValidatePathology evaluates a pathology result against the reference
// table. A single-parameter result passes whenever a numeric value is
// reported; LOW/HIGH classification is carried in the evaluations (and
// noted in the reason) for downstream interpretation, it does not block the
// result. The FBC panel is stricter: any out-of-range component fails it.
// The caller supplies the patient's sex and age from the sample record; age
// is accepted for future age-stratified ranges but the current table
// stratifies by sex only.
func ValidatePathology(table *reference.Table, subType *string, data ResultData, sex string, age *int) Verdict {
	_ = age

	if subType == nil || *subType == "" {
		return Verdict{Passed: false, Reason: "pathology result has no test subtype"}
	}
	st := strings.ToUpper(*subType)

	if st == SubTypeFBC {
		return validateFBC(table, data, sex)
	}

	testName, ok := lookupPathologyTest(st)
	if !ok {
		return Verdict{Passed: false, Reason: fmt.Sprintf("unknown pathology test %s", st)}
	}
	value, ok := data.Float("value")
	if !ok {
		value, ok = data.Float("result")
	}
	if !ok {
		return Verdict{Passed: false, Reason: fmt.Sprintf("no value provided for %s", testName)}
	}

	eval := table.Evaluate(testName, value, sex)
	v := Verdict{Passed: true, Evaluations: []reference.Evaluation{eval}}
	if eval.Status == reference.StatusLow || eval.Status == reference.StatusHigh {
		v.Reason = eval.Message
	}
	return v
}

// lookupPathologyTest resolves a subtype to its reference-table test name,
// accepting both bare and category-prefixed forms.
func lookupPathologyTest(st string) (string, bool) {
	if name, ok := pathologyTests[st]; ok {
		return name, true
	}
	for _, cat := range pathologyCategories {
		if rest, ok := strings.CutPrefix(st, cat+"_"); ok {
			if name, ok := pathologyTests[rest]; ok {
				return name, true
			}
		}
	}
	return "", false
}

type fbcParameter struct {
	name  string
	value float64
}

// validateFBC evaluates the full blood count panel. The payload carries an
// ordered `parameters` list of {name, value} entries; flat lower-camel
// component keys are accepted as a legacy fallback when the list is absent.
func validateFBC(table *reference.Table, data ResultData, sex string) Verdict {
	params, listed := fbcListedParameters(data)
	if !listed {
		params = fbcFlatParameters(data)
	}
	if len(params) == 0 {
		return Verdict{Passed: false, Reason: "no value provided for FBC"}
	}
	evals := make([]reference.Evaluation, 0, len(params))
	for _, p := range params {
		evals = append(evals, table.Evaluate(p.name, p.value, sex))
	}
	return verdictFrom(evals)
}

// fbcListedParameters reads the `parameters` list in reported order. Names
// the table does not know are kept and surface as UNKNOWN evaluations
// rather than being dropped from the panel.
func fbcListedParameters(data ResultData) ([]fbcParameter, bool) {
	raw, ok := data["parameters"].([]interface{})
	if !ok {
		return nil, false
	}
	params := make([]fbcParameter, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		p := ResultData(m)
		name := strings.TrimSpace(p.String("name"))
		value, okv := p.Float("value")
		if !okv {
			value, okv = p.Float("result")
		}
		if name == "" || !okv {
			continue
		}
		params = append(params, fbcParameter{name: componentTest(name), value: value})
	}
	return params, true
}

func fbcFlatParameters(data ResultData) []fbcParameter {
	var params []fbcParameter
	for _, c := range fbcComponents {
		if value, ok := data.Float(c.key); ok {
			params = append(params, fbcParameter{name: c.test, value: value})
		}
	}
	return params
}

// componentTest canonicalises a reported parameter name, accepting both the
// analyser's lower-camel key and the table's test name.
func componentTest(name string) string {
	for _, c := range fbcComponents {
		if name == c.key || strings.EqualFold(name, c.test) {
			return c.test
		}
	}
	return strings.ToUpper(name)
}

// verdictFrom folds panel evaluations into a verdict. UNKNOWN counts as
// passing; a range gap in the table must not fail a patient result.
func verdictFrom(evals []reference.Evaluation) Verdict {
	for _, e := range evals {
		if e.Status == reference.StatusLow || e.Status == reference.StatusHigh {
			return Verdict{Passed: false, Reason: e.Message, Evaluations: evals}
		}
	}
	return Verdict{Passed: true, Evaluations: evals}
}
