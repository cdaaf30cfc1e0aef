package results

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestValidateOpenArray(t *testing.T) {
	tests := []struct {
		name string
		data ResultData
		pass bool
	}{
		{"above threshold", ResultData{"callRate": 98.5}, true},
		{"just above threshold", ResultData{"callRate": 97.0001}, true},
		{"exactly at threshold fails", ResultData{"callRate": 97.0}, false},
		{"below threshold", ResultData{"callRate": 92.3}, false},
		{"missing call rate", ResultData{}, false},
		{"non-numeric call rate", ResultData{"callRate": "98"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(WorkflowOpenArray, nil, tt.data)
			if v.Passed != tt.pass {
				t.Errorf("Passed = %v, want %v (reason %q)", v.Passed, tt.pass, v.Reason)
			}
			if !tt.pass && v.Reason == "" {
				t.Error("failing verdict has no reason")
			}
		})
	}
}

func TestValidateMicroarray(t *testing.T) {
	passing := ResultData{
		"DQC":         0.82,
		"qcCallRate":  97.0,
		"avgCallRate": 98.5,
		"MAPD":        0.35,
		"wavinessSD":  0.0,
	}
	v := Validate(WorkflowMicroarray, nil, passing)
	if !v.Passed {
		t.Fatalf("all metrics at boundary should pass, got reason %q", v.Reason)
	}

	crossings := []struct {
		field string
		value float64
		word  string
	}{
		{"DQC", 0.81, "below"},
		{"qcCallRate", 96.9, "below"},
		{"avgCallRate", 98.4, "below"},
		{"MAPD", 0.36, "above"},
		{"wavinessSD", 0.01, "above"},
	}
	for _, c := range crossings {
		t.Run(c.field, func(t *testing.T) {
			data := ResultData{}
			for k, val := range passing {
				data[k] = val
			}
			data[c.field] = c.value

			v := Validate(WorkflowMicroarray, nil, data)
			if v.Passed {
				t.Fatalf("%s = %v should fail", c.field, c.value)
			}
			if !strings.Contains(v.Reason, c.field) || !strings.Contains(v.Reason, c.word) {
				t.Errorf("reason %q should name %s as %s threshold", v.Reason, c.field, c.word)
			}
		})
	}
}

func TestValidateMicroarrayPartialMetrics(t *testing.T) {
	// Absent metrics are not judged; only reported ones gate the run.
	v := Validate(WorkflowMicroarray, nil, ResultData{"DQC": 0.95})
	if !v.Passed {
		t.Errorf("single passing metric should pass, got reason %q", v.Reason)
	}
	v = Validate(WorkflowMicroarray, nil, ResultData{})
	if !v.Passed {
		t.Errorf("empty payload should pass, got reason %q", v.Reason)
	}
}

func TestValidateNGS(t *testing.T) {
	shotgun := strPtr(SubTypeShotgun)

	v := Validate(WorkflowNGS, shotgun, ResultData{"dataOutput": 500.0})
	if !v.Passed {
		t.Errorf("500 MB shotgun output should pass, got reason %q", v.Reason)
	}
	v = Validate(WorkflowNGS, shotgun, ResultData{"dataOutput": 499.9})
	if v.Passed {
		t.Error("499.9 MB shotgun output should fail")
	}
	v = Validate(WorkflowNGS, shotgun, ResultData{})
	if v.Passed {
		t.Error("shotgun run without data output should fail")
	}

	// Other NGS subtypes have no modelled threshold.
	v = Validate(WorkflowNGS, strPtr("AMPLICON"), ResultData{"dataOutput": 1.0})
	if !v.Passed {
		t.Errorf("amplicon run should pass, got reason %q", v.Reason)
	}
	v = Validate(WorkflowNGS, nil, ResultData{})
	if !v.Passed {
		t.Errorf("NGS without subtype should pass, got reason %q", v.Reason)
	}
}

func TestValidateReportedFlagTypes(t *testing.T) {
	paternity := strPtr(SubTypePaternityKinship)

	cases := []struct {
		name    string
		wt      WorkflowType
		subType *string
	}{
		{"qpcr", WorkflowQPCR, nil},
		{"sanger", WorkflowSanger, nil},
		{"paternity", WorkflowFragmentAnalysis, paternity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if v := Validate(tc.wt, tc.subType, ResultData{"passed": true}); !v.Passed {
				t.Errorf("passed=true should pass, got reason %q", v.Reason)
			}
			if v := Validate(tc.wt, tc.subType, ResultData{"passed": false}); v.Passed {
				t.Error("passed=false should fail")
			}
			// The flag must be explicit for these assays.
			if v := Validate(tc.wt, tc.subType, ResultData{}); v.Passed {
				t.Error("missing flag should fail")
			}
			if v := Validate(tc.wt, tc.subType, ResultData{"passed": "true"}); v.Passed {
				t.Error("non-boolean flag should fail")
			}
		})
	}
}

func TestValidateReportedFlagReason(t *testing.T) {
	v := Validate(WorkflowQPCR, nil, ResultData{"passed": false, "reason": "amplification failure"})
	if v.Reason != "amplification failure" {
		t.Errorf("Reason = %q, want submitted reason", v.Reason)
	}
}

func TestValidateFragmentAnalysisNonPaternity(t *testing.T) {
	v := Validate(WorkflowFragmentAnalysis, strPtr("MICROSATELLITE"), ResultData{})
	if !v.Passed {
		t.Errorf("non-paternity fragment analysis should pass, got reason %q", v.Reason)
	}
	v = Validate(WorkflowFragmentAnalysis, nil, ResultData{})
	if !v.Passed {
		t.Errorf("fragment analysis without subtype should pass, got reason %q", v.Reason)
	}
}

func TestValidateUnmodelledType(t *testing.T) {
	// Unknown types pass unless explicitly failed.
	if v := Validate(WorkflowType("METHYLATION"), nil, ResultData{}); !v.Passed {
		t.Errorf("unmodelled type should pass by default, got reason %q", v.Reason)
	}
	if v := Validate(WorkflowType("METHYLATION"), nil, ResultData{"passed": false}); v.Passed {
		t.Error("explicit failure should fail an unmodelled type")
	}
	if v := Validate(WorkflowType("METHYLATION"), nil, ResultData{"passed": true}); !v.Passed {
		t.Error("explicit pass should pass an unmodelled type")
	}
}

func TestValidateNilData(t *testing.T) {
	if v := Validate(WorkflowOpenArray, nil, nil); v.Passed {
		t.Error("nil payload should fail an OpenArray run")
	}
	if v := Validate(WorkflowMicroarray, nil, nil); !v.Passed {
		t.Error("nil payload should pass a microarray run")
	}
}
