package results

import "fmt"

// QC thresholds per assay type, from the lab SOP. All comparisons are
// boundary-inclusive except the OpenArray call rate, which must strictly
// exceed its threshold.
const (
	openArrayCallRateThreshold = 97.0

	microarrayMinDQC         = 0.82
	microarrayMinQCCallRate  = 97.0
	microarrayMinAvgCallRate = 98.5
	microarrayMaxMAPD        = 0.35
	microarrayMaxWavinessSD  = 0.0

	ngsShotgunMinDataOutputMB = 500.0
)

// Validate produces the raw QC verdict for a non-pathology workflow result.
// It is total: malformed or incomplete payloads yield a failing verdict with
// a reason, never a panic. Unknown workflow types are judged by
// UnspecifiedVerdictPolicy on the reported flag.
func Validate(workflowType WorkflowType, subType *string, data ResultData) Verdict {
	if data == nil {
		data = ResultData{}
	}

	switch workflowType {
	case WorkflowOpenArray:
		return validateOpenArray(data)
	case WorkflowQPCR:
		return validateReportedFlag(data, "qPCR run")
	case WorkflowMicroarray:
		return validateMicroarray(data)
	case WorkflowNGS:
		return validateNGS(subType, data)
	case WorkflowFragmentAnalysis:
		if subType != nil && *subType == SubTypePaternityKinship {
			return validateReportedFlag(data, "paternity/kinship analysis")
		}
		return Verdict{Passed: true}
	case WorkflowSanger:
		return validateReportedFlag(data, "Sanger sequencing run")
	default:
		return validateUnmodelled(workflowType, data)
	}
}

func validateOpenArray(data ResultData) Verdict {
	callRate, ok := data.Float("callRate")
	if !ok {
		return Verdict{Passed: false, Reason: "no call rate reported"}
	}
	if callRate > openArrayCallRateThreshold {
		return Verdict{Passed: true}
	}
	return Verdict{
		Passed: false,
		Reason: fmt.Sprintf("call rate %g%% is not above the %g%% threshold",
			callRate, openArrayCallRateThreshold),
	}
}

// microarrayCheck is one QC gate on an Axiom-style microarray run. The gate
// only applies when the field is present in the payload.
type microarrayCheck struct {
	field     string
	threshold float64
	// ok returns true when the measured value satisfies the gate.
	ok func(value, threshold float64) bool
	// direction is used in the failure reason ("below"/"above").
	direction string
}

var microarrayChecks = []microarrayCheck{
	{"DQC", microarrayMinDQC, atLeast, "below"},
	{"qcCallRate", microarrayMinQCCallRate, atLeast, "below"},
	{"avgCallRate", microarrayMinAvgCallRate, atLeast, "below"},
	{"MAPD", microarrayMaxMAPD, atMost, "above"},
	{"wavinessSD", microarrayMaxWavinessSD, atMost, "above"},
}

func atLeast(value, threshold float64) bool { return value >= threshold }
func atMost(value, threshold float64) bool  { return value <= threshold }

func validateMicroarray(data ResultData) Verdict {
	for _, check := range microarrayChecks {
		value, ok := data.Float(check.field)
		if !ok {
			continue
		}
		if !check.ok(value, check.threshold) {
			return Verdict{
				Passed: false,
				Reason: fmt.Sprintf("%s %g is %s the %g threshold",
					check.field, value, check.direction, check.threshold),
			}
		}
	}
	return Verdict{Passed: true}
}

func validateNGS(subType *string, data ResultData) Verdict {
	if subType == nil || *subType != SubTypeShotgun {
		// No threshold defined for other NGS subtypes.
		return Verdict{Passed: true}
	}
	output, ok := data.Float("dataOutput")
	if !ok {
		return Verdict{Passed: false, Reason: "no data output reported"}
	}
	if output >= ngsShotgunMinDataOutputMB {
		return Verdict{Passed: true}
	}
	return Verdict{
		Passed: false,
		Reason: fmt.Sprintf("data output %g MB is below the %g MB minimum",
			output, ngsShotgunMinDataOutputMB),
	}
}

// validateReportedFlag covers assays whose instrument reports its own
// pass/fail decision. The flag must be explicitly true to pass.
func validateReportedFlag(data ResultData, what string) Verdict {
	switch data.Outcome("passed") {
	case OutcomePass:
		return Verdict{Passed: true}
	case OutcomeFail:
		reason := data.String("reason")
		if reason == "" {
			reason = fmt.Sprintf("%s reported failure", what)
		}
		return Verdict{Passed: false, Reason: reason}
	default:
		return Verdict{Passed: false, Reason: fmt.Sprintf("%s reported no pass/fail flag", what)}
	}
}

// validateUnmodelled applies UnspecifiedVerdictPolicy to assay types without
// a modelled rule: a result passes unless explicitly marked failed.
func validateUnmodelled(workflowType WorkflowType, data ResultData) Verdict {
	outcome := data.Outcome("passed")
	if outcome == OutcomeUnspecified {
		outcome = UnspecifiedVerdictPolicy
	}
	if outcome == OutcomePass {
		return Verdict{Passed: true}
	}
	reason := data.String("reason")
	if reason == "" {
		reason = fmt.Sprintf("%s result explicitly marked failed", workflowType)
	}
	return Verdict{Passed: false, Reason: reason}
}
