package schema

import (
	"encoding/json"
)

// ClaimCheck is the judge's verdict for one claim
type ClaimCheck struct {
	Index     int
	Supported bool
	Issues    []string
}

// RawAssessment is a version-checked but not yet normalized judgment.
// Fields the judge sent with the wrong type hold their neutral value.
type RawAssessment struct {
	Issues      []string
	RiskLevel   string
	Confidence  float64
	IsCompliant bool
	ClaimChecks []ClaimCheck
}

// DecodeAssessment decodes a judgment in the policygate.assessment.v1 format:
//
//	{"schema_version": "policygate.assessment.v1",
//	 "issues": ["..."], "risk_level": "low", "confidence": 0.9, "is_compliant": true,
//	 "claim_checks": [{"claim_index": 0, "supported": true, "issues": []}]}
func DecodeAssessment(content string) (RawAssessment, error) {
	fields, err := envelope(content, "assessment", AssessmentVersion)
	if err != nil {
		return RawAssessment{}, err
	}

	var a RawAssessment
	a.Issues, _ = asStrings(fields["issues"])
	a.RiskLevel, _ = asString(fields["risk_level"])
	a.Confidence, _ = asFloat(fields["confidence"])
	a.IsCompliant, _ = asBool(fields["is_compliant"])

	for i, raw := range asObjects(fields["claim_checks"]) {
		a.ClaimChecks = append(a.ClaimChecks, decodeClaimCheck(i, raw))
	}

	return a, nil
}

// decodeClaimCheck treats anything but an explicit supported=true as unsupported
func decodeClaimCheck(pos int, raw json.RawMessage) ClaimCheck {
	check := ClaimCheck{Index: pos}
	obj, ok := asObject(raw)
	if !ok {
		return check
	}

	if idx, ok := asFloat(obj["claim_index"]); ok && idx >= 0 {
		check.Index = int(idx)
	}
	check.Supported, _ = asBool(obj["supported"])
	check.Issues, _ = asStrings(obj["issues"])
	return check
}
