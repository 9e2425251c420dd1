package model

// RiskLevel is the semantic judge's risk classification
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ParseRiskLevel maps a raw value to a RiskLevel, defaulting to medium
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return RiskLevel(s)
	default:
		return RiskMedium
	}
}

// Assessment is the normalized semantic verification of one answer.
// Downstream stages only ever derive stricter copies of it.
type Assessment struct {
	Issues      []string  `json:"issues"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Confidence  float64   `json:"confidence"`
	IsCompliant bool      `json:"is_compliant"`
}

// StrictAssessment is the neutral value used when the judgment cannot be trusted
func StrictAssessment(issues ...string) Assessment {
	return Assessment{
		Issues:      append([]string{}, issues...),
		RiskLevel:   RiskMedium,
		Confidence:  0.0,
		IsCompliant: false,
	}
}

// Clone returns a copy that shares no slice storage with a
func (a Assessment) Clone() Assessment {
	out := a
	out.Issues = append([]string{}, a.Issues...)
	return out
}

// WithConfidenceCap returns a copy with confidence lowered to at most limit
func (a Assessment) WithConfidenceCap(limit float64) Assessment {
	out := a.Clone()
	if out.Confidence > limit {
		out.Confidence = limit
	}
	return out
}

// WithIssues returns a copy with the given issue codes appended, skipping duplicates
func (a Assessment) WithIssues(codes ...string) Assessment {
	out := a.Clone()
	seen := make(map[string]bool, len(out.Issues))
	for _, c := range out.Issues {
		seen[c] = true
	}
	for _, c := range codes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out.Issues = append(out.Issues, c)
	}
	return out
}

// NonCompliant returns a copy with IsCompliant forced to false
func (a Assessment) NonCompliant() Assessment {
	out := a.Clone()
	out.IsCompliant = false
	return out
}

// DecisionStatus is the three-state usage verdict
type DecisionStatus string

const (
	StatusSafe   DecisionStatus = "safe_to_use"
	StatusReview DecisionStatus = "review_required"
	StatusBlock  DecisionStatus = "do_not_use"
)

// Decision is the terminal output for one question
type Decision struct {
	Status     DecisionStatus `json:"status"`
	Reasons    []string       `json:"reasons"`
	Assessment Assessment     `json:"assessment"`
}

// JudgeRequest is what the semantic judgment adapter receives
type JudgeRequest struct {
	Question string
	Context  []RetrievedChunk
	Claims   []Claim
}
