package model

// Claim is one atomic policy statement drafted by the answer model
type Claim struct {
	Text      string   `json:"text"`      // The rule statement itself
	Citations []string `json:"citations"` // Chunk ids, in the order the model gave them
}

// HasCitations reports whether the claim cites at least one chunk id
func (c Claim) HasCitations() bool {
	return len(c.Citations) > 0
}

// AssumptionType classifies why an answer depends on something the policy text does not state
type AssumptionType string

const (
	AssumptionScope          AssumptionType = "A1_SCOPE"           // Subject assumed to fall inside the policy's applicability
	AssumptionInterpretation AssumptionType = "A2_INTERPRETATION"  // Ambiguous wording read one particular way
	AssumptionMissingContext AssumptionType = "A3_MISSING_CONTEXT" // Retrieved text lacks what the answer needs
	AssumptionUnknown        AssumptionType = "UNKNOWN"
)

// Known reports whether t is one of the recognized assumption types
func (t AssumptionType) Known() bool {
	switch t {
	case AssumptionScope, AssumptionInterpretation, AssumptionMissingContext:
		return true
	default:
		return false
	}
}

// Impact is the declared severity of an assumption
type Impact string

// ParseImpact maps a raw value to an Impact, defaulting to medium
func ParseImpact(s string) Impact {
	switch Impact(s) {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return Impact(s)
	default:
		return ImpactMedium
	}
}

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Assumption is either declared by the drafting model or inferred from lexical triggers
type Assumption struct {
	Type   AssumptionType `json:"type"`
	Impact Impact         `json:"impact"`
	Text   string         `json:"text"`
	Source string         `json:"source,omitempty"` // "model" or "detected"
}

// AnswerProposal is the structured draft returned by the drafting adapter
type AnswerProposal struct {
	Claims      []Claim      `json:"claims"`
	Assumptions []Assumption `json:"assumptions"`
	FinalAnswer string       `json:"final_answer"`
}
