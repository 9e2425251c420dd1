// Package assumption merges model-declared assumptions with ones inferred
// from lexical triggers and classifies their aggregate risk.
package assumption

import (
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

// Tier is the status override derived from assumptions
type Tier string

const (
	TierNone   Tier = ""
	TierReview Tier = "REVIEW"
	TierBlock  Tier = "BLOCK"
)

// Issue codes added to the assessment by Classify
const (
	IssueMissingContext = "ASSUMPTION_A3_MISSING_CONTEXT"
	IssueInterpretation = "ASSUMPTION_A2_INTERPRETATION"
	IssueScope          = "ASSUMPTION_A1_SCOPE"
	IssueUnknownType    = "ASSUMPTION_UNKNOWN_TYPE"
)

const (
	SourceModel    = "model"
	SourceDetected = "detected"
)

// scopeTriggers indicate that the policy limits who it applies to
var scopeTriggers = []string{
	"applies to", "this policy applies", "exception", "with the exception",
	"does not apply", "excluded",
}

// entitlementTriggers indicate that a claim grants or computes an entitlement
var entitlementTriggers = []string{
	"entitlement", "vacation", "days per", "pro-rated", "prorated", "carry-over",
}

// ScopeAssumptionText is the implicit eligibility assumption inferred by A1_SCOPE
const ScopeAssumptionText = "The employee is eligible under this policy (i.e., not in an excluded category listed in the policy scope/applicability section)."

// Detect infers assumptions the answer relies on without stating.
// A1_SCOPE fires when the context restricts applicability and a claim states an entitlement.
// The question is accepted for parity with the detection contract; no rule reads it yet.
func Detect(question string, claims []model.Claim, contextText string) []model.Assumption {
	ctx := strings.ToLower(contextText)
	var detected []model.Assumption

	if containsAny(ctx, scopeTriggers) && anyClaimContains(claims, entitlementTriggers) {
		detected = append(detected, model.Assumption{
			Type:   model.AssumptionScope,
			Impact: model.ImpactLow,
			Text:   ScopeAssumptionText,
			Source: SourceDetected,
		})
	}

	return detected
}

// Merge concatenates declared and detected assumptions, keeping the first of
// each (type, text) pair. Text identity ignores case and surrounding whitespace.
func Merge(declared, detected []model.Assumption) []model.Assumption {
	type key struct {
		typ  model.AssumptionType
		text string
	}

	seen := make(map[key]bool, len(declared)+len(detected))
	merged := make([]model.Assumption, 0, len(declared)+len(detected))

	for _, list := range [][]model.Assumption{declared, detected} {
		for _, a := range list {
			k := key{typ: a.Type, text: strings.ToLower(strings.TrimSpace(a.Text))}
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, a)
		}
	}

	return merged
}

// Classification is the aggregate effect of a set of assumptions
type Classification struct {
	Tier          Tier
	ConfidenceCap float64
	Issues        []string
}

// Classify maps the assumption types present to an override tier and a confidence cap.
// First match wins: A3 → BLOCK/0.7, A2 → REVIEW/0.8, A1 → none/0.85, other → REVIEW/0.8.
func Classify(assumptions []model.Assumption) Classification {
	if len(assumptions) == 0 {
		return Classification{Tier: TierNone, ConfidenceCap: 1.0}
	}

	types := make(map[model.AssumptionType]bool, len(assumptions))
	for _, a := range assumptions {
		types[a.Type] = true
	}

	switch {
	case types[model.AssumptionMissingContext]:
		return Classification{Tier: TierBlock, ConfidenceCap: 0.7, Issues: []string{IssueMissingContext}}
	case types[model.AssumptionInterpretation]:
		return Classification{Tier: TierReview, ConfidenceCap: 0.8, Issues: []string{IssueInterpretation}}
	case types[model.AssumptionScope]:
		return Classification{Tier: TierNone, ConfidenceCap: 0.85, Issues: []string{IssueScope}}
	default:
		return Classification{Tier: TierReview, ConfidenceCap: 0.8, Issues: []string{IssueUnknownType}}
	}
}

func containsAny(text string, triggers []string) bool {
	for _, t := range triggers {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func anyClaimContains(claims []model.Claim, triggers []string) bool {
	for _, c := range claims {
		if containsAny(strings.ToLower(c.Text), triggers) {
			return true
		}
	}
	return false
}
