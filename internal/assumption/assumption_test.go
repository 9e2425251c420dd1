package assumption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/policygate/internal/model"
)

func TestDetect_ScopeAssumption(t *testing.T) {
	claims := []model.Claim{
		{Text: "Initial vacation entitlement is 15 days."},
	}
	ctx := "This policy applies to all full-time staff, with the exception of contractors."

	got := Detect("How much vacation do I get?", claims, ctx)
	require.Len(t, got, 1)
	assert.Equal(t, model.AssumptionScope, got[0].Type)
	assert.Equal(t, model.ImpactLow, got[0].Impact)
	assert.Equal(t, ScopeAssumptionText, got[0].Text)
	assert.Equal(t, SourceDetected, got[0].Source)
}

func TestDetect_NoTriggers(t *testing.T) {
	tests := []struct {
		name   string
		claims []model.Claim
		ctx    string
	}{
		{
			name:   "scope trigger without entitlement claim",
			claims: []model.Claim{{Text: "Requests go to your manager."}},
			ctx:    "Contractors are excluded.",
		},
		{
			name:   "entitlement claim without scope trigger",
			claims: []model.Claim{{Text: "Vacation is 15 days."}},
			ctx:    "Vacation is 15 days.",
		},
		{
			name: "no claims",
			ctx:  "This policy applies to everyone.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Detect("q", tt.claims, tt.ctx))
		})
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	claims := []model.Claim{{Text: "Unused days follow the CARRY-OVER rule."}}
	got := Detect("q", claims, "THIS POLICY APPLIES TO permanent staff.")
	assert.Len(t, got, 1)
}

func TestMerge_Deduplicates(t *testing.T) {
	declared := []model.Assumption{
		{Type: model.AssumptionScope, Text: ScopeAssumptionText, Source: SourceModel},
		{Type: model.AssumptionInterpretation, Text: "Days means working days."},
		{Type: model.AssumptionInterpretation, Text: "  days MEANS working days. "},
	}
	detected := []model.Assumption{
		{Type: model.AssumptionScope, Text: ScopeAssumptionText, Source: SourceDetected},
		{Type: model.AssumptionMissingContext, Text: ScopeAssumptionText},
	}

	merged := Merge(declared, detected)
	require.Len(t, merged, 3)
	assert.Equal(t, SourceModel, merged[0].Source, "first occurrence wins")
	assert.Equal(t, model.AssumptionInterpretation, merged[1].Type)
	assert.Equal(t, model.AssumptionMissingContext, merged[2].Type, "same text, different type is kept")
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		types []model.AssumptionType
		tier  Tier
		cap   float64
		issue string
	}{
		{"empty", nil, TierNone, 1.0, ""},
		{"scope only", []model.AssumptionType{model.AssumptionScope}, TierNone, 0.85, IssueScope},
		{"interpretation", []model.AssumptionType{model.AssumptionInterpretation}, TierReview, 0.8, IssueInterpretation},
		{"missing context", []model.AssumptionType{model.AssumptionMissingContext}, TierBlock, 0.7, IssueMissingContext},
		{"missing context wins", []model.AssumptionType{model.AssumptionScope, model.AssumptionInterpretation, model.AssumptionMissingContext}, TierBlock, 0.7, IssueMissingContext},
		{"interpretation beats scope", []model.AssumptionType{model.AssumptionScope, model.AssumptionInterpretation}, TierReview, 0.8, IssueInterpretation},
		{"scope beats unknown", []model.AssumptionType{"SOMETHING_ELSE", model.AssumptionScope}, TierNone, 0.85, IssueScope},
		{"unknown only", []model.AssumptionType{"UNKNOWN"}, TierReview, 0.8, IssueUnknownType},
		{"empty type", []model.AssumptionType{""}, TierReview, 0.8, IssueUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var assumptions []model.Assumption
			for _, typ := range tt.types {
				assumptions = append(assumptions, model.Assumption{Type: typ, Text: string(typ)})
			}

			got := Classify(assumptions)
			assert.Equal(t, tt.tier, got.Tier)
			assert.InDelta(t, tt.cap, got.ConfidenceCap, 1e-9)
			if tt.issue == "" {
				assert.Empty(t, got.Issues)
			} else {
				assert.Equal(t, []string{tt.issue}, got.Issues)
			}
		})
	}
}
