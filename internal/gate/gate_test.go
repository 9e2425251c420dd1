package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/policygate/internal/model"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig())
}

func TestEngine_Run_MissingCitations(t *testing.T) {
	issues := newTestEngine().Run(model.Claim{Text: "Vacation is 15 days."}, map[string]string{"hr:sec0001": "15 days"})
	assert.Equal(t, []string{IssueMissingCitations}, issues)
}

func TestEngine_Run_CitationNotInContext(t *testing.T) {
	claim := model.Claim{
		Text:      "Employees accrue 15 days, prorated, and 30 days after five years and more.",
		Citations: []string{"policyX:sec01"},
	}

	issues := newTestEngine().Run(claim, map[string]string{"hr:sec0001": "unrelated"})

	// Short-circuits: no number, phrase or breadth issues even though they would apply
	assert.Equal(t, []string{IssueCitationsNotInContext}, issues)
	assert.NotContains(t, issues, IssueMissingCitations)
}

func TestEngine_Run_BlankCitedText(t *testing.T) {
	claim := model.Claim{Text: "x", Citations: []string{"hr:sec0001"}}
	issues := newTestEngine().Run(claim, map[string]string{"hr:sec0001": "   \n\t"})
	assert.Equal(t, []string{IssueCitationsNotInContext}, issues)
}

func TestEngine_Run_EmptyClaimText(t *testing.T) {
	retrieved := map[string]string{"hr:sec0001": "Employees get 15 days."}

	issues := newTestEngine().Run(model.Claim{Text: "  ", Citations: []string{"hr:sec0001"}}, retrieved)
	assert.Equal(t, []string{IssueEmptyClaimText}, issues)

	// Citations are checked first
	assert.Equal(t, []string{IssueMissingCitations}, newTestEngine().Run(model.Claim{}, retrieved))
}

func TestEngine_Run_AppendixScenario(t *testing.T) {
	claim := model.Claim{
		Text:      "Initial entitlement is 15 days, prorated per Appendix A (Vacation Schedule). [sec0002]",
		Citations: []string{"vacation-policy:sec0002"},
	}
	retrieved := map[string]string{
		"vacation-policy:sec0002": "Initial entitlement is 15 days, pro-rated according to the vacation schedule.",
	}

	issues := newTestEngine().Run(claim, retrieved)
	assert.Equal(t, []string{"UNSUPPORTED_KEY_PHRASE:missing=['appendix a']"}, issues)
}

func TestEngine_Run_CleanClaim(t *testing.T) {
	claim := model.Claim{
		Text:      "Full-time employees receive 15 days of vacation per calendar year.",
		Citations: []string{"hr:sec0001"},
	}
	retrieved := map[string]string{
		"hr:sec0001": "Full-time employees receive 15   days of vacation\nper Calendar Year.",
	}

	assert.Empty(t, newTestEngine().Run(claim, retrieved))
}

func TestEngine_Run_UnsupportedNumber(t *testing.T) {
	claim := model.Claim{Text: "Carry-over is capped at 5 days.", Citations: []string{"hr:sec0003"}}
	retrieved := map[string]string{"hr:sec0003": "Carry-over is capped at ten days."}

	issues := newTestEngine().Run(claim, retrieved)
	assert.Equal(t, []string{"UNSUPPORTED_NUMBER:missing=['5']"}, issues)
}

func TestEngine_Run_DenseNumbers(t *testing.T) {
	claim := model.Claim{
		Text:      "After 1 year employees get 10 days, after 5 years 15 days.",
		Citations: []string{"hr:sec0004"},
	}
	retrieved := map[string]string{"hr:sec0004": "After 1 year employees get 10 days."}

	issues := newTestEngine().Run(claim, retrieved)
	require.Len(t, issues, 2)
	assert.Equal(t, "UNSUPPORTED_NUMBER:missing=['5', '15']", issues[0])
	assert.Equal(t, "UNSUPPORTED_NUMERIC_DETAIL:missing=['5', '15']", issues[1])
}

func TestEngine_Run_DenseNumbersCapped(t *testing.T) {
	claim := model.Claim{
		Text:      "Codes 11 12 13 14 16 17 18 19 21 22 apply.",
		Citations: []string{"hr:sec0005"},
	}
	retrieved := map[string]string{"hr:sec0005": "No codes listed."}

	issues := newTestEngine().Run(claim, retrieved)
	require.Len(t, issues, 2)
	assert.Equal(t, "UNSUPPORTED_NUMERIC_DETAIL:missing=['11', '12', '13', '14', '16', '17', '18', '19']...", issues[1])
}

func TestEngine_Run_DenseThresholdConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DenseNumberThreshold = 1
	engine := NewEngine(cfg)

	claim := model.Claim{Text: "Cap is 7 days.", Citations: []string{"a:b"}}
	issues := engine.Run(claim, map[string]string{"a:b": "Cap is seven days."})
	assert.Equal(t, []string{
		"UNSUPPORTED_NUMBER:missing=['7']",
		"UNSUPPORTED_NUMERIC_DETAIL:missing=['7']",
	}, issues)
}

func TestEngine_Run_ProratedVariants(t *testing.T) {
	tests := []struct {
		name   string
		claim  string
		source string
		want   []string
	}{
		{"hyphen in claim", "Leave is pro-rated.", "Leave is prorated.", nil},
		{"space in source", "Leave is prorated.", "Leave is pro rated.", nil},
		{"missing in source", "Leave is pro-rated.", "Leave is granted.", []string{"UNSUPPORTED_KEY_PHRASE:missing=['prorated']"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := model.Claim{Text: tt.claim, Citations: []string{"a:b"}}
			issues := newTestEngine().Run(claim, map[string]string{"a:b": tt.source})
			assert.Equal(t, tt.want, issues)
		})
	}
}

func TestEngine_Run_Breadth(t *testing.T) {
	tests := []struct {
		name  string
		claim string
		broad bool
	}{
		{"single conjunction", "Requests need manager and HR approval.", false},
		{"two conjunctions", "Requests need manager and HR approval and a form.", true},
		{"mixed markers", "Benefits including vacation as well as sick leave.", true},
		{"case and whitespace folded", "Vacation   AND sick leave\nAND holidays.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := model.Claim{Text: tt.claim, Citations: []string{"a:b"}}
			issues := newTestEngine().Run(claim, map[string]string{"a:b": tt.claim})
			if tt.broad {
				assert.Contains(t, issues, IssueClaimTooBroad)
			} else {
				assert.NotContains(t, issues, IssueClaimTooBroad)
			}
		})
	}
}

func TestEngine_Run_AccumulatesInOrder(t *testing.T) {
	claim := model.Claim{
		Text:      "Employees get 20 days per calendar year and 5 sick days and 3 personal days.",
		Citations: []string{"hr:sec0001", "hr:missing"},
	}
	retrieved := map[string]string{"hr:sec0001": "Employees get 20 days."}

	issues := newTestEngine().Run(claim, retrieved)
	require.Len(t, issues, 4)
	assert.Equal(t, IssueUnsupportedNumber, IssueCode(issues[0]))
	assert.Equal(t, IssueUnsupportedNumeric, IssueCode(issues[1]))
	assert.Equal(t, IssueUnsupportedKeyPhrase, IssueCode(issues[2]))
	assert.Equal(t, IssueClaimTooBroad, issues[3])
}

func TestEngine_Run_Deterministic(t *testing.T) {
	engine := newTestEngine()
	claims := []model.Claim{
		{Text: "Entitlement is 15 days, prorated per Appendix A.", Citations: []string{"a:1"}},
		{Text: "No citations here."},
		{Text: "Carry-over of 5 days until December 31.", Citations: []string{"a:2"}},
	}
	retrieved := map[string]string{
		"a:1": "Entitlement is 15 days, prorated.",
		"a:2": "Carry-over of 5 days.",
	}

	first := make([][]string, len(claims))
	for i, c := range claims {
		first[i] = engine.Run(c, retrieved)
	}
	// Reverse call order; results per claim must not change
	for i := len(claims) - 1; i >= 0; i-- {
		assert.Equal(t, first[i], engine.Run(claims[i], retrieved))
	}
}

func TestConfigFromModel_FillsDefaults(t *testing.T) {
	cfg := ConfigFromModel(model.GateConfig{DenseNumberThreshold: 4})
	assert.Equal(t, 4, cfg.DenseNumberThreshold)
	assert.Equal(t, 8, cfg.MissingListCap)
	assert.Equal(t, 2, cfg.BreadthLimit)
	assert.Equal(t, model.DefaultAnchorPhrases, cfg.AnchorPhrases)
}

func TestConfigFromModel_EmptyListsDisableGates(t *testing.T) {
	cfg := ConfigFromModel(model.GateConfig{AnchorPhrases: []string{}, BreadthMarkers: []string{}})
	assert.Empty(t, cfg.AnchorPhrases)
	assert.Empty(t, cfg.BreadthMarkers)

	claim := model.Claim{
		Text:      "Leave is prorated per Appendix A and HR and payroll.",
		Citations: []string{"a:b"},
	}
	assert.Empty(t, NewEngine(cfg).Run(claim, map[string]string{"a:b": "Leave is granted."}))
}

func TestIssueCode(t *testing.T) {
	assert.Equal(t, "UNSUPPORTED_NUMBER", IssueCode("UNSUPPORTED_NUMBER:missing=['3']"))
	assert.Equal(t, "CLAIM_TOO_BROAD", IssueCode("CLAIM_TOO_BROAD"))
}
