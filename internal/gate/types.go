package gate

import "github.com/ppiankov/policygate/internal/model"

// Issue codes emitted by the engine. Codes carrying details use the
// "CODE:missing=[...]" form.
const (
	IssueMissingCitations      = "MISSING_CITATIONS"
	IssueCitationsNotInContext = "CITATIONS_NOT_IN_CONTEXT"
	IssueEmptyClaimText        = "EMPTY_CLAIM_TEXT"
	IssueUnsupportedNumber     = "UNSUPPORTED_NUMBER"
	IssueUnsupportedNumeric    = "UNSUPPORTED_NUMERIC_DETAIL"
	IssueUnsupportedKeyPhrase  = "UNSUPPORTED_KEY_PHRASE"
	IssueClaimTooBroad         = "CLAIM_TOO_BROAD"
)

// Config holds the gate heuristics
type Config struct {
	// DenseNumberThreshold is the distinct number count at which every number must be cited
	DenseNumberThreshold int
	// MissingListCap limits how many missing numbers the dense gate lists
	MissingListCap int
	// AnchorPhrases must appear in the cited text whenever the claim uses them
	AnchorPhrases []string
	// BreadthMarkers are conjunctions counted by the breadth gate
	BreadthMarkers []string
	// BreadthLimit is the marker count at which a claim is too broad
	BreadthLimit int
}

// DefaultConfig returns the standard gate heuristics
func DefaultConfig() Config {
	return Config{
		DenseNumberThreshold: 3,
		MissingListCap:       8,
		AnchorPhrases:        append([]string{}, model.DefaultAnchorPhrases...),
		BreadthMarkers:       append([]string{}, model.DefaultBreadthMarkers...),
		BreadthLimit:         2,
	}
}

// ConfigFromModel converts model.GateConfig. Zero counts and nil lists take the
// defaults; an empty, non-nil list disables the matching gate.
func ConfigFromModel(mc model.GateConfig) Config {
	cfg := DefaultConfig()
	if mc.DenseNumberThreshold > 0 {
		cfg.DenseNumberThreshold = mc.DenseNumberThreshold
	}
	if mc.MissingListCap > 0 {
		cfg.MissingListCap = mc.MissingListCap
	}
	if mc.AnchorPhrases != nil {
		cfg.AnchorPhrases = append([]string{}, mc.AnchorPhrases...)
	}
	if mc.BreadthMarkers != nil {
		cfg.BreadthMarkers = append([]string{}, mc.BreadthMarkers...)
	}
	if mc.BreadthLimit > 0 {
		cfg.BreadthLimit = mc.BreadthLimit
	}
	return cfg
}
