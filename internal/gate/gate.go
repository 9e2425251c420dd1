// Package gate implements the binding textual and numeric checks applied to
// every drafted claim. Any issue returned here blocks the answer.
package gate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

// Engine runs the hard gates for a claim
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given heuristics
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Run returns the issue codes for one claim against the retrieved {id → text} map.
// A claim without citations, with blank text, or whose citations resolve to no
// usable text short-circuits before the textual gates.
func (e *Engine) Run(claim model.Claim, retrieved map[string]string) []string {
	if !claim.HasCitations() {
		return []string{IssueMissingCitations}
	}
	if strings.TrimSpace(claim.Text) == "" {
		return []string{IssueEmptyClaimText}
	}

	cited := citedTexts(claim.Citations, retrieved)
	if !anyNonBlank(cited) {
		return []string{IssueCitationsNotInContext}
	}

	var issues []string
	combined := strings.Join(cited, " ")

	if issue := e.anyNumberGate(claim.Text, combined); issue != "" {
		issues = append(issues, issue)
	}
	if issue := e.denseNumberGate(claim.Text, combined); issue != "" {
		issues = append(issues, issue)
	}
	if issue := e.keyPhraseGate(claim.Text, combined); issue != "" {
		issues = append(issues, issue)
	}
	if issue := e.breadthGate(claim.Text); issue != "" {
		issues = append(issues, issue)
	}

	return issues
}

// anyNumberGate requires every number in the claim to appear in the cited text
func (e *Engine) anyNumberGate(claimText, combined string) string {
	nums := extractNumbers(claimText)
	if len(nums) == 0 {
		return ""
	}

	missing := missingFrom(nums, normalizeWS(combined))
	if len(missing) > 0 {
		return fmt.Sprintf("%s:missing=%s", IssueUnsupportedNumber, formatList(missing))
	}
	return ""
}

// denseNumberGate re-checks numerically dense claims; the missing list is capped
func (e *Engine) denseNumberGate(claimText, combined string) string {
	nums := extractNumbers(claimText)
	if len(nums) < e.config.DenseNumberThreshold {
		return ""
	}

	missing := missingFrom(nums, normalizeWS(combined))
	if len(missing) == 0 {
		return ""
	}

	suffix := ""
	if len(missing) > e.config.MissingListCap {
		missing = missing[:e.config.MissingListCap]
		suffix = "..."
	}
	return fmt.Sprintf("%s:missing=%s%s", IssueUnsupportedNumeric, formatList(missing), suffix)
}

// keyPhraseGate requires anchor phrases used by the claim to appear in the cited text
func (e *Engine) keyPhraseGate(claimText, combined string) string {
	claim := canonicalize(claimText)
	source := canonicalize(combined)

	var missing []string
	for _, phrase := range e.config.AnchorPhrases {
		p := canonicalize(phrase)
		if p == "" || !strings.Contains(claim, p) {
			continue
		}
		if !strings.Contains(source, p) {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		return fmt.Sprintf("%s:missing=%s", IssueUnsupportedKeyPhrase, formatList(missing))
	}
	return ""
}

// breadthGate flags claims that bundle several rules with conjunctions
func (e *Engine) breadthGate(claimText string) string {
	t := normalizeWS(claimText)
	count := 0
	for _, marker := range e.config.BreadthMarkers {
		if marker == "" {
			continue
		}
		count += strings.Count(t, strings.ToLower(marker))
	}
	if count >= e.config.BreadthLimit {
		return IssueClaimTooBroad
	}
	return ""
}

// citedTexts resolves citation ids to text, skipping ids absent from the map
func citedTexts(citations []string, retrieved map[string]string) []string {
	var texts []string
	for _, id := range citations {
		if text, ok := retrieved[id]; ok {
			texts = append(texts, text)
		}
	}
	return texts
}

func anyNonBlank(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}

// IssueCode strips the detail suffix from an issue, e.g. "UNSUPPORTED_NUMBER:missing=['3']" → "UNSUPPORTED_NUMBER"
func IssueCode(issue string) string {
	if i := strings.IndexByte(issue, ':'); i >= 0 {
		return issue[:i]
	}
	return issue
}
