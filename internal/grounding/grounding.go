// Package grounding checks that a claim's citations exist and plausibly
// support it. Results are advisory: they feed the audit trail, never the
// decision.
package grounding

import (
	"regexp"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

// DefaultMinOverlap is the number of shared keywords that counts as plausibly grounded
const DefaultMinOverlap = 2

var keywordPattern = regexp.MustCompile(`[a-z]{4,}`)

// stopwords are dropped before keyword comparison. Entries shorter than four
// letters never reach the set anyway.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"to": true, "of": true, "in": true, "on": true, "for": true,
	"is": true, "are": true, "by": true, "with": true,
}

// Checker runs the advisory grounding checks
type Checker struct {
	minOverlap int
}

// NewChecker creates a checker requiring minOverlap shared keywords
func NewChecker(minOverlap int) *Checker {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}
	return &Checker{minOverlap: minOverlap}
}

// KeywordSet returns the lowercase alphabetic tokens of length ≥4 minus stopwords
func KeywordSet(text string) map[string]bool {
	words := keywordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if !stopwords[w] {
			set[w] = true
		}
	}
	return set
}

// CitationsInRetrieved returns the claim's citation ids that are not in the retrieved set
func CitationsInRetrieved(claim model.Claim, retrievedIDs map[string]bool) []string {
	var unknown []string
	for _, id := range claim.Citations {
		if !retrievedIDs[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// CitationRelevance reports whether the claim shares at least minOverlap
// keywords with at least one of the cited texts
func CitationRelevance(claimText string, citedTexts []string, minOverlap int) bool {
	claimKeys := KeywordSet(claimText)
	if len(claimKeys) == 0 {
		return false
	}
	for _, t := range citedTexts {
		shared := 0
		for k := range KeywordSet(t) {
			if claimKeys[k] {
				shared++
			}
		}
		if shared >= minOverlap {
			return true
		}
	}
	return false
}

// Result is the advisory finding for one claim
type Result struct {
	UnknownCitations []string
	Grounded         bool
}

// Check runs both grounding checks for a claim against the retrieved map
func (c *Checker) Check(claim model.Claim, retrieved map[string]string) Result {
	ids := make(map[string]bool, len(retrieved))
	for id := range retrieved {
		ids[id] = true
	}

	var cited []string
	for _, id := range claim.Citations {
		if text, ok := retrieved[id]; ok {
			cited = append(cited, text)
		}
	}

	return Result{
		UnknownCitations: CitationsInRetrieved(claim, ids),
		Grounded:         CitationRelevance(claim.Text, cited, c.minOverlap),
	}
}
