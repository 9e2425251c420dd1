// Package extract recovers cited claims from a free-text answer when the
// drafting model returned a final answer but no structured claims.
package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

var (
	markerPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)
	leadingMarks  = regexp.MustCompile(`^(?:\s*\[[^\[\]]+\])+`)
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	sectionOnly   = regexp.MustCompile(`^sec\d+$`)
)

// ClaimsFromAnswer splits answer into sentences and turns inline [id] markers
// into citations. Markers naming only a section ("[sec0002]") resolve to the
// retrieved id with that section when exactly one matches. Sentences without
// markers become uncited claims.
func ClaimsFromAnswer(answer string, retrievedIDs []string) []model.Claim {
	var claims []model.Claim

	for _, line := range strings.Split(answer, "\n") {
		line = bulletPattern.ReplaceAllString(line, "")
		for _, sentence := range splitSentences(line) {
			// Markers trailing a full stop belong to the sentence before them
			if lead := leadingMarks.FindString(sentence); lead != "" && len(claims) > 0 {
				_, cited := parseMarkers(lead, retrievedIDs)
				prev := &claims[len(claims)-1]
				prev.Citations = appendUnique(prev.Citations, cited...)
				sentence = sentence[len(lead):]
			}

			text, citations := parseMarkers(sentence, retrievedIDs)
			if text == "" {
				continue
			}

			claims = append(claims, model.Claim{Text: text, Citations: citations})
		}
	}

	return dedupeClaims(claims)
}

// parseMarkers strips citation markers from sentence and returns them in order
func parseMarkers(sentence string, retrievedIDs []string) (string, []string) {
	var citations []string
	for _, m := range markerPattern.FindAllStringSubmatch(sentence, -1) {
		for _, id := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ';' }) {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			citations = appendUnique(citations, resolveID(id, retrievedIDs))
		}
	}

	text := markerPattern.ReplaceAllString(sentence, "")
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(text, " .", "."), " ,", ","))
	if strings.Trim(text, ".!?;:, ") == "" {
		text = ""
	}
	return text, citations
}

func resolveID(id string, retrievedIDs []string) string {
	if !sectionOnly.MatchString(id) {
		return id
	}
	match := ""
	for _, full := range retrievedIDs {
		if strings.HasSuffix(full, ":"+id) {
			if match != "" {
				return id // ambiguous
			}
			match = full
		}
	}
	if match == "" {
		return id
	}
	return match
}

// splitSentences splits text on terminators followed by whitespace
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Decimals and abbreviations without a following space stay joined
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func appendUnique(list []string, ids ...string) []string {
	for _, id := range ids {
		dup := false
		for _, existing := range list {
			if existing == id {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, id)
		}
	}
	return list
}

// dedupeClaims drops repeated claim texts, merging their citations into the first
func dedupeClaims(claims []model.Claim) []model.Claim {
	index := make(map[string]int)
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if i, ok := index[key]; ok {
			unique[i].Citations = appendUnique(unique[i].Citations, claim.Citations...)
			continue
		}
		index[key] = len(unique)
		unique = append(unique, claim)
	}

	return unique
}
