package gate

import (
	"regexp"
	"strings"
)

var numberPattern = regexp.MustCompile(`\b\d+\b`)

// normalizeWS folds runs of whitespace to one space and lowercases
func normalizeWS(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// canonicalize normalizes whitespace and the hyphen/space variants of "prorated"
func canonicalize(s string) string {
	t := normalizeWS(s)
	t = strings.ReplaceAll(t, "pro-rated", "prorated")
	t = strings.ReplaceAll(t, "pro rated", "prorated")
	return t
}

// extractNumbers returns the distinct standalone integer tokens in order of first appearance
func extractNumbers(text string) []string {
	matches := numberPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	var nums []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			nums = append(nums, m)
		}
	}
	return nums
}

// missingFrom returns the items not found as substrings of haystack
func missingFrom(items []string, haystack string) []string {
	var missing []string
	for _, it := range items {
		if !strings.Contains(haystack, it) {
			missing = append(missing, it)
		}
	}
	return missing
}

// formatList renders items as ['a', 'b'], the form used in issue codes
func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
