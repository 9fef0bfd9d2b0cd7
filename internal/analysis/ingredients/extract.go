package ingredients

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reLabel     = regexp.MustCompile(`ingredients?:?`)
	reSeparator = regexp.MustCompile(`[,;:\n]`)
	reDigits    = regexp.MustCompile(`^\d+$`)
)

// Extract splits recognized label text into at most 20 ingredient candidates.
// Only the first "ingredient(s):" label is removed.
func Extract(text string) []string {
	lower := strings.ToLower(text)
	if loc := reLabel.FindStringIndex(lower); loc != nil {
		lower = lower[:loc[0]] + lower[loc[1]:]
	}

	out := make([]string, 0, maxCandidates)
	for _, part := range reSeparator.Split(lower, -1) {
		candidate := strings.TrimSpace(part)
		n := utf8.RuneCountInString(candidate)
		if n < minRunes || n > maxRunes {
			continue
		}
		if reDigits.MatchString(candidate) {
			continue
		}
		out = append(out, candidate)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}
