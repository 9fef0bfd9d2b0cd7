package ingredients

import (
	"fmt"
	"strings"
)

// Score applies every marker and keyword rule to one candidate. Deltas accumulate;
// a candidate can match a marker list and a keyword rule for the same word.
func Score(candidate string) Finding {
	lower := strings.ToLower(candidate)
	f := Finding{
		Name:     candidate,
		Warnings: []string{},
		Benefits: []string{},
		Category: CategoryNeutral,
		Severity: SeverityLow,
	}

	for _, m := range HarmfulMarkers {
		if !strings.Contains(lower, m) {
			continue
		}
		f.HealthScore += harmfulDelta
		f.Warnings = append(f.Warnings, fmt.Sprintf("Contains %s - avoid for health", m))
		f.Category = CategoryHarmful
		// The last matching rule decides severity.
		if strings.Contains(m, "trans") || strings.Contains(m, "hydrogenated") {
			f.Severity = SeverityHigh
		} else {
			f.Severity = SeverityMedium
		}
	}

	for _, m := range HealthyMarkers {
		if !strings.Contains(lower, m) {
			continue
		}
		f.HealthScore += healthyDelta
		f.Benefits = append(f.Benefits, fmt.Sprintf("Contains %s - good for health", m))
		// Only a directly harmful category turns mixed; a second healthy marker moves mixed to beneficial.
		if f.Category == CategoryHarmful {
			f.Category = CategoryMixed
		} else {
			f.Category = CategoryBeneficial
		}
	}

	if strings.Contains(lower, "sugar") && !strings.Contains(lower, "no sugar") {
		f.HealthScore += sugarDelta
		f.Warnings = append(f.Warnings, "High sugar content")
		f.Severity = SeverityMedium
	}
	if strings.Contains(lower, "sodium") || strings.Contains(lower, "salt") {
		f.HealthScore += sodiumDelta
		f.Warnings = append(f.Warnings, "High sodium content")
	}
	if strings.Contains(lower, "vitamin") || strings.Contains(lower, "mineral") {
		f.HealthScore += vitaminDelta
		f.Benefits = append(f.Benefits, "Contains vitamins/minerals")
	}
	if strings.Contains(lower, "fiber") || strings.Contains(lower, "whole grain") {
		f.HealthScore += fiberDelta
		f.Benefits = append(f.Benefits, "Good source of fiber")
	}

	if f.HealthScore >= 0 {
		f.Recommendation = Accept
	} else {
		f.Recommendation = Avoid
	}
	return f
}

// ScoreAll scores each candidate in order.
func ScoreAll(candidates []string) []Finding {
	out := make([]Finding, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Score(c))
	}
	return out
}
