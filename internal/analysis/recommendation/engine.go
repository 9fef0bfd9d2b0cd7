package recommendation

import (
	"fmt"
	"math"

	"openlabel-backend/internal/analysis/ingredients"
)

// Synthesize grades a product from its findings.
func Synthesize(findings []ingredients.Finding) Recommendation {
	total := len(findings)
	var sum, harmful, beneficial, high int
	for _, f := range findings {
		sum += f.HealthScore
		switch f.Category {
		case ingredients.CategoryHarmful:
			harmful++
		case ingredients.CategoryBeneficial:
			beneficial++
		}
		if f.Severity == ingredients.SeverityHigh {
			high++
		}
	}

	var avg float64
	if total > 0 {
		avg = float64(sum) / float64(total)
	}

	g := failing
	for _, candidate := range grades {
		if avg >= candidate.min {
			g = candidate
			break
		}
	}
	rec := Recommendation{
		Recommendation: g.recommendation,
		HealthGrade:    g.letter,
		BuyAdvice:      g.advice,
	}
	if high > 0 {
		rec.Recommendation = Avoid
		rec.HealthGrade = failing.letter
		rec.BuyAdvice = highRiskAdvice
	}

	rec.Reasoning = reasoning(total, harmful, beneficial)

	confidence := math.Abs(avg * 30)
	if total > 3 {
		confidence += 20
	}
	rec.Confidence = int(roundHalfUp(math.Min(95, confidence)))
	rec.AverageScore = round1(avg)
	rec.Summary = Summary{
		TotalIngredients:  total,
		HarmfulCount:      harmful,
		BeneficialCount:   beneficial,
		HighSeverityCount: high,
		OverallScore:      OverallScore(avg),
	}
	return rec
}

// OverallScore maps an average finding score in [-3, 3] onto 0-10. Averages
// outside that range map outside 0-10 unchanged.
func OverallScore(avg float64) float64 {
	return round1((avg + 3) * 10 / 6)
}

func reasoning(total, harmful, beneficial int) []string {
	out := []string{}
	if harmful > 0 {
		out = append(out, fmt.Sprintf("Contains %d harmful %s", harmful, plural("ingredient", harmful)))
	}
	if beneficial > 0 {
		out = append(out, fmt.Sprintf("Contains %d beneficial %s", beneficial, plural("ingredient", beneficial)))
	}
	if total > 20 {
		out = append(out, "High number of ingredients - may be heavily processed")
	}
	if total <= 5 {
		out = append(out, "Simple ingredient list - likely less processed")
	}
	return out
}

func plural(word string, n int) string {
	if n > 1 {
		return word + "s"
	}
	return word
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
