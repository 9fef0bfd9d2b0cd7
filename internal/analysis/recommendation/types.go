package recommendation

const (
	Buy     = "buy"
	Caution = "caution"
	Avoid   = "avoid"
)

// Recommendation is the product-level verdict over all findings.
type Recommendation struct {
	Recommendation string   `json:"recommendation"`
	HealthGrade    string   `json:"healthGrade"`
	BuyAdvice      string   `json:"buyAdvice"`
	Confidence     int      `json:"confidence"`
	AverageScore   float64  `json:"averageScore"`
	Reasoning      []string `json:"reasoning"`
	Summary        Summary  `json:"summary"`
}

// Summary aggregates the findings behind a Recommendation.
type Summary struct {
	TotalIngredients  int     `json:"totalIngredients"`
	HarmfulCount      int     `json:"harmfulCount"`
	BeneficialCount   int     `json:"beneficialCount"`
	HighSeverityCount int     `json:"highSeverityCount"`
	OverallScore      float64 `json:"overallScore"`
}

type grade struct {
	min            float64
	letter         string
	recommendation string
	advice         string
}

// grades are checked in order; the first whose min the average reaches wins.
var grades = []grade{
	{min: 1.5, letter: "A", recommendation: Buy, advice: "✅ Recommended - This is a healthy choice!"},
	{min: 0.5, letter: "B", recommendation: Buy, advice: "✅ Good Choice - Generally healthy with minor concerns"},
	{min: -0.5, letter: "C", recommendation: Caution, advice: "⚠️ Use Caution - Mixed ingredients, consume in moderation"},
	{min: -1.5, letter: "D", recommendation: Avoid, advice: "❌ Not Recommended - Contains concerning ingredients"},
}

var failing = grade{letter: "F", recommendation: Avoid, advice: "🚫 Avoid - Multiple harmful ingredients detected"}

const highRiskAdvice = "🚫 Avoid - Contains high-risk ingredients"
