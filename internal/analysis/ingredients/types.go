package ingredients

const (
	CategoryNeutral    = "neutral"
	CategoryHarmful    = "harmful"
	CategoryBeneficial = "beneficial"
	CategoryMixed      = "mixed"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	Accept = "accept"
	Avoid  = "avoid"
)

// Finding is the scored result of one ingredient candidate.
type Finding struct {
	Name           string   `json:"name"`
	HealthScore    int      `json:"healthScore"`
	Warnings       []string `json:"warnings"`
	Benefits       []string `json:"benefits"`
	Category       string   `json:"category"`
	Severity       string   `json:"severity"`
	Recommendation string   `json:"recommendation"`
}
