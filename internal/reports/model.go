package reports

import (
	"encoding/json"
	"time"
)

const (
	DecisionBought    = "bought"
	DecisionNotBought = "not_bought"

	unknownRecommendation = "unknown"
	unknownSource         = "unknown"
)

// Report is a saved analysis. Analysis is written once; only PurchaseDecision changes later.
type Report struct {
	ID               string            `json:"id"`
	SavedAt          time.Time         `json:"savedAt"`
	UserID           string            `json:"userId,omitempty"`
	Analysis         json.RawMessage   `json:"analysis"`
	Summary          Summary           `json:"summary"`
	ImageInfo        ImageInfo         `json:"imageInfo"`
	Metadata         Metadata          `json:"metadata"`
	PurchaseDecision *PurchaseDecision `json:"purchaseDecision,omitempty"`
}

// Summary holds counts derived from the analysis at save time.
type Summary struct {
	TotalIngredients int     `json:"totalIngredients"`
	OverallScore     float64 `json:"overallScore"`
	WarningCount     int     `json:"warningCount"`
}

type ImageInfo struct {
	ImageURL string `json:"imageUrl,omitempty"`
}

// Metadata records where the report was saved from.
type Metadata struct {
	SavedFrom  string          `json:"savedFrom"`
	DeviceInfo json.RawMessage `json:"deviceInfo"`
}

// PurchaseDecision is what the user did after reading the report.
type PurchaseDecision struct {
	Decision       string    `json:"decision"`
	DecidedAt      time.Time `json:"decidedAt"`
	Notes          string    `json:"notes"`
	Recommendation string    `json:"recommendation"`
}

// SaveInput carries a completed analysis and its attribution.
type SaveInput struct {
	Analysis   json.RawMessage
	UserID     string
	SavedFrom  string
	DeviceInfo json.RawMessage
}

// analysisView is the subset of the analysis the store reads.
type analysisView struct {
	ImageURL         string  `json:"imageUrl"`
	TotalIngredients int     `json:"totalIngredients"`
	OverallScore     float64 `json:"overallScore"`
	AnalysisResults  []struct {
		Warnings []string `json:"warnings"`
	} `json:"analysisResults"`
	ProductRecommendation struct {
		Recommendation string `json:"recommendation"`
		HealthGrade    string `json:"healthGrade"`
	} `json:"productRecommendation"`
}

func (v analysisView) summary() Summary {
	warnings := 0
	for _, r := range v.AnalysisResults {
		if len(r.Warnings) > 0 {
			warnings++
		}
	}
	return Summary{
		TotalIngredients: v.TotalIngredients,
		OverallScore:     v.OverallScore,
		WarningCount:     warnings,
	}
}

func (v analysisView) recommendation() string {
	if v.ProductRecommendation.Recommendation == "" {
		return unknownRecommendation
	}
	return v.ProductRecommendation.Recommendation
}

func viewOf(raw json.RawMessage) analysisView {
	var v analysisView
	_ = json.Unmarshal(raw, &v)
	return v
}
