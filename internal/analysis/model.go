package analysis

import (
	"time"

	"openlabel-backend/internal/analysis/ingredients"
	"openlabel-backend/internal/analysis/recommendation"
)

const (
	Standards = "WHO & OpenFoodFacts"
	Version   = "2.0"
)

// Analysis is the full result of analyzing one label image.
type Analysis struct {
	ImageURL              string                        `json:"imageUrl"`
	ExtractedText         string                        `json:"extractedText"`
	PossibleIngredients   []string                      `json:"possibleIngredients"`
	AnalysisResults       []ingredients.Finding         `json:"analysisResults"`
	ProductRecommendation recommendation.Recommendation `json:"productRecommendation"`
	TotalIngredients      int                           `json:"totalIngredients"`
	OverallScore          float64                       `json:"overallScore"`
	AnalysisMetadata      Metadata                      `json:"analysisMetadata"`
}

// Metadata describes how and when an analysis was produced.
type Metadata struct {
	AnalyzedAt     time.Time `json:"analyzedAt"`
	Standards      string    `json:"standards"`
	Version        string    `json:"version"`
	Backend        string    `json:"backend"`
	PollAttempts   int       `json:"pollAttempts"`
	ProcessingTime string    `json:"processingTime"`
}
