package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"openlabel-backend/internal/analysis/ingredients"
	"openlabel-backend/internal/analysis/recommendation"
	"openlabel-backend/internal/images"
	"openlabel-backend/internal/ocr"
	"openlabel-backend/internal/shared/metrics"
	"openlabel-backend/internal/shared/telemetry"
)

// ImageStore persists uploads and hands back a fetchable reference.
type ImageStore interface {
	Save(ctx context.Context, userID, fileName, contentType string, r io.Reader) (images.Image, error)
}

// Service runs the OCR, extraction, scoring and synthesis pipeline.
type Service struct {
	OCR    ocr.Recognizer
	Images ImageStore
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(recognizer ocr.Recognizer, imgs ImageStore) *Service {
	return &Service{OCR: recognizer, Images: imgs, now: time.Now}
}

// AnalyzeUpload stores the image and analyzes it.
func (s *Service) AnalyzeUpload(ctx context.Context, userID, fileName, contentType string, r io.Reader) (Analysis, error) {
	if s.Images == nil {
		return Analysis{}, errors.New("image store not configured")
	}
	img, err := s.Images.Save(ctx, userID, fileName, contentType, r)
	if err != nil {
		return Analysis{}, err
	}
	telemetry.Info("analysis.image_stored", map[string]any{
		"user_id":   userID,
		"key":       img.Key,
		"size":      img.Size,
		"mime_type": img.MimeType,
	})
	return s.AnalyzeImage(ctx, img.URL)
}

// AnalyzeImage recognizes text at imageRef and scores it. Errors from OCR are returned unchanged.
func (s *Service) AnalyzeImage(ctx context.Context, imageRef string) (Analysis, error) {
	if s.OCR == nil {
		return Analysis{}, errors.New("ocr backend not configured")
	}
	metrics.IncAnalysisStarted()
	started := time.Now()

	res, err := ocr.Recognize(ctx, s.OCR, imageRef)
	if err != nil {
		metrics.IncAnalysisFailed()
		return Analysis{}, err
	}

	a := Build(imageRef, res, s.now())
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(started).Milliseconds()))
	telemetry.Info("analysis.complete", map[string]any{
		"backend":        res.Backend,
		"ingredients":    a.TotalIngredients,
		"grade":          a.ProductRecommendation.HealthGrade,
		"recommendation": a.ProductRecommendation.Recommendation,
	})
	return a, nil
}

// Build turns recognized text into an Analysis. It has no side effects.
func Build(imageRef string, res ocr.Result, at time.Time) Analysis {
	candidates := ingredients.Extract(res.Text)
	findings := ingredients.ScoreAll(candidates)
	rec := recommendation.Synthesize(findings)

	return Analysis{
		ImageURL:              imageRef,
		ExtractedText:         strings.TrimSpace(res.Text),
		PossibleIngredients:   candidates,
		AnalysisResults:       findings,
		ProductRecommendation: rec,
		TotalIngredients:      len(candidates),
		OverallScore:          rec.Summary.OverallScore,
		AnalysisMetadata: Metadata{
			AnalyzedAt:     at.UTC(),
			Standards:      Standards,
			Version:        Version,
			Backend:        res.Backend,
			PollAttempts:   res.Polls,
			ProcessingTime: processingTime(res),
		},
	}
}

// processingTime counts one second per poll for polling backends, wall time otherwise.
func processingTime(res ocr.Result) string {
	if res.Polls > 0 {
		return fmt.Sprintf("%d seconds", res.Polls)
	}
	return fmt.Sprintf("%d seconds", int(math.Ceil(res.Duration.Seconds())))
}
