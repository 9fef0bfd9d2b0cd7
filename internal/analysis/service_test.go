package analysis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openlabel-backend/internal/analysis/recommendation"
	"openlabel-backend/internal/images"
	"openlabel-backend/internal/ocr"
)

type fakeRecognizer struct {
	text     string
	polls    int
	err      error
	gotRef   string
	submitEr error
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Submit(_ context.Context, ref string) (*ocr.Job, error) {
	f.gotRef = ref
	if f.submitEr != nil {
		return nil, f.submitEr
	}
	return &ocr.Job{Backend: "fake", ImageRef: ref, State: ocr.StateRunning, Polls: f.polls}, nil
}

func (f *fakeRecognizer) Await(_ context.Context, job *ocr.Job) (ocr.Result, error) {
	if f.err != nil {
		job.State = ocr.StateFailed
		return ocr.Result{}, f.err
	}
	job.State = ocr.StateSucceeded
	return ocr.Result{Text: f.text, Backend: ocr.BackendAzure, Polls: f.polls}, nil
}

type fakeImages struct {
	saved []byte
	err   error
}

func (f *fakeImages) Save(_ context.Context, userID, fileName, contentType string, r io.Reader) (images.Image, error) {
	if f.err != nil {
		return images.Image{}, f.err
	}
	f.saved, _ = io.ReadAll(r)
	return images.Image{Key: "images/u/" + fileName, URL: "https://cdn.test/" + fileName, Size: int64(len(f.saved)), MimeType: contentType}, nil
}

func TestAnalyzeImageScenario(t *testing.T) {
	rec := &fakeRecognizer{text: "  Ingredients: trans fat, organic oats, sugar\n", polls: 4}
	svc := NewService(rec, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	a, err := svc.AnalyzeImage(context.Background(), "https://cdn.test/label.jpg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.test/label.jpg", a.ImageURL)
	assert.Equal(t, "Ingredients: trans fat, organic oats, sugar", a.ExtractedText)
	assert.Equal(t, []string{"trans fat", "organic oats", "sugar"}, a.PossibleIngredients)
	assert.Equal(t, 3, a.TotalIngredients)

	require.Len(t, a.AnalysisResults, 3)
	assert.Equal(t, -3, a.AnalysisResults[0].HealthScore)
	assert.Equal(t, "high", a.AnalysisResults[0].Severity)
	assert.Equal(t, 2, a.AnalysisResults[1].HealthScore)
	assert.Equal(t, "beneficial", a.AnalysisResults[1].Category)
	assert.Equal(t, -2, a.AnalysisResults[2].HealthScore)

	pr := a.ProductRecommendation
	assert.Equal(t, recommendation.Avoid, pr.Recommendation)
	assert.Equal(t, "F", pr.HealthGrade)
	assert.Equal(t, "🚫 Avoid - Contains high-risk ingredients", pr.BuyAdvice)
	assert.Equal(t, -1.0, pr.AverageScore)
	assert.Equal(t, 30, pr.Confidence)
	assert.Equal(t, []string{
		"Contains 1 harmful ingredient",
		"Contains 1 beneficial ingredient",
		"Simple ingredient list - likely less processed",
	}, pr.Reasoning)
	assert.Equal(t, 3.3, pr.Summary.OverallScore)
	assert.Equal(t, 3.3, a.OverallScore)

	md := a.AnalysisMetadata
	assert.Equal(t, fixed, md.AnalyzedAt)
	assert.Equal(t, "WHO & OpenFoodFacts", md.Standards)
	assert.Equal(t, "2.0", md.Version)
	assert.Equal(t, 4, md.PollAttempts)
	assert.Equal(t, "4 seconds", md.ProcessingTime)
}

func TestAnalyzeImagePropagatesTypedErrors(t *testing.T) {
	for _, want := range []error{ocr.ErrRecognitionTimedOut, &ocr.FailedError{Message: "bad"}, ocr.ErrMalformedResponse} {
		svc := NewService(&fakeRecognizer{err: want}, nil)
		_, err := svc.AnalyzeImage(context.Background(), "ref")
		assert.True(t, errors.Is(err, want), "got %v", err)
	}
}

func TestAnalyzeUploadStoresThenAnalyzes(t *testing.T) {
	rec := &fakeRecognizer{text: "water, salt"}
	imgs := &fakeImages{}
	svc := NewService(rec, imgs)

	a, err := svc.AnalyzeUpload(context.Background(), "guest:1", "label.png", "image/png", bytes.NewReader([]byte("img")))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/label.png", rec.gotRef)
	assert.Equal(t, "https://cdn.test/label.png", a.ImageURL)
	assert.Equal(t, []byte("img"), imgs.saved)
	assert.Equal(t, []string{"water", "salt"}, a.PossibleIngredients)
}

func TestAnalyzeUploadRejectedImageSkipsOCR(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := NewService(rec, &fakeImages{err: images.ErrNotImage})

	_, err := svc.AnalyzeUpload(context.Background(), "u", "a.txt", "text/plain", bytes.NewReader(nil))
	assert.ErrorIs(t, err, images.ErrNotImage)
	assert.Empty(t, rec.gotRef)
}

func TestBuildWithEmptyText(t *testing.T) {
	a := Build("ref", ocr.Result{Backend: ocr.BackendTesseract, Duration: 1500 * time.Millisecond}, time.Now())
	assert.Empty(t, a.PossibleIngredients)
	assert.NotNil(t, a.AnalysisResults)
	assert.Equal(t, 0, a.TotalIngredients)
	assert.Equal(t, "C", a.ProductRecommendation.HealthGrade)
	assert.Equal(t, "2 seconds", a.AnalysisMetadata.ProcessingTime)
}
