package products

import (
	"context"
	"errors"
	"io"
	"strings"

	"openlabel-backend/internal/images"
	"openlabel-backend/internal/llm"
	"openlabel-backend/internal/ocr"
	"openlabel-backend/internal/shared/telemetry"
)

// UnknownProduct is the guess used when the label has no readable line.
const UnknownProduct = "Unknown"

// Scan is the outcome of a product lookup.
type Scan struct {
	ExtractedText      string `json:"extractedText"`
	GuessedProductName string `json:"guessedProductName"`
	LLMCheck           string `json:"llmCheck"`
}

// ImageStore persists uploads and hands back a fetchable reference.
type ImageStore interface {
	Save(ctx context.Context, userID, fileName, contentType string, r io.Reader) (images.Image, error)
}

// Service reads a product label and asks the model whether the product exists.
type Service struct {
	OCR    ocr.Recognizer
	LLM    llm.Client
	Images ImageStore
}

// NewService constructs a Service.
func NewService(recognizer ocr.Recognizer, client llm.Client, imgs ImageStore) *Service {
	return &Service{OCR: recognizer, LLM: client, Images: imgs}
}

// ScanUpload stores the image and scans it.
func (s *Service) ScanUpload(ctx context.Context, userID, fileName, contentType string, r io.Reader) (Scan, error) {
	if s.Images == nil {
		return Scan{}, errors.New("image store not configured")
	}
	img, err := s.Images.Save(ctx, userID, fileName, contentType, r)
	if err != nil {
		return Scan{}, err
	}
	return s.Scan(ctx, img.URL)
}

// Scan recognizes the label at imageRef, guesses the product name and checks it with the LLM.
func (s *Service) Scan(ctx context.Context, imageRef string) (Scan, error) {
	if s.OCR == nil || s.LLM == nil {
		return Scan{}, errors.New("product scan not configured")
	}
	res, err := ocr.Recognize(ctx, s.OCR, imageRef)
	if err != nil {
		return Scan{}, err
	}

	name := GuessName(res.Text)
	check, err := s.LLM.Complete(ctx, llm.ProductCheckPrompt(name))
	if err != nil {
		telemetry.Error("products.llm_failed", map[string]any{"product": name, "error": err})
		return Scan{}, err
	}
	telemetry.Info("products.scanned", map[string]any{"product": name, "backend": res.Backend})
	return Scan{
		ExtractedText:      res.Text,
		GuessedProductName: name,
		LLMCheck:           check,
	}, nil
}

// GuessName returns the first non-blank line of text.
func GuessName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return UnknownProduct
}
