package ocr

import (
	"fmt"

	"openlabel-backend/internal/callclient"
	"openlabel-backend/internal/shared/config"
)

// Deps are the collaborators a backend may need.
type Deps struct {
	Calls  *callclient.Client
	Images ImageOpener
}

// New selects the recognizer named by cfg.Backend.
func New(cfg config.OCRConfig, deps Deps) (Recognizer, error) {
	switch cfg.Backend {
	case BackendTesseract:
		return NewLocalRecognizer(LocalConfig{Tesseract: cfg.TesseractBin, Lang: cfg.TesseractLang}, deps.Images)
	case BackendAzure, "":
		return NewAzureRecognizer(AzureConfig{
			Endpoint:     cfg.Endpoint,
			Key:          cfg.Key,
			Model:        cfg.Model,
			APIVersion:   cfg.APIVersion,
			PollInterval: cfg.PollInterval,
			MaxPolls:     cfg.MaxPolls,
			Policy: callclient.Policy{
				MaxAttempts: cfg.MaxAttempts,
				Delay:       cfg.RetryDelay,
				MaxDelay:    8 * cfg.RetryDelay,
				Backoff:     cfg.Backoff,
			},
		}, deps.Calls)
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", cfg.Backend)
	}
}
