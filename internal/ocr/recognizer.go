package ocr

import (
	"context"
	"time"

	"openlabel-backend/internal/shared/metrics"
	"openlabel-backend/internal/shared/telemetry"
)

// State is the lifecycle position of a recognition job.
type State string

const (
	StateSubmitted State = "submitted"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

const (
	BackendAzure     = "azure"
	BackendTesseract = "tesseract"
)

// Job tracks one image through a recognizer. Handle is backend specific:
// the operation URL for azure, empty for local backends.
type Job struct {
	Backend     string
	ImageRef    string
	Handle      string
	State       State
	Polls       int
	SubmittedAt time.Time

	text string
}

// Terminal reports whether the job can no longer change state.
func (j *Job) Terminal() bool {
	switch j.State {
	case StateSucceeded, StateFailed, StateTimedOut:
		return true
	}
	return false
}

// Result is the recognized text of a finished job.
type Result struct {
	Text     string
	Backend  string
	Polls    int
	Duration time.Duration
}

// Recognizer turns a label image into raw text.
type Recognizer interface {
	Name() string
	Submit(ctx context.Context, imageRef string) (*Job, error)
	Await(ctx context.Context, job *Job) (Result, error)
}

// Recognize submits imageRef and waits for its text.
func Recognize(ctx context.Context, r Recognizer, imageRef string) (Result, error) {
	started := time.Now()
	job, err := r.Submit(ctx, imageRef)
	if err != nil {
		telemetry.Error("ocr.submit_failed", map[string]any{"backend": r.Name(), "error": err})
		return Result{}, err
	}

	res, err := r.Await(ctx, job)
	fields := map[string]any{
		"backend":     r.Name(),
		"state":       string(job.State),
		"polls":       job.Polls,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	metrics.ObserveOCRPolls(job.Polls)
	if err != nil {
		fields["error"] = err
		telemetry.Error("ocr.failed", fields)
		return Result{}, err
	}
	fields["text_chars"] = len(res.Text)
	telemetry.Info("ocr.complete", fields)
	res.Duration = time.Since(started)
	return res, nil
}
