package callclient

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded means the daily cap for the category was already reached; no request was sent.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrRetriesExhausted means every attempt hit a transient failure.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrUpstream matches any *UpstreamError via errors.Is.
	ErrUpstream = errors.New("upstream error")
)

// UpstreamError is a non-transient HTTP failure from a provider.
type UpstreamError struct {
	Category string
	Status   int
	Body     []byte
}

func (e *UpstreamError) Error() string {
	body := string(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("%s upstream status %d: %s", e.Category, e.Status, body)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// RetriesExhaustedError carries the last transient outcome.
type RetriesExhaustedError struct {
	Category   string
	Attempts   int
	LastStatus int
	Last       error
}

func (e *RetriesExhaustedError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%s: %d attempts, last error: %v", ErrRetriesExhausted, e.Attempts, e.Last)
	}
	return fmt.Sprintf("%s: %d attempts, last status %d", ErrRetriesExhausted, e.Attempts, e.LastStatus)
}

func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}
