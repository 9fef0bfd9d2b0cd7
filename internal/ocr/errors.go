package ocr

import (
	"errors"
	"fmt"
)

var (
	ErrRecognitionFailed   = errors.New("recognition failed")
	ErrRecognitionTimedOut = errors.New("recognition timed out")
	ErrMalformedResponse   = errors.New("malformed upstream response")
)

// FailedError carries the provider's failure message.
type FailedError struct {
	Message string
}

func (e *FailedError) Error() string {
	if e.Message == "" {
		return ErrRecognitionFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRecognitionFailed, e.Message)
}

func (e *FailedError) Is(target error) bool {
	return target == ErrRecognitionFailed
}
