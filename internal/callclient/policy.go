package callclient

import (
	"net/http"
	"time"
)

const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Policy controls how often and how patiently a call is retried.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	Backoff     string
	// TransientStatuses are retried; nil means {429}.
	TransientStatuses []int
}

// DefaultPolicy retries 429s three times with a fixed 4s pause.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       4 * time.Second,
		Backoff:     BackoffFixed,
	}
}

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) isTransient(status int) bool {
	statuses := p.TransientStatuses
	if statuses == nil {
		statuses = []int{http.StatusTooManyRequests}
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// delayFor returns the pause after the given 1-based failed attempt.
func (p Policy) delayFor(attempt int) time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	if p.Backoff != BackoffExponential {
		return p.Delay
	}
	d := p.Delay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
