package tts

import (
	"errors"
	"math/rand"
	"time"
)

const MaxRetries = 3

// IsRetryable reports whether an error is a transient service failure
// (429 or 5xx). Used by the startup voices fetch; chunk synthesis is
// never retried in a loop — an active-chunk failure is surfaced and a
// speculative one is retried lazily when the chunk becomes current.
func IsRetryable(err error) bool {
	var synthErr *SynthesisError
	return errors.As(err, &synthErr) && synthErr.retryable
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
