package chatprovider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// RetryConfig implements spec §4.7's exact backoff policy. The teacher's
// providers/openai.go calls RetryDo/DefaultRetryConfig/HTTPError/
// ParseRetryAfter but their defining file is not present anywhere in the
// retrieval pack (confirmed by grep); this file supplies that contract,
// grounded on the call sites in openai.go and bound to spec's literal
// numbers rather than invented ones.
type RetryConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxElapsed     time.Duration
}

// DefaultRetryConfig returns spec §4.7's policy: initial 500ms, cap 4s,
// total elapsed cap 30s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
		MaxElapsed:     30 * time.Second,
	}
}

// HTTPError carries a non-2xx HTTP response up from doRequest.
type HTTPError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ParseRetryAfter parses a Retry-After header value (seconds, the only
// form OpenAI-compatible providers send) into a Duration. Returns 0 if the
// header is absent or unparseable.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryableStatus reports whether an HTTP status should be retried per
// spec §4.7: retry on 429 and >=500, never on 400/401/403/404/422.
func retryableStatus(status int) bool {
	if status == 429 {
		return true
	}
	if status >= 500 {
		return true
	}
	return false
}

// RetryDo runs fn with exponential backoff per cfg, retrying on network
// errors and retryable HTTP statuses. It stops retrying once the total
// elapsed time would exceed cfg.MaxElapsed, or ctx is cancelled, or fn
// returns a non-retryable error.
func RetryDo[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	backoff := cfg.InitialBackoff
	var zero T

	for {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		var httpErr *HTTPError
		retryable := errors.As(err, &httpErr)
		if retryable {
			retryable = retryableStatus(httpErr.Status)
		} else {
			// Anything that isn't an HTTPError is a network-level failure
			// (connection refused, DNS, context deadline) and is retryable
			// until the elapsed cap, per spec §4.7.
			retryable = !errors.Is(err, context.Canceled)
		}
		if !retryable {
			return zero, err
		}

		elapsed := time.Since(start)
		if elapsed >= cfg.MaxElapsed {
			return zero, fmt.Errorf("retry budget exhausted after %s: %w", elapsed.Round(time.Millisecond), err)
		}

		wait := backoff
		if httpErr != nil && httpErr.RetryAfter > 0 {
			wait = httpErr.RetryAfter
		}
		// add jitter up to 20% to avoid thundering-herd retries
		wait += time.Duration(rand.Int63n(int64(wait)/5 + 1))
		if elapsed+wait > cfg.MaxElapsed {
			wait = cfg.MaxElapsed - elapsed
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}
