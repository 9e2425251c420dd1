package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/policygate/internal/worker"
)

// LimitedProvider waits on the endpoint's rate limiter before every call
// and retries transient failures with exponential backoff
type LimitedProvider struct {
	Provider
	limiter    *worker.Limiter
	endpoint   string
	maxRetries int
	baseDelay  time.Duration
}

// NewLimitedProvider wraps p; calls are keyed on endpoint in limiter
func NewLimitedProvider(p Provider, limiter *worker.Limiter, endpoint string, maxRetries int) *LimitedProvider {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &LimitedProvider{
		Provider:   p,
		limiter:    limiter,
		endpoint:   endpoint,
		maxRetries: maxRetries,
		baseDelay:  500 * time.Millisecond,
	}
}

// Complete forwards to the wrapped provider under the rate limit
func (l *LimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			delay := l.baseDelay << (attempt - 1)
			slog.Debug("retrying provider call", "provider", l.Name(), "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := l.limiter.Wait(ctx, l.endpoint); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := l.Provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", l.maxRetries+1, lastErr)
}
