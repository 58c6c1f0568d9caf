package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Ceiling caps the request rate of one provider across every batch in the
// process. A nil *Ceiling never blocks.
type Ceiling struct {
	limiter *rate.Limiter
}

// NewCeiling returns a ceiling of requestsPerMinute with the given burst,
// or nil when requestsPerMinute is not positive.
func NewCeiling(requestsPerMinute, burst int) *Ceiling {
	if requestsPerMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &Ceiling{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Wait blocks until the ceiling admits one more request.
func (c *Ceiling) Wait(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Allow reports whether a request may go out right now without waiting.
func (c *Ceiling) Allow() bool {
	if c == nil {
		return true
	}
	return c.limiter.Allow()
}
