package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum time between dispatch starts on one lane.
// It spaces the start of calls, not their completion, so a slow call
// never delays the next dispatch beyond Interval.
type Pacer struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewPacer returns a pacer with the given minimum interval.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{Interval: interval}
}

// Wait blocks until Interval has elapsed since the previous dispatch and
// returns the dispatch timestamp. Waiters are served one at a time.
func (p *Pacer) Wait(ctx context.Context) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Interval > 0 && !p.last.IsZero() {
		if wait := time.Until(p.last.Add(p.Interval)); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return time.Time{}, ctx.Err()
			case <-t.C:
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	p.last = time.Now()
	return p.last, nil
}
