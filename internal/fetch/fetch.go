// Package fetch runs one upstream call per symbol under an in-flight cap and
// a dispatch pacing interval, isolating failures to the symbol that caused them.
package fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"marketgateway/internal/provider/ratelimit"
)

// Func performs the upstream call for a single symbol.
type Func[T any] func(ctx context.Context, symbol string) (T, error)

// Result is the outcome of one symbol's call. Index is the symbol's
// position in the input slice.
type Result[T any] struct {
	Index        int
	Symbol       string
	Value        T
	Err          error
	DispatchedAt time.Time
}

// Fetcher fans a symbol list out to Func.
type Fetcher[T any] struct {
	name        string
	fn          Func[T]
	maxInFlight int
	interval    time.Duration
	ceiling     *ratelimit.Ceiling
	logger      zerolog.Logger
}

type Option[T any] func(*Fetcher[T])

// WithMaxInFlight caps the number of outstanding calls. Values below 1 mean 1.
func WithMaxInFlight[T any](n int) Option[T] {
	return func(f *Fetcher[T]) { f.maxInFlight = n }
}

// WithInterval sets the minimum gap between dispatch starts within a batch.
func WithInterval[T any](d time.Duration) Option[T] {
	return func(f *Fetcher[T]) { f.interval = d }
}

// WithCeiling shares a provider-wide rate ceiling across batches.
func WithCeiling[T any](c *ratelimit.Ceiling) Option[T] {
	return func(f *Fetcher[T]) { f.ceiling = c }
}

func WithLogger[T any](l zerolog.Logger) Option[T] {
	return func(f *Fetcher[T]) { f.logger = l }
}

func New[T any](name string, fn Func[T], opts ...Option[T]) *Fetcher[T] {
	f := &Fetcher[T]{
		name:        name,
		fn:          fn,
		maxInFlight: 1,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxInFlight < 1 {
		f.maxInFlight = 1
	}
	f.logger = f.logger.With().Str("provider", name).Logger()
	return f
}

func (f *Fetcher[T]) Name() string { return f.name }

// FetchAll dispatches one call per non-empty symbol and streams results in
// completion order. The channel is closed once every dispatched call has
// finished. A failed call yields a Result with Err set; it never stops
// the remaining symbols.
func (f *Fetcher[T]) FetchAll(ctx context.Context, symbols []string) <-chan Result[T] {
	out := make(chan Result[T], len(symbols))
	go f.dispatch(ctx, symbols, out)
	return out
}

func (f *Fetcher[T]) dispatch(ctx context.Context, symbols []string, out chan<- Result[T]) {
	var (
		wg    sync.WaitGroup
		sem   = semaphore.NewWeighted(int64(f.maxInFlight))
		pacer = ratelimit.NewPacer(f.interval)
	)
	defer func() {
		wg.Wait()
		close(out)
	}()

	for i, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		// Slot first, pacing last: the pacer timestamp is the dispatch start.
		if err := sem.Acquire(ctx, 1); err != nil {
			out <- f.fail(i, sym, time.Time{}, err)
			continue
		}
		if err := f.ceiling.Wait(ctx); err != nil {
			sem.Release(1)
			out <- f.fail(i, sym, time.Time{}, err)
			continue
		}
		at, err := pacer.Wait(ctx)
		if err != nil {
			sem.Release(1)
			out <- f.fail(i, sym, time.Time{}, err)
			continue
		}

		wg.Add(1)
		go func(i int, sym string, at time.Time) {
			defer wg.Done()
			defer sem.Release(1)

			v, err := f.fn(ctx, sym)
			if err != nil {
				out <- f.fail(i, sym, at, err)
				return
			}
			out <- Result[T]{Index: i, Symbol: sym, Value: v, DispatchedAt: at}
		}(i, sym, at)
	}
}

func (f *Fetcher[T]) fail(i int, sym string, at time.Time, err error) Result[T] {
	f.logger.Warn().Err(err).Str("symbol", sym).Msg("fetch failed, skipping symbol")
	return Result[T]{Index: i, Symbol: sym, Err: err, DispatchedAt: at}
}
