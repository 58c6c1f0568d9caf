// Package game builds "guess the chart" rounds and ranks finished sessions.
package game

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"marketgateway/internal/fetch"
	"marketgateway/internal/provider"
)

// optionsPerRound is the number of choices shown for each chart.
const optionsPerRound = 4

// Round is one chart to guess plus its multiple-choice answers.
type Round struct {
	Symbol        string                `json:"symbol"`
	Chart         provider.CandleSeries `json:"chartData"`
	Options       []string              `json:"options"`
	CorrectAnswer string                `json:"correctAnswer"`
}

// SeriesBatch fetches candle series for a batch of symbols.
// *fetch.Fetcher[provider.CandleSeries] satisfies it.
type SeriesBatch interface {
	FetchAll(ctx context.Context, symbols []string) <-chan fetch.Result[provider.CandleSeries]
}

type Assembler struct {
	pool   []string
	series SeriesBatch

	mu  sync.Mutex
	rng *rand.Rand
}

type AssemblerOption func(*Assembler)

// WithRand fixes the random source, mainly for tests.
func WithRand(r *rand.Rand) AssemblerOption {
	return func(a *Assembler) { a.rng = r }
}

// NewAssembler builds rounds from pool. Blank and repeated symbols are
// dropped. Rounds only get four options when the pool holds at least four
// symbols; config.Validate enforces that for the server.
func NewAssembler(pool []string, series SeriesBatch, opts ...AssemblerOption) *Assembler {
	a := &Assembler{series: series}
	seen := make(map[string]struct{}, len(pool))
	for _, s := range pool {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		a.pool = append(a.pool, s)
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return a
}

// Pool returns a copy of the symbol pool.
func (a *Assembler) Pool() []string { return slices.Clone(a.pool) }

// BuildRounds samples roundCount symbols without replacement and returns
// their rounds in sampling order, whatever order the chart fetches finish
// in. roundCount is clamped to the pool size. A round whose chart fetch
// failed is left out; an unavailable chart is kept.
func (a *Assembler) BuildRounds(ctx context.Context, roundCount int) []Round {
	picked, options := a.draw(roundCount)
	if len(picked) == 0 {
		return []Round{}
	}

	results := a.series.FetchAll(context.WithoutCancel(ctx), picked)
	ordered := fetch.Ordered(results, len(picked))

	rounds := make([]Round, 0, len(ordered))
	for _, r := range ordered {
		rounds = append(rounds, Round{
			Symbol:        picked[r.Index],
			Chart:         r.Value,
			Options:       options[r.Index],
			CorrectAnswer: picked[r.Index],
		})
	}
	return rounds
}

// draw picks the correct answers and their option sets under the rng lock.
func (a *Assembler) draw(roundCount int) ([]string, [][]string) {
	n := min(roundCount, len(a.pool))
	if n <= 0 {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	shuffled := slices.Clone(a.pool)
	shuffle(a.rng, shuffled)
	picked := shuffled[:n]

	options := make([][]string, n)
	for round, correct := range picked {
		others := slices.DeleteFunc(slices.Clone(a.pool), func(s string) bool { return s == correct })
		shuffle(a.rng, others)
		opts := append(others[:min(optionsPerRound-1, len(others))], correct)
		shuffle(a.rng, opts)
		options[round] = opts
	}
	return picked, options
}

func shuffle(rng *rand.Rand, s []string) {
	rng.Shuffle(len(s), func(x, y int) { s[x], s[y] = s[y], s[x] })
}
