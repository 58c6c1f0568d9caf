package credential

import (
	"errors"
	"strings"
	"sync/atomic"
)

// ErrNoCredentials is returned when a rotator is built without any usable key.
var ErrNoCredentials = errors.New("credential: no api keys configured")

// Source hands out one credential per outbound request.
type Source interface {
	Next() string
}

// Rotator cycles through a fixed list of API keys by call count.
// It does not track failures or quota per key.
type Rotator struct {
	keys    []string
	counter atomic.Uint64
}

// NewRotator keeps the non-blank keys in the order given.
func NewRotator(keys ...string) (*Rotator, error) {
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoCredentials
	}
	return &Rotator{keys: kept}, nil
}

// Next returns keys[n % len(keys)] where n is the number of previous calls.
func (r *Rotator) Next() string {
	if len(r.keys) == 1 {
		return r.keys[0]
	}
	n := r.counter.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len reports how many keys are in rotation.
func (r *Rotator) Len() int { return len(r.keys) }
