// Package market serves price lists and candle series on top of the
// rate-limited upstream fetchers.
package market

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"marketgateway/internal/config"
	"marketgateway/internal/fetch"
	"marketgateway/internal/provider"
	"marketgateway/internal/provider/ratelimit"
)

type Service struct {
	quotes  *fetch.Fetcher[provider.Quote]
	series  *fetch.Fetcher[provider.CandleSeries]
	catalog Catalog

	// coalesce concurrent candle requests per symbol
	sf singleflight.Group
}

func NewService(quotes *fetch.Fetcher[provider.Quote], series *fetch.Fetcher[provider.CandleSeries], catalog Catalog) *Service {
	return &Service{quotes: quotes, series: series, catalog: catalog}
}

// GetPrices streams the quotes of a category as they complete. Symbols whose
// call failed are missing from the stream; the stream itself never fails.
// The batch is detached from ctx cancellation and always runs to the end.
func (s *Service) GetPrices(ctx context.Context, category string) <-chan provider.Quote {
	symbols := s.catalog.Symbols(category)
	results := s.quotes.FetchAll(context.WithoutCancel(ctx), symbols)

	out := make(chan provider.Quote, len(symbols))
	go func() {
		defer close(out)
		for r := range results {
			if r.Err == nil {
				out <- r.Value
			}
		}
	}()
	return out
}

// GetCandles returns the normalized series for one symbol. A failed call
// yields an unavailable series.
func (s *Service) GetCandles(ctx context.Context, symbol string) provider.CandleSeries {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return provider.Unavailable(symbol)
	}
	v, _, _ := s.sf.Do(symbol, func() (any, error) {
		for r := range s.series.FetchAll(context.WithoutCancel(ctx), []string{symbol}) {
			if r.Err == nil {
				return r.Value, nil
			}
		}
		return provider.Unavailable(symbol), nil
	})
	return v.(provider.CandleSeries)
}

// Series exposes the candle fetcher for callers that batch their own symbols.
func (s *Service) Series() *fetch.Fetcher[provider.CandleSeries] { return s.series }

// QuoteFetcher wires a quote source behind the upstream's pacing and limits.
func QuoteFetcher(src provider.QuoteSource, up config.Upstream, logger zerolog.Logger) *fetch.Fetcher[provider.Quote] {
	return fetch.New("finnhub", src.Quote,
		fetch.WithMaxInFlight[provider.Quote](up.MaxInFlight),
		fetch.WithInterval[provider.Quote](up.MinInterval()),
		fetch.WithCeiling[provider.Quote](ratelimit.NewCeiling(up.MaxRequestsPerMinute, up.Burst)),
		fetch.WithLogger[provider.Quote](logger),
	)
}

// SeriesFetcher wires a candle source behind the upstream's pacing and limits.
func SeriesFetcher(src provider.SeriesSource, up config.Upstream, logger zerolog.Logger) *fetch.Fetcher[provider.CandleSeries] {
	return fetch.New("twelvedata", src.Candles,
		fetch.WithMaxInFlight[provider.CandleSeries](up.MaxInFlight),
		fetch.WithInterval[provider.CandleSeries](up.MinInterval()),
		fetch.WithCeiling[provider.CandleSeries](ratelimit.NewCeiling(up.MaxRequestsPerMinute, up.Burst)),
		fetch.WithLogger[provider.CandleSeries](logger),
	)
}
