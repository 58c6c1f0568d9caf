package market

import (
	"fmt"

	"github.com/rs/zerolog"

	"marketgateway/internal/config"
	"marketgateway/internal/provider/credential"
	"marketgateway/internal/provider/finnhub"
	"marketgateway/internal/provider/twelvedata"
)

// New builds the service from configuration: one rotator, client and
// fetcher per upstream, all sharing httpClient.
func New(cfg config.Config, httpClient finnhub.HTTPClient, logger zerolog.Logger) (*Service, error) {
	quoteKeys, err := credential.NewRotator(cfg.Finnhub.APIKeys...)
	if err != nil {
		return nil, fmt.Errorf("finnhub keys: %w", err)
	}
	seriesKeys, err := credential.NewRotator(cfg.TwelveData.APIKeys...)
	if err != nil {
		return nil, fmt.Errorf("twelvedata keys: %w", err)
	}

	quotes := finnhub.NewClient(quoteKeys,
		finnhub.WithBaseURL(cfg.Finnhub.BaseURL),
		finnhub.WithHTTPClient(httpClient),
	)
	series := twelvedata.NewClient(seriesKeys,
		twelvedata.WithBaseURL(cfg.TwelveData.BaseURL),
		twelvedata.WithHTTPClient(httpClient),
		twelvedata.WithSeriesShape(cfg.TwelveData.Interval, cfg.TwelveData.OutputSize),
	)

	logger.Info().
		Int("finnhub_keys", quoteKeys.Len()).
		Int("twelvedata_keys", seriesKeys.Len()).
		Dur("finnhub_interval", cfg.Finnhub.MinInterval()).
		Msg("market upstreams configured")

	return NewService(
		QuoteFetcher(quotes, cfg.Finnhub, logger),
		SeriesFetcher(series, cfg.TwelveData.Upstream, logger),
		NewCatalog(cfg.Catalog),
	), nil
}
