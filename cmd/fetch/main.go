package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"marketgateway/internal/config"
	"marketgateway/internal/httpx"
	"marketgateway/internal/logging"
	"marketgateway/internal/market"
	"marketgateway/internal/provider"
)

func main() {
	var (
		category   string
		candles    string
		configPath string
		timeout    int
		verbose    bool
	)
	flag.StringVar(&category, "category", "stocks", "price category: stocks, etfs or bonds")
	flag.StringVar(&candles, "candles", "", "print the candle series of this symbol instead of prices")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	flag.IntVar(&timeout, "timeout", 0, "per-call HTTP timeout seconds (0 keeps the configured value)")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	cfg, err := config.Load(configPath)
	level := cfg.Server.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.Setup(level, true)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if timeout > 0 {
		cfg.Server.RequestTimeoutSec = timeout
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	svc, err := market.New(cfg, httpClient, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("market service")
	}

	ctx := context.Background()
	if s := strings.TrimSpace(candles); s != "" {
		series := svc.GetCandles(ctx, s)
		log.Info().Str("symbol", s).Str("status", string(series.Status)).Int("points", series.Len()).Msg("candles")
		printJSON(series)
		return
	}

	start := time.Now()
	quotes := make([]provider.Quote, 0)
	for q := range svc.GetPrices(ctx, category) {
		log.Debug().Str("symbol", q.Symbol).Stringer("price", q.Price).Msg("quote")
		quotes = append(quotes, q)
	}
	log.Info().Str("category", category).Int("quotes", len(quotes)).Dur("took", time.Since(start)).Msg("prices")
	if len(quotes) == 0 {
		log.Fatal().Msg("no quotes received")
	}
	printJSON(struct {
		Quotes []provider.Quote `json:"quotes"`
	}{quotes})
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode")
	}
	fmt.Println(string(b))
}
