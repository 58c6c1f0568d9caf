package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketgateway/internal/config"
	"marketgateway/internal/fetch"
	"marketgateway/internal/httpx"
	"marketgateway/internal/logging"
	"marketgateway/internal/market"
	"marketgateway/internal/provider"
)

type entry struct {
	Symbol string                `json:"symbol"`
	Chart  provider.CandleSeries `json:"chartData"`
}

func main() {
	var (
		outPath    string
		configPath string
		symbolsCSV string
	)
	flag.StringVar(&outPath, "out", "candles.json", "output JSON file path")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	flag.StringVar(&symbolsCSV, "symbols", "", "comma-separated symbols (default: the game pool)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	logger := logging.Setup(cfg.Server.LogLevel, true)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := run(cfg, logger, outPath, symbolsCSV); err != nil {
		log.Fatal().Err(err).Msg("candles dump")
	}
}

func run(cfg config.Config, logger zerolog.Logger, outPath, symbolsCSV string) (err error) {
	symbols := cfg.Catalog.GamePool
	if strings.TrimSpace(symbolsCSV) != "" {
		symbols = strings.Split(symbolsCSV, ",")
	}
	symbols = nonBlank(symbols)
	if len(symbols) == 0 {
		return errors.New("no symbols")
	}

	svc, err := market.New(cfg, httpx.New(time.Duration(cfg.Server.RequestTimeoutSec)*time.Second), logger)
	if err != nil {
		return fmt.Errorf("market service: %w", err)
	}
	logger.Info().Int("symbols", len(symbols)).Str("out", outPath).Msg("dumping candles")

	results := fetch.Ordered(svc.Series().FetchAll(context.Background(), symbols), len(symbols))
	entries := make([]entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, entry{Symbol: r.Symbol, Chart: r.Value})
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create out: %w", err)
	}
	defer func() {
		if cerr := outFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close out: %w", cerr)
		}
	}()

	bw := bufio.NewWriterSize(outFile, 1<<20)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	logger.Info().Int("written", len(entries)).Int("failed", len(symbols)-len(entries)).Str("out", outPath).Msg("done")
	return nil
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
