package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	Environment       string `json:"environment" yaml:"environment"`
	LogLevel          string `json:"log_level" yaml:"log_level"`

	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// Upstream holds the credentials and pacing knobs of one provider.
type Upstream struct {
	BaseURL              string   `json:"base_url" yaml:"base_url"`
	APIKeys              []string `json:"api_keys" yaml:"api_keys"`
	MinRequestIntervalMs int      `json:"min_request_interval_ms" yaml:"min_request_interval_ms"`
	MaxInFlight          int      `json:"max_in_flight" yaml:"max_in_flight"`
	MaxRequestsPerMinute int      `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	Burst                int      `json:"burst" yaml:"burst"`
}

// MinInterval returns the dispatch pacing interval.
func (u Upstream) MinInterval() time.Duration {
	return time.Duration(u.MinRequestIntervalMs) * time.Millisecond
}

type TwelveData struct {
	Upstream   `yaml:",inline"`
	Interval   string `json:"interval" yaml:"interval"`
	OutputSize int    `json:"output_size" yaml:"output_size"`
}

type Catalog struct {
	Stocks   []string `json:"stocks" yaml:"stocks"`
	ETFs     []string `json:"etfs" yaml:"etfs"`
	Bonds    []string `json:"bonds" yaml:"bonds"`
	GamePool []string `json:"game_pool" yaml:"game_pool"`
}

type Game struct {
	DefaultRounds    int `json:"default_rounds" yaml:"default_rounds"`
	LeaderboardLimit int `json:"leaderboard_limit" yaml:"leaderboard_limit"`
}

type Database struct {
	// DSN is a postgres connection string. Empty disables score storage.
	DSN string `json:"dsn" yaml:"dsn"`
}

type Config struct {
	Server     Server     `json:"server" yaml:"server"`
	Finnhub    Upstream   `json:"finnhub" yaml:"finnhub"`
	TwelveData TwelveData `json:"twelvedata" yaml:"twelvedata"`
	Catalog    Catalog    `json:"catalog" yaml:"catalog"`
	Game       Game       `json:"game" yaml:"game"`
	Database   Database   `json:"database" yaml:"database"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, Environment: "development", LogLevel: "info"},
		Finnhub: Upstream{
			BaseURL: "https://finnhub.io/api/v1",
			// 450ms spacing with 2 in flight keeps two free-tier keys under their limits.
			MinRequestIntervalMs: 450,
			MaxInFlight:          2,
		},
		TwelveData: TwelveData{
			Upstream: Upstream{
				BaseURL:     "https://api.twelvedata.com",
				MaxInFlight: 2,
			},
			Interval:   "1day",
			OutputSize: 90,
		},
		Catalog: Catalog{
			Stocks: []string{"AAPL", "GOOGL", "TSLA", "MSFT", "AMZN", "NVDA", "META", "NFLX", "AMD", "INTC"},
			ETFs:   []string{"SPY", "QQQ", "VTI", "IWM", "EFA", "VWO", "AGG", "GLD"},
			Bonds:  []string{"TLT", "IEF", "SHY", "LQD", "HYG", "MUB", "TIP", "BND"},
			GamePool: []string{
				"AAPL", "GOOGL", "TSLA", "MSFT", "AMZN",
				"NVDA", "META", "NFLX", "AMD", "INTC",
				"JPM", "BAC", "WMT", "DIS", "PYPL",
				"V", "MA", "ADBE", "CRM", "ORCL",
			},
		},
		Game: Game{DefaultRounds: 4, LeaderboardLimit: 10},
	}
}

// Load reads config from path (JSON, or YAML for .yaml/.yml). If path is empty
// it falls back to config.json when present. A .env file, when present, feeds
// the environment, and environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()
	_ = godotenv.Load()

	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// MinGamePool is the smallest pool that can fill a round's four options.
const MinGamePool = 4

// Validate reports configuration the pipeline cannot start without.
func (c Config) Validate() error {
	var errs []error
	if len(nonBlank(c.Finnhub.APIKeys)) == 0 {
		errs = append(errs, errors.New("finnhub.api_keys is required (FINNHUB_API_KEY)"))
	}
	if len(nonBlank(c.TwelveData.APIKeys)) == 0 {
		errs = append(errs, errors.New("twelvedata.api_keys is required (TWELVEDATA_API_KEY)"))
	}
	if n := len(distinct(c.Catalog.GamePool)); n < MinGamePool {
		errs = append(errs, fmt.Errorf("catalog.game_pool needs at least %d distinct symbols, got %d", MinGamePool, n))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	setString("PORT", &cfg.Server.Port)
	setString("ENVIRONMENT", &cfg.Server.Environment)
	setString("LOG_LEVEL", &cfg.Server.LogLevel)
	setInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec, positive)
	setString("DATABASE_DSN", &cfg.Database.DSN)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitCSV(v)
	}

	// Finnhub takes up to two keys; they replace any configured list.
	if k1, k2 := os.Getenv("FINNHUB_API_KEY"), os.Getenv("FINNHUB_API_KEY2"); k1 != "" || k2 != "" {
		cfg.Finnhub.APIKeys = nonBlank([]string{k1, k2})
	}
	setString("FINNHUB_BASE_URL", &cfg.Finnhub.BaseURL)
	applyUpstreamEnv("FINNHUB", &cfg.Finnhub)

	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		cfg.TwelveData.APIKeys = splitCSV(v)
	}
	setString("TWELVEDATA_BASE_URL", &cfg.TwelveData.BaseURL)
	setString("TWELVEDATA_INTERVAL", &cfg.TwelveData.Interval)
	setInt("TWELVEDATA_OUTPUT_SIZE", &cfg.TwelveData.OutputSize, positive)
	applyUpstreamEnv("TWELVEDATA", &cfg.TwelveData.Upstream)

	if v := os.Getenv("GAME_POOL"); v != "" {
		cfg.Catalog.GamePool = splitCSV(v)
	}
}

func applyUpstreamEnv(prefix string, u *Upstream) {
	setInt(prefix+"_MIN_INTERVAL_MS", &u.MinRequestIntervalMs, nonNegative)
	setInt(prefix+"_MAX_IN_FLIGHT", &u.MaxInFlight, positive)
	setInt(prefix+"_MAX_RPM", &u.MaxRequestsPerMinute, nonNegative)
	setInt(prefix+"_BURST", &u.Burst, positive)
}

func positive(x int) bool    { return x > 0 }
func nonNegative(x int) bool { return x >= 0 }

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setInt overrides dst with the integer in key when it parses and passes
// valid. Anything else is logged and the current value kept.
func setInt(key string, dst *int, valid func(int) bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	x, err := strconv.Atoi(v)
	if err != nil || !valid(x) {
		log.Warn().Err(err).Str("env", key).Str("value", v).Int("kept", *dst).Msg("ignoring invalid integer override")
		return
	}
	*dst = x
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

func distinct(in []string) []string {
	out := nonBlank(in)
	slices.Sort(out)
	return slices.Compact(out)
}

func splitCSV(s string) []string {
	return nonBlank(strings.Split(s, ","))
}
