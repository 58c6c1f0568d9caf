package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketgateway/internal/config"
	"marketgateway/internal/game"
	"marketgateway/internal/httpx"
	"marketgateway/internal/logging"
	"marketgateway/internal/market"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	logger := logging.Setup(cfg.Server.LogLevel, cfg.Server.Environment != "production")
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	svc, err := market.New(cfg, httpClient, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("market service")
	}

	var scores game.ScoreStore
	if cfg.Database.DSN != "" {
		db, err := game.Open(cfg.Database.DSN, cfg.Server.Environment == "development")
		if err != nil {
			log.Fatal().Err(err).Msg("database")
		}
		if scores, err = game.NewGormStore(db); err != nil {
			log.Fatal().Err(err).Msg("score store")
		}
	} else {
		log.Warn().Msg("DATABASE_DSN not set; score endpoints disabled")
	}

	a := &api{
		market:    svc,
		assembler: game.NewAssembler(cfg.Catalog.GamePool, svc.Series()),
		scores:    scores,
		game:      cfg.Game,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(a, cfg.Server, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func newRouter(a *api, cfg config.Server, logger zerolog.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), corsHandler(cfg.AllowedOrigins))
	a.register(r)
	return r
}
