// Command server runs the food product API: product search and barcode
// lookup backed by Open Food Facts, ingredient health analysis backed by a
// hosted language model, and OCR of label photos, with resolved records
// cached in local SQLite tables.
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/healthybites/go-food-backend/internal/config"
	httpapi "github.com/healthybites/go-food-backend/internal/http"
	"github.com/healthybites/go-food-backend/internal/observability"
	"github.com/healthybites/go-food-backend/internal/ocr"
	"github.com/healthybites/go-food-backend/internal/openfoodfacts"
	"github.com/healthybites/go-food-backend/internal/repo"
	"github.com/healthybites/go-food-backend/internal/sysutil"
	"github.com/healthybites/go-food-backend/internal/watsonx"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments use the process environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database migration failed")
	}

	deps := httpapi.Deps{
		DB:        db,
		Directory: openfoodfacts.New(cfg.OpenFoodFacts.SearchURL, cfg.OpenFoodFacts.ProductURL, cfg.OpenFoodFacts.Timeout),
		Generator: watsonx.New(cfg.Watsonx),
		Extractor: ocr.New(cfg.Discovery),
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
