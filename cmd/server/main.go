// Command server runs the demand aggregation HTTP backend.
//
// Startup order: env, config, logging, database, tracing, notification
// dispatcher, router. Shutdown drains in-flight requests, closes the
// dispatcher, flushes traces, and closes the database.
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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/provelab/go-demand-backend/docs"
	"github.com/provelab/go-demand-backend/internal/config"
	httpapi "github.com/provelab/go-demand-backend/internal/http"
	"github.com/provelab/go-demand-backend/internal/notify"
	"github.com/provelab/go-demand-backend/internal/observability"
	"github.com/provelab/go-demand-backend/internal/repo"
	"github.com/provelab/go-demand-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title       Demand Aggregation API
// @version     1.0
// @description Crowdsourced demand aggregation and prioritization for product testing.
// @BasePath    /api/v1
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", sysutil.FirstNonEmpty(cfg.OTEL.ServiceName, "demand-engine")).Logger()

	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate schema")
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("setup tracing")
	}

	dispatcher := notify.NewDispatcher(notify.LogSink{Log: logger}, cfg.NotifyBuffer, logger)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, dispatcher, cfg)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

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
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	dispatcher.Close()

	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("flush traces")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info().Msg("server exited")
}
