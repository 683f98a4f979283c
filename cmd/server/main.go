package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cierrecaja/internal/config"
	"cierrecaja/internal/denominacion"
	"cierrecaja/internal/infra"
	"cierrecaja/internal/repository"
	"cierrecaja/internal/router"
	"cierrecaja/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.Env == "development" {
		if err := infra.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate development schema")
		}
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	zona, _ := cfg.Location()
	catalogo, err := denominacion.CatalogoPara(cfg.Currency)
	if err != nil {
		log.Fatal().Err(err).Msg("unsupported currency")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	meta := infra.ReporteMeta{Tienda: cfg.StoreName, Simbolo: catalogo.Simbolo, Zona: zona}

	pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
	pool.Register(worker.QueueCierreReporte, worker.JobCierreReporte,
		worker.NewCierreReporteWorker(repository.NewCierreRepository(db), dispatcher, meta, cfg.PDFStoragePath, cfg.SupervisorEmail))
	pool.Register(worker.QueueEmail, worker.JobEmail, worker.NewEmailWorker(mailer))
	pool.Start(ctx)

	r, err := router.New(cfg, db, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("tienda", cfg.StoreName).Msgf("cierre de caja listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	cancel()
	pool.Wait()
	log.Info().Msg("server exited")
}
