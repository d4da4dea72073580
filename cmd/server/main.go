package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/stickyptyltd-glitch/MindMend-sub003/internal/adapters/http"
	wsignal "github.com/stickyptyltd-glitch/MindMend-sub003/internal/adapters/signal"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/app"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/archive"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/config"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Secret == "" {
		log.Warn().Msg("no cookie secret configured, using an ephemeral one")
		cfg.Secret = uuid.NewString() + uuid.NewString()
	}

	hub := core.NewHub()
	notifier := &app.Notifier{Hub: hub, Policy: app.SimplePolicy{}}
	reg := app.NewRegistry(app.WithEvents(notifier))
	limiter := router.NewCallerLimiter(cfg.JoinRate, cfg.JoinBurst)

	reaper := &app.Reaper{
		Registry:       reg,
		WaitingTTL:     cfg.WaitingTTL,
		EndedRetention: cfg.EndedRetention,
		OnSweep:        func(now time.Time) { limiter.Evict(now) },
	}
	deps := router.Deps{
		Registry: reg,
		Limiter:  limiter,
		Signal: wsignal.NewSignalWSController(reg, hub, wsignal.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			WriteWait:  cfg.WriteWait,
		}),
	}
	if cfg.ArchiveDSN != "" {
		store, err := archive.Open(ctx, cfg.ArchiveDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open archive")
		}
		defer store.Close()
		reaper.Archive = store
		deps.Archive = store
	}
	go reaper.Run(ctx, cfg.ReapInterval)

	r := router.SetupRouter(ctx, cfg, deps)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("session link server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
