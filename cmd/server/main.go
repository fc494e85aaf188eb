package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/adapters/http"
	wsignal "github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/adapters/signal"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/app"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/auth"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/config"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	st := store.NewMemoryStore()
	verifier := auth.NewVerifier(cfg.Secret, "connection-hub")
	orch := app.NewOrchestrator(app.SessionPolicy(cfg.SessionPolicy), cfg.RingTimeout, st)
	ctl := wsignal.NewController(orch, verifier, cfg)

	r := router.SetupRouter(ctx, cfg, orch, ctl, st)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("connection hub started")
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
