package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-adoption/internal/adapters/auth/jwtauth"
	pg "pet-adoption/internal/adapters/storage/postgres"
	"pet-adoption/internal/platform/config"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// sin config no hay proceso; logger todavía no existe
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	opts := router.Options{
		Log:        log,
		Metrics:    metrics.NewAdoptionMetrics(),
		BcryptCost: cfg.BcryptCost,
	}

	// Sin JWT_SECRET el middleware cae al modo dev (X-Debug-User-ID).
	if cfg.JWTSecret != "" {
		mgr := jwtauth.New(cfg.JWTSecret, cfg.TokenTTL)
		opts.AuthVerifier = mgr
		opts.TokenIssuer = mgr
	} else {
		log.Warn("JWT_SECRET not set, running in dev auth mode", nil)
	}

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		opts.DB = db
		log.Info("storage: postgres", nil)
	} else {
		log.Info("storage: in-memory", nil)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", map[string]any{"err": err.Error()})
		}
	}
}
