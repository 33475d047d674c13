package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/park285/tap-racer/internal/archive"
	"github.com/park285/tap-racer/internal/gateway"
	"github.com/park285/tap-racer/internal/lobby"
	"github.com/park285/tap-racer/internal/msgcat"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/park285/tap-racer/internal/stats"
	"go.uber.org/zap"
)

func runServe(ctx context.Context, opts *options) error {
	cfg := loadConfig(opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fmt.Errorf("messages: %w", err)
	}
	auth, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	deps := gateway.Deps{
		Store:            st,
		Registry:         lobby.NewRegistry(st),
		Recorder:         stats.NewRecorder(st),
		Stats:            stats.NewAggregator(st),
		Auth:             auth,
		Catalog:          cat,
		Origin:           cfg.PublicOrigin,
		LeaderboardLimit: cfg.LeaderboardLimit,
	}
	if cfg.DatabaseURL != "" {
		repo, err := archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		defer repo.Close()
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = repo.EnsureSchema(sctx)
		cancel()
		if err != nil {
			return fmt.Errorf("archive schema: %w", err)
		}
		deps.Archive = repo
		deps.Races = repo
	}

	gw, err := gateway.New(deps)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gw.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		obslog.L().Info("http_listen",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreBackend),
			zap.String("auth", cfg.AuthMode),
			zap.Bool("archive", cfg.DatabaseURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			return err
		}
	}

	obslog.L().Info("http_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
