package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fernwell/royaltyd/internal/api"
	"github.com/fernwell/royaltyd/internal/config"
	"github.com/fernwell/royaltyd/internal/engine"
	"github.com/fernwell/royaltyd/internal/store"
)

func main() {
	// Optional .env for local development; flags and real env still win.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("ROYALTYD_ADDR", ":8080"), "HTTP listen address")
	rulesPath := flag.String("rules", envOr("ROYALTYD_RULES", "configs/rules.yaml"), "Path to rules YAML file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load rules ────────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*rulesPath)
	if err != nil {
		slog.Error("failed to load rules", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("rule validation failed", "err", err)
		os.Exit(1)
	}
	slog.Info("rules loaded", "contracts", len(cfg.Contracts))

	// ── Store and calculator ──────────────────────────────────────────────────
	ruleStore := store.New(loader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calc := engine.New(ctx, ruleStore, cfg.Engine)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload: rule file invalid, snapshots kept", "err", err)
			return
		}
		ruleStore.Invalidate()
		slog.Info("rules hot-reloaded", "contracts", len(newCfg.Contracts))
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("rule watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(calc, ruleStore, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop worker pool
	calc.Shutdown()
	slog.Info("goodbye")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
