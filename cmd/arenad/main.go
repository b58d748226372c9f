// Command arenad serves the SwarmForge agent-economy arena over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/swarmforge/arena/internal/api"
	"github.com/swarmforge/arena/internal/engine"
	"github.com/swarmforge/arena/internal/hypothesis"
	"github.com/swarmforge/arena/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	port := flag.Int("port", envInt("PORT", 8080), "HTTP listen port")
	dbPath := flag.String("db", "data/arena.db", "SQLite run archive path")
	hypPath := flag.String("hypotheses", "", "optional YAML file with extra hypotheses")
	flag.Parse()

	useMock := envBool("USE_MOCK_TX", true)
	settleURL := os.Getenv("X402_SETTLE_URL")

	// ── Hypothesis catalog ────────────────────────────────────────────
	catalog := hypothesis.Builtin()
	if *hypPath != "" {
		var err error
		catalog, err = hypothesis.LoadYAML(*hypPath)
		if err != nil {
			slog.Error("failed to load hypothesis catalog", "path", *hypPath, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("hypothesis catalog ready", "count", catalog.Len())

	// ── Run archive ───────────────────────────────────────────────────
	if dir := filepath.Dir(*dbPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("run archive opened", "path", *dbPath)

	// ── HTTP API ──────────────────────────────────────────────────────
	srv := &api.Server{
		Runner:      &engine.Runner{Catalog: catalog},
		DB:          db,
		Port:        *port,
		MockDefault: useMock,
		SettleURL:   settleURL,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}
	slog.Info("arenad stopped")
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if raw := os.Getenv(key); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return def
}
