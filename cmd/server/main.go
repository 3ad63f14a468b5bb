package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/tablekit/internal/config"
	"github.com/JonMunkholm/tablekit/internal/dataset"
	"github.com/JonMunkholm/tablekit/internal/logging"
	"github.com/JonMunkholm/tablekit/internal/metrics"
	"github.com/JonMunkholm/tablekit/internal/store"
	"github.com/JonMunkholm/tablekit/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"in_memory", cfg.Database.InMemory(),
		"default_page_size", cfg.Table.DefaultPageSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"api_key_required", cfg.Security.RequireAPIKey,
	)

	dataset.RegisterDemo()

	ctx := context.Background()
	rows, closeRows, err := openRows(ctx, cfg)
	if err != nil {
		slog.Error("failed to open row source", "error", err)
		os.Exit(1)
	}
	defer closeRows()

	slog.Info("tables registered",
		"count", dataset.Count(),
		"groups", len(dataset.Groups()),
	)
	for _, group := range dataset.Groups() {
		slog.Debug("table group", "group", group, "tables", len(dataset.ByGroup(group)))
	}

	server := web.NewServer(cfg, rows, metrics.Default())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openRows serves the demo datasets from memory when no database is
// configured, and otherwise queries PostgreSQL.
func openRows(ctx context.Context, cfg *config.Config) (store.RowSource, func(), error) {
	if cfg.Database.InMemory() {
		mem := store.NewMemory()
		n := mem.LoadSeeds(dataset.All()...)
		slog.Info("serving datasets from memory", "datasets", n)
		return mem, func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return store.NewPostgres(pool, cfg.Database.QueryTimeout), pool.Close, nil
}
