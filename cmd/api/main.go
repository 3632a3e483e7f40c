package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/walletbook/internal/config"
	"github.com/congo-pay/walletbook/internal/infra"
	"github.com/congo-pay/walletbook/internal/logging"
	"github.com/congo-pay/walletbook/internal/metrics"
	"github.com/congo-pay/walletbook/internal/notification"
	"github.com/congo-pay/walletbook/internal/server"
	"github.com/congo-pay/walletbook/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.StorageBackend == config.BackendPostgres {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := infra.MigrateWallets(ctx, db); err != nil {
			logger.Error("migrate postgres", "error", err)
			os.Exit(1)
		}
	}

	store, err := openStore(cfg, db)
	if err != nil {
		logger.Error("open wallet store", "error", err)
		os.Exit(1)
	}
	store = metrics.InstrumentStore(store, cfg.StorageBackend)

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	notifier := notification.Fanout{notification.NewLoggerNotifier(logger)}
	if cache != nil {
		notifier = append(notifier, notification.NewRedisNotifier(cache, notification.DefaultChannel))
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	} else {
		logger.Info("REDIS_URL not set, idempotency replay disabled")
	}

	srv, err := server.New(cfg, store, db, cache, notifier, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()
	logger.Info("walletbook listening",
		slog.String("addr", cfg.Address()),
		slog.String("backend", cfg.StorageBackend))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

func openStore(cfg config.Config, db *pgxpool.Pool) (wallet.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		return wallet.NewPostgresStore(db), nil
	case config.BackendMemory:
		return wallet.NewMemoryStore(), nil
	default:
		return wallet.NewFileStore(cfg.StorageDir)
	}
}
