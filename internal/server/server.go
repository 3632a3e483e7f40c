package server

import (
    "context"
    "errors"
    "log/slog"
    "time"

    "github.com/gofiber/fiber/v2"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/redis/go-redis/v9"

    "github.com/congo-pay/walletbook/internal/config"
    "github.com/congo-pay/walletbook/internal/notification"
    "github.com/congo-pay/walletbook/internal/routes"
    "github.com/congo-pay/walletbook/internal/wallet"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
    app *fiber.App
    cfg config.Config
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, store wallet.Store, db *pgxpool.Pool, cache *redis.Client, notifier notification.Notifier, logger *slog.Logger) (*Server, error) {
    if store == nil {
        return nil, errors.New("wallet store is required")
    }

    app := fiber.New(fiber.Config{
        AppName:               cfg.AppName,
        ReadTimeout:           30 * time.Second,
        WriteTimeout:          30 * time.Second,
        DisableStartupMessage: !cfg.IsDev(),
    })

    routes.Setup(app, routes.Deps{Cfg: cfg, Store: store, DB: db, Cache: cache, Logger: logger, Notifier: notifier})

    return &Server{app: app, cfg: cfg}, nil
}

// App exposes the underlying Fiber app for in-process testing.
func (s *Server) App() *fiber.App {
    return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
    return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
    return s.app.ShutdownWithContext(ctx)
}
