package routes

import (
    "log/slog"
    "net/http"
    "time"

    "github.com/gofiber/fiber/v2"
    "github.com/gofiber/fiber/v2/middleware/adaptor"
    "github.com/gofiber/fiber/v2/middleware/recover"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/congo-pay/walletbook/internal/aggregation"
    "github.com/congo-pay/walletbook/internal/config"
    "github.com/congo-pay/walletbook/internal/middleware"
    "github.com/congo-pay/walletbook/internal/notification"
    "github.com/congo-pay/walletbook/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
    Cfg      config.Config
    Store    wallet.Store
    DB       *pgxpool.Pool
    Cache    *redis.Client
    Logger   *slog.Logger
    Notifier notification.Notifier // nil disables wallet events
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) {
    app.Use(recover.New())
    app.Use(middleware.RequestID())
    app.Use(middleware.Audit(d.Logger))

    RegisterHealthRoutes(app, d)
    app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

    walletHandler := wallet.NewHandler(wallet.NewService(d.Store, d.Logger).WithNotifier(d.Notifier))
    groupedHandler := aggregation.NewHandler(aggregation.NewService(d.Store, d.Logger))

    api := app.Group("/api/v1")
    api.Get("/ping", func(c *fiber.Ctx) error {
        reqID, _ := c.Locals(middleware.RequestIDKey).(string)
        return c.Status(http.StatusOK).JSON(fiber.Map{
            "status":     "ok",
            "request_id": reqID,
            "timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
        })
    })

    // Replays only apply to writes; without a cache POSTs run unguarded.
    var writeGuards []fiber.Handler
    if d.Cache != nil {
        writeGuards = append(writeGuards, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
    }

    RegisterWalletRoutes(api, walletHandler, writeGuards...)
    RegisterTransactionRoutes(api, groupedHandler)
}
