package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/congo-pay/walletbook/internal/aggregation"
    "github.com/congo-pay/walletbook/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints. guards run before
// every mutating handler.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, guards ...fiber.Handler) {
    r.Get("/wallets", h.List)
    r.Post("/wallets", append(guards[:len(guards):len(guards)], h.Create)...)
    r.Get("/wallets/:walletId", h.Get)
    r.Post("/wallets/:walletId/transactions", append(guards[:len(guards):len(guards)], h.AddTransaction)...)
}

// RegisterTransactionRoutes wires cross-wallet transaction views.
func RegisterTransactionRoutes(r fiber.Router, h *aggregation.Handler) {
    r.Get("/transactions/grouped", h.Grouped)
}
