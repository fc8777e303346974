package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pesa-ledger/pesa_ledger/internal/balance"
)

// RegisterBalanceRoutes wires balance endpoints for the authenticated account.
func RegisterBalanceRoutes(r fiber.Router, h *balance.Handler) {
	r.Get("/balance", h.Get)
	r.Post("/balance/topup", h.TopUp)
}
