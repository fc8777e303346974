package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pesa-ledger/pesa_ledger/internal/ranking"
)

// RegisterRankingRoutes wires the ranked transaction views.
func RegisterRankingRoutes(r fiber.Router, h *ranking.Handler) {
	r.Get("/transactions/user/top", h.UserTop)
	r.Get("/transactions/top-users", h.TopUsers)
}
