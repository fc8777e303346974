package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pesa-ledger/pesa_ledger/internal/transfer"
)

// RegisterTransferRoutes wires the transfer endpoint.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/transfer", h.Transfer)
}
