package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pesa-ledger/pesa_ledger/internal/identity"
)

// RegisterIdentityRoutes wires registration and login endpoints. The rate
// limiter guards the login path only.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler, loginRateLimit fiber.Handler) {
	r.Post("/register", h.Register)
	r.Post("/login", loginRateLimit, h.Login)
}
