package balance

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

// Handler exposes balance HTTP endpoints for the authenticated account.
type Handler struct {
	service *Service
}

// NewHandler builds a balance HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type topUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopUp credits the caller's own balance.
func (h *Handler) TopUp(c *fiber.Ctx) error {
	acct, ok := c.Locals("account").(ledger.Account)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req topUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	newBalance, err := h.service.TopUp(c.UserContext(), acct.ID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, "amount must be positive and at most the top-up maximum")
		case errors.Is(err, ledger.ErrUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "ledger temporarily unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"balance":   newBalance,
		"timestamp": time.Now().UTC(),
	})
}

// Get returns the caller's current balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	acct, ok := c.Locals("account").(ledger.Account)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	bal, err := h.service.Balance(c.UserContext(), acct.ID)
	if err != nil {
		// The caller authenticated, so a missing account row is an integrity
		// fault, not a client error.
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":   bal,
		"timestamp": time.Now().UTC(),
	})
}
