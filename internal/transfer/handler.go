package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	ToUsername string          `json:"to_username"`
	Amount     decimal.Decimal `json:"amount"`
}

// Transfer moves funds from the authenticated account to another username.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	acct, ok := c.Locals("account").(ledger.Account)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Transfer(c.UserContext(), Input{
		SenderID:          acct.ID,
		SenderUsername:    acct.Username,
		RecipientUsername: req.ToUsername,
		Amount:            req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, "amount must be positive")
		case errors.Is(err, ErrSelfTransfer):
			return fiber.NewError(http.StatusBadRequest, "cannot transfer to yourself")
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return fiber.NewError(http.StatusBadRequest, "insufficient balance")
		case errors.Is(err, ErrRecipientNotFound):
			return fiber.NewError(http.StatusNotFound, "recipient not found")
		case errors.Is(err, ledger.ErrUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, "ledger temporarily unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id":    res.TransactionID,
		"sender_balance":    res.SenderBalance,
		"recipient_balance": res.RecipientBalance,
		"completed_at":      res.CompletedAt,
	})
}
