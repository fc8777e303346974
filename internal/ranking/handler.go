package ranking

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

// Handler exposes the ranked transaction views.
type Handler struct {
	service *Service
}

// NewHandler constructs a ranking handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type userTransactionResponse struct {
	Username string          `json:"username"`
	Amount   decimal.Decimal `json:"amount"`
}

type topUserResponse struct {
	Username        string          `json:"username"`
	TransactedValue decimal.Decimal `json:"transacted_value"`
}

// UserTop returns the authenticated account's largest transfers.
func (h *Handler) UserTop(c *fiber.Ctx) error {
	acct, ok := c.Locals("account").(ledger.Account)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	entries, err := h.service.UserTopTransactions(c.UserContext(), acct.Username)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]userTransactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, userTransactionResponse{Username: e.Username, Amount: e.Amount})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// TopUsers returns the accounts that transferred out the most overall.
func (h *Handler) TopUsers(c *fiber.Ctx) error {
	ranked, err := h.service.TopTransactingAccounts(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]topUserResponse, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, topUserResponse{Username: r.Username, TransactedValue: r.TotalOutbound})
	}
	return c.Status(http.StatusOK).JSON(out)
}
