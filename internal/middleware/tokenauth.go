package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

// AccountKey is the fiber locals key under which the authenticated account
// is stored.
const AccountKey = "account"

// TokenAuth resolves the bearer token from the Authorization header to an
// account and stashes it in the request locals. Requests without a valid
// token are rejected with 401.
func TokenAuth(store ledger.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "authentication token is required")
		}

		acct, err := store.AccountByToken(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountNotFound) {
				return fiber.NewError(http.StatusUnauthorized, "invalid token")
			}
			return fiber.NewError(http.StatusInternalServerError, "token lookup failed")
		}

		c.Locals(AccountKey, acct)
		return c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	// Accept a bare token as well.
	return strings.TrimSpace(header)
}
