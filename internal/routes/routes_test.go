package routes

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/config"
	"github.com/pesa-ledger/pesa_ledger/internal/logging"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	cfg := config.Config{AppName: "test", AppEnv: "development"}
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func register(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	status := doJSON(t, app, fiber.MethodPost, "/api/v1/register", "",
		`{"username":"`+username+`","password":"password123"}`, &res)
	if status != fiber.StatusCreated || res.Token == "" {
		t.Fatalf("register %s: status=%d token=%q", username, status, res.Token)
	}
	return res.Token
}

func TestEndToEndLedgerFlow(t *testing.T) {
	app := setupApp(t)

	alice := register(t, app, "alice")
	bob := register(t, app, "bob")

	// Fresh accounts start at zero.
	var bal struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if status := doJSON(t, app, fiber.MethodGet, "/api/v1/balance", alice, "", &bal); status != fiber.StatusOK {
		t.Fatalf("balance: status=%d", status)
	}
	if !bal.Balance.IsZero() {
		t.Fatalf("expected zero starting balance, got %s", bal.Balance)
	}

	if status := doJSON(t, app, fiber.MethodPost, "/api/v1/balance/topup", alice, `{"amount":1000}`, &bal); status != fiber.StatusCreated {
		t.Fatalf("topup: status=%d", status)
	}
	if !bal.Balance.Equal(decimal.NewFromInt(1_000)) {
		t.Fatalf("expected balance 1000 after top-up, got %s", bal.Balance)
	}

	var tr struct {
		TransactionID    string          `json:"transaction_id"`
		SenderBalance    decimal.Decimal `json:"sender_balance"`
		RecipientBalance decimal.Decimal `json:"recipient_balance"`
	}
	if status := doJSON(t, app, fiber.MethodPost, "/api/v1/transfer", alice, `{"to_username":"bob","amount":400}`, &tr); status != fiber.StatusOK {
		t.Fatalf("transfer: status=%d", status)
	}
	if tr.TransactionID == "" || !tr.SenderBalance.Equal(decimal.NewFromInt(600)) || !tr.RecipientBalance.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected transfer result: %+v", tr)
	}

	var history []struct {
		Username string          `json:"username"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if status := doJSON(t, app, fiber.MethodGet, "/api/v1/transactions/user/top", bob, "", &history); status != fiber.StatusOK {
		t.Fatalf("user top: status=%d", status)
	}
	if len(history) != 1 || history[0].Username != "alice" || !history[0].Amount.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected history for bob: %+v", history)
	}

	var topUsers []struct {
		Username        string          `json:"username"`
		TransactedValue decimal.Decimal `json:"transacted_value"`
	}
	if status := doJSON(t, app, fiber.MethodGet, "/api/v1/transactions/top-users", alice, "", &topUsers); status != fiber.StatusOK {
		t.Fatalf("top users: status=%d", status)
	}
	if len(topUsers) != 1 || topUsers[0].Username != "alice" || !topUsers[0].TransactedValue.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected top users: %+v", topUsers)
	}
}

func TestTransferErrorStatuses(t *testing.T) {
	app := setupApp(t)
	alice := register(t, app, "alice")
	register(t, app, "bob")
	doJSON(t, app, fiber.MethodPost, "/api/v1/balance/topup", alice, `{"amount":100}`, nil)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"non-positive amount", `{"to_username":"bob","amount":0}`, fiber.StatusBadRequest},
		{"self transfer", `{"to_username":"alice","amount":10}`, fiber.StatusBadRequest},
		{"unknown recipient", `{"to_username":"ghost","amount":10}`, fiber.StatusNotFound},
		{"insufficient balance", `{"to_username":"bob","amount":101}`, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if status := doJSON(t, app, fiber.MethodPost, "/api/v1/transfer", alice, tc.body, nil); status != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, status)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/v1/balance", "/api/v1/transactions/user/top", "/api/v1/transactions/top-users"} {
		if status := doJSON(t, app, fiber.MethodGet, path, "", "", nil); status != fiber.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, status)
		}
	}
	if status := doJSON(t, app, fiber.MethodPost, "/api/v1/transfer", "", `{"to_username":"bob","amount":1}`, nil); status != fiber.StatusUnauthorized {
		t.Fatalf("transfer without token: expected 401, got %d", status)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	app := setupApp(t)
	register(t, app, "alice")

	status := doJSON(t, app, fiber.MethodPost, "/api/v1/register", "",
		`{"username":"alice","password":"password456"}`, nil)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", status)
	}
}
