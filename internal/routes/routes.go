package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pesa-ledger/pesa_ledger/internal/balance"
	"github.com/pesa-ledger/pesa_ledger/internal/config"
	"github.com/pesa-ledger/pesa_ledger/internal/directory"
	"github.com/pesa-ledger/pesa_ledger/internal/identity"
	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
	"github.com/pesa-ledger/pesa_ledger/internal/middleware"
	"github.com/pesa-ledger/pesa_ledger/internal/notification"
	"github.com/pesa-ledger/pesa_ledger/internal/ranking"
	"github.com/pesa-ledger/pesa_ledger/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Outside dev the ledger must be durable and idempotency enforced, even
	// though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Ledger backend
	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewInMemory()
	}

	// Services and handlers
	dir := directory.New(store)
	notifier := notification.NewLoggerNotifier(d.Logger)
	identityHandler := identity.NewHandler(identity.NewService(store))
	balanceHandler := balance.NewHandler(balance.NewService(store, d.Cfg.MaxTopUp))
	transferHandler := transfer.NewHandler(transfer.NewService(store, dir, notifier))
	rankingHandler := ranking.NewHandler(ranking.NewService(store))

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identityHandler, middleware.LoginRateLimit(d.Cache, 5))

	// Protected routes
	protected := api.Group("", middleware.TokenAuth(store))
	RegisterBalanceRoutes(protected, balanceHandler)
	RegisterTransferRoutes(protected, transferHandler)
	RegisterRankingRoutes(protected, rankingHandler)

	return nil
}
