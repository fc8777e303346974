package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound occurs when no account matches the requested id,
	// username or token.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientBalance occurs when a debit would take an account
	// balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUsernameTaken indicates a registration attempt for an existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrConflict signals a transient serialization conflict; the whole
	// atomic unit is safe to retry.
	ErrConflict = errors.New("storage conflict")

	// ErrUnavailable signals the store could not complete the request, after
	// retries where applicable.
	ErrUnavailable = errors.New("storage unavailable")
)

const (
	// KindTopUp marks a self-referential transaction injecting external funds.
	KindTopUp = "topup"
	// KindTransfer marks a balance-conserving movement between two accounts.
	KindTransfer = "transfer"
)

// Account is a registered balance holder. Username is immutable after
// creation and Balance never goes below zero between committed mutations.
type Account struct {
	ID           string
	Username     string
	PasswordHash []byte
	Token        string
	Balance      decimal.Decimal
	CreatedAt    time.Time
}

// Transaction is an append-only ledger entry. For KindTopUp the from and to
// usernames are identical; for KindTransfer they differ.
type Transaction struct {
	ID           string
	FromUsername string
	ToUsername   string
	Amount       decimal.Decimal
	Kind         string
	CreatedAt    time.Time
}

// AtomicTx is the handle passed to a unit of work running under RunAtomic.
// Writes staged through it become visible to other callers only when the
// unit commits.
type AtomicTx interface {
	// LockAccounts loads the given accounts for update. Locks are acquired
	// in a canonical order regardless of argument order, so two units
	// touching the same pair of accounts cannot deadlock.
	LockAccounts(ctx context.Context, ids ...string) (map[string]Account, error)
	// UpdateBalance stages a new balance for the account.
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	// AppendTransaction stages a new ledger entry.
	AppendTransaction(ctx context.Context, txn Transaction) error
}

// Store is the contract implemented by ledger backends (Postgres in
// production, an in-memory store for tests and dev mode).
type Store interface {
	// CreateAccount inserts a new account; ErrUsernameTaken when the
	// username is already registered.
	CreateAccount(ctx context.Context, acct Account) error
	Account(ctx context.Context, id string) (Account, error)
	AccountByUsername(ctx context.Context, username string) (Account, error)
	AccountByToken(ctx context.Context, token string) (Account, error)

	// RunAtomic executes fn as one atomic unit: either every write staged
	// through the AtomicTx commits, or none does. Units touching a common
	// account serialize. A transient ErrConflict aborts and retries the
	// whole unit a bounded number of times before ErrUnavailable surfaces.
	RunAtomic(ctx context.Context, fn func(tx AtomicTx) error) error

	// TransfersForAccount returns transfer transactions where the account is
	// sender or recipient, newest first. Top-ups are excluded.
	TransfersForAccount(ctx context.Context, username string) ([]Transaction, error)
	// OutboundTotals sums transferred-out amounts per sender username,
	// restricted to transfers.
	OutboundTotals(ctx context.Context) (map[string]decimal.Decimal, error)
}
