package balance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

// ErrInvalidAmount occurs when a top-up amount is non-positive or exceeds
// the policy maximum.
var ErrInvalidAmount = errors.New("invalid amount")

// DefaultMaxTopUp is the policy ceiling for a single top-up.
var DefaultMaxTopUp = decimal.NewFromInt(10_000_000)

// Service applies top-ups and serves balance reads.
type Service struct {
	store    ledger.Store
	maxTopUp decimal.Decimal
}

// NewService builds a balance service. A non-positive maxTopUp falls back to
// DefaultMaxTopUp.
func NewService(store ledger.Store, maxTopUp decimal.Decimal) *Service {
	if maxTopUp.LessThanOrEqual(decimal.Zero) {
		maxTopUp = DefaultMaxTopUp
	}
	return &Service{store: store, maxTopUp: maxTopUp}
}

// TopUp credits the account and appends the matching self-referential ledger
// entry in one atomic unit. Returns the new balance.
func (s *Service) TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(s.maxTopUp) {
		return decimal.Decimal{}, ErrInvalidAmount
	}

	var newBalance decimal.Decimal
	err := s.store.RunAtomic(ctx, func(tx ledger.AtomicTx) error {
		accts, err := tx.LockAccounts(ctx, accountID)
		if err != nil {
			return err
		}
		acct := accts[accountID]
		newBalance = acct.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		return tx.AppendTransaction(ctx, ledger.Transaction{
			ID:           uuid.NewString(),
			FromUsername: acct.Username,
			ToUsername:   acct.Username,
			Amount:       amount,
			Kind:         ledger.KindTopUp,
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return newBalance, nil
}

// Balance returns the current committed balance for the account. Callers are
// pre-authenticated, so ledger.ErrAccountNotFound here is a data-integrity
// fault rather than a user error.
func (s *Service) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acct, err := s.store.Account(ctx, accountID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return acct.Balance, nil
}
