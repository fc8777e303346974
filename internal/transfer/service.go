package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/directory"
	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
	"github.com/pesa-ledger/pesa_ledger/internal/notification"
)

var (
	// ErrInvalidAmount occurs when the transfer amount is not positive.
	ErrInvalidAmount = errors.New("transfer amount must be positive")
	// ErrSelfTransfer occurs when sender and recipient are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to yourself")
	// ErrRecipientNotFound occurs when no account has the recipient username.
	ErrRecipientNotFound = errors.New("recipient not found")
)

// Service moves funds between accounts as atomic ledger units.
type Service struct {
	store    ledger.Store
	dir      *directory.Directory
	notifier notification.Notifier
}

// NewService constructs a transfer service.
func NewService(store ledger.Store, dir *directory.Directory, notifier notification.Notifier) *Service {
	return &Service{store: store, dir: dir, notifier: notifier}
}

// Input captures the data needed to move funds to another account.
type Input struct {
	SenderID          string
	SenderUsername    string
	RecipientUsername string
	Amount            decimal.Decimal
}

// Result describes the ledger outcome of a completed transfer.
type Result struct {
	TransactionID    string
	SenderBalance    decimal.Decimal
	RecipientBalance decimal.Decimal
	CompletedAt      time.Time
}

// Transfer debits the sender, credits the recipient and appends the ledger
// entry in one atomic unit. The insufficient-balance check runs inside that
// unit, against the sender balance re-read under lock, so concurrent
// transfers cannot overdraw against a stale read.
func (s *Service) Transfer(ctx context.Context, in Input) (Result, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return Result{}, ErrInvalidAmount
	}
	// Self-transfer is decidable without storage access, so it is the
	// earliest check.
	if in.RecipientUsername == in.SenderUsername {
		return Result{}, ErrSelfTransfer
	}

	recipient, err := s.dir.Resolve(ctx, in.RecipientUsername)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return Result{}, ErrRecipientNotFound
		}
		return Result{}, err
	}

	var res Result
	err = s.store.RunAtomic(ctx, func(tx ledger.AtomicTx) error {
		accts, err := tx.LockAccounts(ctx, in.SenderID, recipient.ID)
		if err != nil {
			return err
		}
		sender := accts[in.SenderID]
		if sender.Balance.LessThan(in.Amount) {
			return ledger.ErrInsufficientBalance
		}

		res.SenderBalance = sender.Balance.Sub(in.Amount)
		res.RecipientBalance = accts[recipient.ID].Balance.Add(in.Amount)
		if err := tx.UpdateBalance(ctx, in.SenderID, res.SenderBalance); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, recipient.ID, res.RecipientBalance); err != nil {
			return err
		}

		res.TransactionID = uuid.NewString()
		return tx.AppendTransaction(ctx, ledger.Transaction{
			ID:           res.TransactionID,
			FromUsername: sender.Username,
			ToUsername:   recipient.Username,
			Amount:       in.Amount,
			Kind:         ledger.KindTransfer,
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		return Result{}, err
	}
	res.CompletedAt = time.Now().UTC()

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: recipient.Username,
			Body:        fmt.Sprintf("You received %s from %s", in.Amount, in.SenderUsername),
		})
	}
	return res, nil
}
