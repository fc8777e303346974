package ranking

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

// topN bounds both ranked views.
const topN = 10

// Entry is one line of an account's ranked history: the counterpart username
// and the signed amount (negative when the account was the sender).
type Entry struct {
	Username string
	Amount   decimal.Decimal
}

// AccountTotal is one line of the global sender ranking.
type AccountTotal struct {
	Username      string
	TotalOutbound decimal.Decimal
}

// Service computes ranked read-only views over the transaction log. Views
// are recomputed from the log on every call; nothing is materialized.
type Service struct {
	store ledger.Store
}

// NewService builds a ranking service over the ledger store.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// UserTopTransactions returns the account's transfers ranked by absolute
// amount, largest first, at most topN. The underlying scan is newest-first
// and the sort is stable, so equal amounts rank most-recent first.
func (s *Service) UserTopTransactions(ctx context.Context, username string) ([]Entry, error) {
	txns, err := s.store.TransfersForAccount(ctx, username)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(txns))
	for _, txn := range txns {
		if txn.FromUsername == username {
			entries = append(entries, Entry{Username: txn.ToUsername, Amount: txn.Amount.Neg()})
		} else {
			entries = append(entries, Entry{Username: txn.FromUsername, Amount: txn.Amount})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Amount.Abs().GreaterThan(entries[j].Amount.Abs())
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries, nil
}

// TopTransactingAccounts ranks senders by total transferred-out amount,
// largest first, at most topN. Accounts with no outbound transfers do not
// appear.
func (s *Service) TopTransactingAccounts(ctx context.Context) ([]AccountTotal, error) {
	totals, err := s.store.OutboundTotals(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]AccountTotal, 0, len(totals))
	for username, total := range totals {
		ranked = append(ranked, AccountTotal{Username: username, TotalOutbound: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].TotalOutbound.Equal(ranked[j].TotalOutbound) {
			return ranked[i].TotalOutbound.GreaterThan(ranked[j].TotalOutbound)
		}
		return ranked[i].Username < ranked[j].Username
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}
