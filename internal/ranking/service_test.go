package ranking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

func seedTransfer(t *testing.T, store ledger.Store, from, to string, amount int64) {
	t.Helper()
	err := store.RunAtomic(context.Background(), func(tx ledger.AtomicTx) error {
		return tx.AppendTransaction(context.Background(), ledger.Transaction{
			ID:           uuid.NewString(),
			FromUsername: from,
			ToUsername:   to,
			Amount:       decimal.NewFromInt(amount),
			Kind:         ledger.KindTransfer,
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("seed transfer %s->%s: %v", from, to, err)
	}
}

func seedTopUp(t *testing.T, store ledger.Store, username string, amount int64) {
	t.Helper()
	err := store.RunAtomic(context.Background(), func(tx ledger.AtomicTx) error {
		return tx.AppendTransaction(context.Background(), ledger.Transaction{
			ID:           uuid.NewString(),
			FromUsername: username,
			ToUsername:   username,
			Amount:       decimal.NewFromInt(amount),
			Kind:         ledger.KindTopUp,
			CreatedAt:    time.Now().UTC(),
		})
	})
	if err != nil {
		t.Fatalf("seed top-up for %s: %v", username, err)
	}
}

func TestUserTopTransactionsSignsAndOrders(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)
	ctx := context.Background()

	// Oldest first: alice sent 500 to bob, then 800 to carol. Top-ups never
	// rank.
	seedTopUp(t, store, "alice", 9_999)
	seedTransfer(t, store, "alice", "bob", 500)
	seedTransfer(t, store, "alice", "carol", 800)

	entries, err := svc.UserTopTransactions(ctx, "alice")
	if err != nil {
		t.Fatalf("user top transactions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Username != "carol" || !entries[0].Amount.Equal(decimal.NewFromInt(-800)) {
		t.Fatalf("expected {carol, -800} first, got %+v", entries[0])
	}
	if entries[1].Username != "bob" || !entries[1].Amount.Equal(decimal.NewFromInt(-500)) {
		t.Fatalf("expected {bob, -500} second, got %+v", entries[1])
	}
}

func TestUserTopTransactionsCreditsArePositive(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)

	seedTransfer(t, store, "bob", "alice", 300)
	seedTransfer(t, store, "alice", "bob", 200)

	entries, err := svc.UserTopTransactions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user top transactions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Username != "bob" || !entries[0].Amount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("incoming transfer must rank positive: %+v", entries[0])
	}
	if !entries[1].Amount.Equal(decimal.NewFromInt(-200)) {
		t.Fatalf("outgoing transfer must rank negative: %+v", entries[1])
	}
}

func TestUserTopTransactionsTieBreaksMostRecentFirst(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)

	seedTransfer(t, store, "alice", "bob", 400)
	seedTransfer(t, store, "alice", "carol", 400)

	entries, err := svc.UserTopTransactions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user top transactions: %v", err)
	}
	if entries[0].Username != "carol" || entries[1].Username != "bob" {
		t.Fatalf("equal amounts must rank most-recent first: %+v", entries)
	}
}

func TestUserTopTransactionsCapsAtTen(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)

	for i := 1; i <= 15; i++ {
		seedTransfer(t, store, "alice", fmt.Sprintf("peer%02d", i), int64(i*100))
	}

	entries, err := svc.UserTopTransactions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user top transactions: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}
	if entries[0].Username != "peer15" || entries[9].Username != "peer06" {
		t.Fatalf("wrong ranking window: first=%s last=%s", entries[0].Username, entries[9].Username)
	}
}

func TestUserTopTransactionsEmpty(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	entries, err := svc.UserTopTransactions(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user top transactions: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v", entries)
	}
}

func TestTopTransactingAccounts(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)

	seedTransfer(t, store, "alice", "bob", 1_000)
	seedTransfer(t, store, "alice", "carol", 2_000)
	seedTransfer(t, store, "dave", "bob", 500)
	seedTopUp(t, store, "bob", 50_000)

	ranked, err := svc.TopTransactingAccounts(context.Background())
	if err != nil {
		t.Fatalf("top transacting accounts: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked senders, got %d", len(ranked))
	}
	if ranked[0].Username != "alice" || !ranked[0].TotalOutbound.Equal(decimal.NewFromInt(3_000)) {
		t.Fatalf("expected {alice, 3000} first, got %+v", ranked[0])
	}
	if ranked[1].Username != "dave" || !ranked[1].TotalOutbound.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected {dave, 500} second, got %+v", ranked[1])
	}
}

func TestTopTransactingAccountsCapsAtTen(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)

	for i := 1; i <= 12; i++ {
		seedTransfer(t, store, fmt.Sprintf("sender%02d", i), "sink", int64(i*10))
	}

	ranked, err := svc.TopTransactingAccounts(context.Background())
	if err != nil {
		t.Fatalf("top transacting accounts: %v", err)
	}
	if len(ranked) != 10 {
		t.Fatalf("expected 10 ranked senders, got %d", len(ranked))
	}
	if ranked[0].Username != "sender12" {
		t.Fatalf("expected sender12 first, got %s", ranked[0].Username)
	}
}
