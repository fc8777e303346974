package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byName  map[string]string
	byToken map[string]string
	log     []Transaction
}

// NewInMemory creates a concurrency-safe in-memory store. It backs unit
// tests and dev mode runs without a database.
func NewInMemory() Store {
	return &memoryStore{
		byID:    make(map[string]Account),
		byName:  make(map[string]string),
		byToken: make(map[string]string),
	}
}

func (s *memoryStore) CreateAccount(_ context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[acct.Username]; exists {
		return ErrUsernameTaken
	}
	s.byID[acct.ID] = acct
	s.byName[acct.Username] = acct.ID
	if acct.Token != "" {
		s.byToken[acct.Token] = acct.ID
	}
	return nil
}

func (s *memoryStore) Account(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (s *memoryStore) AccountByUsername(_ context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return s.byID[id], nil
}

func (s *memoryStore) AccountByToken(_ context.Context, token string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return s.byID[id], nil
}

// RunAtomic holds the store write lock for the whole unit, which gives
// serializability trivially: units never interleave and readers only ever
// observe committed state. Writes are staged on the tx and applied only when
// fn returns nil.
func (s *memoryStore) RunAtomic(ctx context.Context, fn func(tx AtomicTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: s, balances: make(map[string]decimal.Decimal)}
	if err := fn(tx); err != nil {
		return err
	}

	for id, balance := range tx.balances {
		acct := s.byID[id]
		acct.Balance = balance
		s.byID[id] = acct
	}
	s.log = append(s.log, tx.appended...)
	return nil
}

func (s *memoryStore) TransfersForAccount(_ context.Context, username string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Transaction
	// The log is in insertion (time ascending) order; walk it backwards for
	// the newest-first contract.
	for i := len(s.log) - 1; i >= 0; i-- {
		txn := s.log[i]
		if txn.Kind != KindTransfer {
			continue
		}
		if txn.FromUsername == username || txn.ToUsername == username {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (s *memoryStore) OutboundTotals(_ context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]decimal.Decimal)
	for _, txn := range s.log {
		if txn.Kind != KindTransfer {
			continue
		}
		totals[txn.FromUsername] = totals[txn.FromUsername].Add(txn.Amount)
	}
	return totals, nil
}

// memoryTx stages writes while the store lock is held by RunAtomic.
type memoryTx struct {
	store    *memoryStore
	balances map[string]decimal.Decimal
	appended []Transaction
}

func (t *memoryTx) LockAccounts(_ context.Context, ids ...string) (map[string]Account, error) {
	accts := make(map[string]Account, len(ids))
	for _, id := range ids {
		acct, ok := t.store.byID[id]
		if !ok {
			return nil, ErrAccountNotFound
		}
		if staged, ok := t.balances[id]; ok {
			acct.Balance = staged
		}
		accts[id] = acct
	}
	return accts, nil
}

func (t *memoryTx) UpdateBalance(_ context.Context, id string, balance decimal.Decimal) error {
	if _, ok := t.store.byID[id]; !ok {
		return ErrAccountNotFound
	}
	t.balances[id] = balance
	return nil
}

func (t *memoryTx) AppendTransaction(_ context.Context, txn Transaction) error {
	t.appended = append(t.appended, txn)
	return nil
}
