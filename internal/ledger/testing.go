package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that overwrites an account balance directly
// when using the in-memory store.
func SeedBalance(s Store, id string, balance decimal.Decimal) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		acct := mem.byID[id]
		acct.Balance = balance
		mem.byID[id] = acct
	}
}
