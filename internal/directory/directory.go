package directory

import (
	"context"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

// Directory resolves usernames to accounts for transfer recipient lookup.
// It deliberately carries no cache: resolution always reflects the latest
// committed state, so a just-registered user is immediately transferable-to.
type Directory struct {
	store ledger.Store
}

// New builds a directory over the ledger store.
func New(store ledger.Store) *Directory {
	return &Directory{store: store}
}

// Resolve returns the account registered under username, or
// ledger.ErrAccountNotFound.
func (d *Directory) Resolve(ctx context.Context, username string) (ledger.Account, error) {
	return d.store.AccountByUsername(ctx, username)
}
