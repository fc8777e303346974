package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	atomicAttempts = 3
	atomicBackoff  = 25 * time.Millisecond
)

// PostgresStore persists accounts and the transaction log in PostgreSQL.
// Atomic units run inside a database transaction with row locks taken in a
// canonical order.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateAccount inserts a new account row.
func (s *PostgresStore) CreateAccount(ctx context.Context, acct Account) error {
	_, err := s.db.Exec(ctx, `INSERT INTO accounts (id, username, password_hash, token, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		acct.ID, acct.Username, acct.PasswordHash, acct.Token, acct.Balance.String(), acct.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

const accountColumns = `id, username, password_hash, token, balance::text, created_at`

// Account fetches an account by id.
func (s *PostgresStore) Account(ctx context.Context, id string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// AccountByUsername fetches an account by its unique username.
func (s *PostgresStore) AccountByUsername(ctx context.Context, username string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// AccountByToken fetches the account bound to a bearer token.
func (s *PostgresStore) AccountByToken(ctx context.Context, token string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE token = $1`, token)
	return scanAccount(row)
}

// RunAtomic runs fn inside a database transaction. Serialization conflicts
// and deadlocks abort the transaction and the whole unit is retried with
// backoff; retries exhausted surface as ErrUnavailable.
func (s *PostgresStore) RunAtomic(ctx context.Context, fn func(tx AtomicTx) error) error {
	var lastErr error
	for attempt := 0; attempt < atomicAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(atomicBackoff << (attempt - 1)):
			}
		}

		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: conflict retries exhausted: %v", ErrUnavailable, lastErr)
}

func (s *PostgresStore) runOnce(ctx context.Context, fn func(tx AtomicTx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return asConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return asConflict(err)
	}
	return nil
}

// asConflict maps transient SQLSTATEs (serialization failure, deadlock) to
// ErrConflict so RunAtomic knows the unit is retryable.
func asConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}

// TransfersForAccount scans the log for transfers touching the account,
// newest first.
func (s *PostgresStore) TransfersForAccount(ctx context.Context, username string) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT id, from_username, to_username, amount::text, kind, created_at
        FROM transactions
        WHERE kind = 'transfer' AND (from_username = $1 OR to_username = $1)
        ORDER BY created_at DESC`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			txn    Transaction
			amount string
		)
		if err := rows.Scan(&txn.ID, &txn.FromUsername, &txn.ToUsername, &amount, &txn.Kind, &txn.CreatedAt); err != nil {
			return nil, err
		}
		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount for transaction %s: %w", txn.ID, err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

// OutboundTotals sums transferred-out amounts grouped by sender.
func (s *PostgresStore) OutboundTotals(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := s.db.Query(ctx, `SELECT from_username, SUM(amount)::text
        FROM transactions
        WHERE kind = 'transfer'
        GROUP BY from_username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			username string
			sum      string
		)
		if err := rows.Scan(&username, &sum); err != nil {
			return nil, err
		}
		total, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, fmt.Errorf("parse outbound total for %s: %w", username, err)
		}
		totals[username] = total
	}
	return totals, rows.Err()
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAccounts(ctx context.Context, ids ...string) (map[string]Account, error) {
	ordered := make([]string, len(ids))
	copy(ordered, ids)
	sort.Strings(ordered)

	accts := make(map[string]Account, len(ordered))
	for _, id := range ordered {
		row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
		acct, err := scanAccount(row)
		if err != nil {
			return nil, err
		}
		accts[id] = acct
	}
	return accts, nil
}

func (t *pgTx) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, balance.String(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, txn Transaction) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO transactions (id, from_username, to_username, amount, kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		txn.ID, txn.FromUsername, txn.ToUsername, txn.Amount.String(), txn.Kind, txn.CreatedAt.UTC())
	return err
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acct    Account
		balance string
	)
	err := row.Scan(&acct.ID, &acct.Username, &acct.PasswordHash, &acct.Token, &balance, &acct.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	if acct.Balance, err = decimal.NewFromString(balance); err != nil {
		return Account{}, fmt.Errorf("parse balance for account %s: %w", acct.ID, err)
	}
	return acct, nil
}
