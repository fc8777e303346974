package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

const minPasswordLen = 8

var (
	// ErrInvalidCredentials covers both unknown username and wrong password,
	// so login responses do not reveal which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service manages account registration and login.
type Service struct {
	store ledger.Store
}

// NewService creates an identity service over the ledger store.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// Credentials carry a username/password pair.
type Credentials struct {
	Username string
	Password string
}

// Register creates an account with a zero balance, a bcrypt password hash
// and a fresh bearer token. ledger.ErrUsernameTaken when the username exists.
func (s *Service) Register(ctx context.Context, creds Credentials) (ledger.Account, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return ledger.Account{}, errors.New("username is required")
	}
	if len(creds.Password) < minPasswordLen {
		return ledger.Account{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return ledger.Account{}, err
	}
	token, err := newToken()
	if err != nil {
		return ledger.Account{}, err
	}

	acct := ledger.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Token:        token,
		Balance:      decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return ledger.Account{}, err
	}
	return acct, nil
}

// Login verifies credentials and returns the stored account, including its
// bearer token.
func (s *Service) Login(ctx context.Context, creds Credentials) (ledger.Account, error) {
	acct, err := s.store.AccountByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return ledger.Account{}, ErrInvalidCredentials
		}
		return ledger.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(creds.Password)); err != nil {
		return ledger.Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
