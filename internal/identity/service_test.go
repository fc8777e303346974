package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/pesa-ledger/pesa_ledger/internal/ledger"
)

func TestRegisterAndLogin(t *testing.T) {
	store := ledger.NewInMemory()
	svc := NewService(store)
	ctx := context.Background()

	acct, err := svc.Register(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.Token == "" || len(acct.Token) != 64 {
		t.Fatalf("expected a 64-hex token, got %q", acct.Token)
	}
	if !acct.Balance.IsZero() {
		t.Fatalf("new account must start at zero balance, got %s", acct.Balance)
	}

	if _, err := svc.Register(ctx, Credentials{Username: "alice", Password: "another-pass"}); !errors.Is(err, ledger.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	logged, err := svc.Login(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.Token != acct.Token {
		t.Fatalf("login must return the stored token")
	}

	if _, err := svc.Login(ctx, Credentials{Username: "alice", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, Credentials{Username: "ghost", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(ledger.NewInMemory())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "  ", Password: "long-enough"}); err == nil {
		t.Fatalf("expected error for blank username")
	}
	if _, err := svc.Register(ctx, Credentials{Username: "bob", Password: "short"}); err == nil {
		t.Fatalf("expected error for short password")
	}
}
