package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"ledger/internal/core"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

func newGate(t *testing.T) (*Gate, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewGate(store, bcrypt.MinCost, nil), store
}

func mustState(t *testing.T, g *Gate, want State) {
	t.Helper()
	got, err := g.State(context.Background())
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if got != want {
		t.Fatalf("state = %v, want %v", got, want)
	}
}

func TestGateLifecycle(t *testing.T) {
	ctx := context.Background()
	g, store := newGate(t)
	mustState(t, g, NoSecretSet)

	if err := g.Login(ctx, "x"); !IsAuthError(err) {
		t.Fatalf("login without secret: %v", err)
	}
	if err := g.SetSecret(ctx, "hunter2"); err != nil {
		t.Fatalf("set secret: %v", err)
	}
	mustState(t, g, Authenticated)

	entry, found, _ := store.GetConfig(ctx, core.PasswordKey)
	if !found || !strings.HasPrefix(entry.Value, "$2") || strings.Contains(entry.Value, "hunter2") {
		t.Fatalf("secret stored as %q", entry.Value)
	}

	g.Logout()
	mustState(t, g, Locked)

	err := g.Login(ctx, "wrong")
	var ae *AuthError
	if !errors.As(err, &ae) || ae.ClearAfter != ClearAfter {
		t.Fatalf("wrong secret: %v", err)
	}
	mustState(t, g, Locked)

	// Repeated failures never lock the user out.
	for i := 0; i < 5; i++ {
		_ = g.Login(ctx, "wrong")
	}
	if err := g.Login(ctx, "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	mustState(t, g, Authenticated)

	if err := g.SetSecret(ctx, "again"); !IsAuthError(err) {
		t.Fatalf("second set secret: %v", err)
	}
}

func TestChangeSecret(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate(t)
	if err := g.SetSecret(ctx, "old"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := g.ChangeSecret(ctx, "nope", "new"); !IsAuthError(err) {
		t.Fatalf("change with wrong old secret: %v", err)
	}
	if err := g.ChangeSecret(ctx, "old", "new"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := g.Verify(ctx, "old"); !IsAuthError(err) {
		t.Fatal("old secret still accepted")
	}
	if err := g.Verify(ctx, "new"); err != nil {
		t.Fatalf("verify new: %v", err)
	}
}

func TestLegacySecretUpgrade(t *testing.T) {
	ctx := context.Background()
	g, store := newGate(t)
	_ = store.SetConfig(ctx, core.ConfigEntry{Key: core.PasswordKey, Value: LegacyEncode("s3cret")})

	mustState(t, g, Locked)
	if err := g.Login(ctx, "wrong"); !IsAuthError(err) {
		t.Fatalf("wrong legacy secret: %v", err)
	}
	if err := g.Login(ctx, "s3cret"); err != nil {
		t.Fatalf("legacy login: %v", err)
	}
	entry, _, _ := store.GetConfig(ctx, core.PasswordKey)
	if !isBcrypt(entry.Value) {
		t.Fatalf("legacy secret not upgraded: %q", entry.Value)
	}
	if err := g.Verify(ctx, "s3cret"); err != nil {
		t.Fatalf("verify after upgrade: %v", err)
	}
}

func TestGateValidationAndStorageErrors(t *testing.T) {
	ctx := context.Background()
	g, store := newGate(t)
	if err := g.SetSecret(ctx, "  "); !core.IsValidationError(err) {
		t.Fatalf("blank secret: %v", err)
	}
	store.FailNext("get_config", 1)
	if _, err := g.State(ctx); !storage.IsStorageError(err) {
		t.Fatalf("state: %v", err)
	}
	store.FailNext("set_config", 1)
	if err := g.SetSecret(ctx, "ok"); !storage.IsStorageError(err) {
		t.Fatalf("set secret: %v", err)
	}
	mustState(t, g, NoSecretSet)
}

func TestConcurrentChangeSecretOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	g, _ := newGate(t)
	if err := g.SetSecret(ctx, "old"); err != nil {
		t.Fatalf("set: %v", err)
	}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = g.ChangeSecret(ctx, "old", fmt.Sprintf("new-%d", i))
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		switch {
		case err == nil && winner >= 0:
			t.Fatalf("changes %d and %d both succeeded", winner, i)
		case err == nil:
			winner = i
		case !IsAuthError(err):
			t.Fatalf("change %d: unexpected error %v", i, err)
		}
	}
	if winner < 0 {
		t.Fatal("no change succeeded")
	}
	if err := g.Verify(ctx, fmt.Sprintf("new-%d", winner)); err != nil {
		t.Fatalf("winning secret not stored: %v", err)
	}
	if err := g.Verify(ctx, "old"); !IsAuthError(err) {
		t.Fatalf("old secret still accepted: %v", err)
	}
}
