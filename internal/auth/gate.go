// Package auth gates access to the ledger behind a single locally stored
// secret.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// ClearAfter is how long callers should keep an AuthError on display.
const ClearAfter = 3 * time.Second

// State of the gate.
type State int

const (
	NoSecretSet State = iota
	Locked
	Authenticated
)

func (s State) String() string {
	switch s {
	case NoSecretSet:
		return "no_secret_set"
	case Locked:
		return "locked"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AuthError reports a rejected secret or an action not allowed in the
// current state. It does not lock the gate.
type AuthError struct {
	Reason     string
	ClearAfter time.Duration
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// IsAuthError reports whether err carries an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func denied(reason string) error {
	return &AuthError{Reason: reason, ClearAfter: ClearAfter}
}

// Gate tracks whether the local user has presented the stored secret.
type Gate struct {
	store  storage.ConfigStore
	cost   int
	logger *applog.Logger

	mu     sync.Mutex
	authed bool
}

// NewGate returns a locked gate backed by store. cost <= 0 selects
// bcrypt.DefaultCost.
func NewGate(store storage.ConfigStore, cost int, logger *applog.Logger) *Gate {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Gate{store: store, cost: cost, logger: logger.WithComponent(applog.ComponentAuth)}
}

// State reads the stored secret to tell NoSecretSet from Locked.
func (g *Gate) State(ctx context.Context) (State, error) {
	g.mu.Lock()
	authed := g.authed
	g.mu.Unlock()
	if authed {
		return Authenticated, nil
	}
	_, found, err := g.stored(ctx)
	if err != nil {
		return Locked, err
	}
	if !found {
		return NoSecretSet, nil
	}
	return Locked, nil
}

// SetSecret stores the first secret and authenticates. It fails once a
// secret exists.
func (g *Gate) SetSecret(ctx context.Context, secret string) error {
	if err := checkSecret(secret); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	_, found, err := g.stored(ctx)
	if err != nil {
		return err
	}
	if found {
		return denied("secret already set")
	}
	if err := g.write(ctx, secret); err != nil {
		return err
	}
	g.authed = true
	g.logger.InfoContext(ctx, "Secret set", applog.FieldOperation, "set_secret")
	return nil
}

// Login authenticates when secret matches the stored one. Legacy encoded
// secrets are rewritten as bcrypt hashes on success.
func (g *Gate) Login(ctx context.Context, secret string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, found, err := g.stored(ctx)
	if err != nil {
		return err
	}
	if !found {
		return denied("no secret set")
	}
	ok, legacy := matches(entry.Value, secret)
	if !ok {
		g.logger.WarnContext(ctx, "Login rejected",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldErrorType, applog.ErrorTypeAuth)
		return denied("wrong secret")
	}
	if legacy {
		if err := g.write(ctx, secret); err != nil {
			g.logger.WarnContext(ctx, "Legacy secret upgrade failed", applog.FieldError, err.Error())
		} else {
			g.logger.InfoContext(ctx, "Legacy secret upgraded to bcrypt")
		}
	}
	g.authed = true
	g.logger.InfoContext(ctx, "Login succeeded", applog.FieldOperation, applog.OpLogin)
	return nil
}

// Verify checks secret against the stored one without changing state.
func (g *Gate) Verify(ctx context.Context, secret string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verify(ctx, secret)
}

// ChangeSecret replaces the stored secret after checking the old one. The
// check and the write happen under one lock, so of two concurrent changes
// from the same old secret only the first succeeds.
func (g *Gate) ChangeSecret(ctx context.Context, old, secret string) error {
	if err := checkSecret(secret); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.verify(ctx, old); err != nil {
		return err
	}
	if err := g.write(ctx, secret); err != nil {
		return err
	}
	g.authed = true
	g.logger.InfoContext(ctx, "Secret changed", applog.FieldOperation, "change_secret")
	return nil
}

// verify must be called with g.mu held.
func (g *Gate) verify(ctx context.Context, secret string) error {
	entry, found, err := g.stored(ctx)
	if err != nil {
		return err
	}
	if !found {
		return denied("no secret set")
	}
	if ok, _ := matches(entry.Value, secret); !ok {
		return denied("wrong secret")
	}
	return nil
}

// Logout locks the gate again.
func (g *Gate) Logout() {
	g.mu.Lock()
	g.authed = false
	g.mu.Unlock()
}

func (g *Gate) stored(ctx context.Context) (core.ConfigEntry, bool, error) {
	entry, found, err := g.store.GetConfig(ctx, core.PasswordKey)
	if err != nil {
		return core.ConfigEntry{}, false, fmt.Errorf("read secret: %w", err)
	}
	if found && entry.Value == "" {
		return core.ConfigEntry{}, false, nil
	}
	return entry, found, nil
}

func (g *Gate) write(ctx context.Context, secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.cost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	if err := g.store.SetConfig(ctx, core.ConfigEntry{Key: core.PasswordKey, Value: string(hash)}); err != nil {
		return fmt.Errorf("store secret: %w", err)
	}
	return nil
}

// LegacyEncode is the reversible encoding older installations stored.
func LegacyEncode(secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(secret))
}

func isBcrypt(v string) bool {
	return strings.HasPrefix(v, "$2a$") || strings.HasPrefix(v, "$2b$") || strings.HasPrefix(v, "$2y$")
}

// matches compares secret with the stored value. legacy is true when the
// stored value used the old encoding.
func matches(stored, secret string) (ok, legacy bool) {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil, false
	}
	enc := LegacyEncode(secret)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(enc)) == 1, true
}

func checkSecret(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return &core.ValidationError{Field: "secret", Reason: "required"}
	}
	if len(secret) > 72 {
		return &core.ValidationError{Field: "secret", Reason: "too long (max 72 bytes)"}
	}
	return nil
}
