// Package identity is the boundary to the identity provider that owns user
// accounts and emits sign-in state changes.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/finlens/internal/model"
)

// Canonical provider error codes.
const (
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeWrongPassword     = "auth/wrong-password"
	CodeUserNotFound      = "auth/user-not-found"
	CodeUserDisabled      = "auth/user-disabled"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeNetwork           = "auth/network-request-failed"
	CodeInternal          = "auth/internal-error"
)

// ErrNotConfigured is returned when the provider is missing its API key.
var ErrNotConfigured = errors.New("identity: provider is not configured")

// Error is a failure reported by the identity provider.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the provider code carried by err, or "" if it has none.
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// StateFunc receives the signed-in identity, or nil when signed out.
type StateFunc func(*model.Identity)

// Provider is the identity provider surface finlens uses.
//
// OnAuthStateChanged registers fn and calls it once with the current state
// as soon as that state is known, then again after every change. Calls are
// delivered one at a time.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*model.Identity, error)
	SignIn(ctx context.Context, email, password string) (*model.Identity, error)
	SignOut(ctx context.Context) error
	OnAuthStateChanged(fn StateFunc) (unsubscribe func())
}
