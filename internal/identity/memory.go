package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/theirongolddev/finlens/internal/model"
)

// Memory is an in-process Provider holding accounts in a map. It applies the
// same validation rules as the hosted provider.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]memoryAccount // keyed by lower-cased email
	current  *model.Identity

	// SignOutErr, when set, is returned by SignOut after the user has been
	// signed out locally.
	SignOutErr error

	d *dispatcher
}

type memoryAccount struct {
	uid      string
	password string
}

// NewMemory returns an empty in-memory provider with nobody signed in.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]memoryAccount),
		d:        newDispatcher(),
	}
}

// Close stops callback delivery.
func (m *Memory) Close() { m.d.close() }

// CreateAccount registers and signs in a new account.
func (m *Memory) CreateAccount(_ context.Context, email, password string) (*model.Identity, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if !validEmail(key) {
		return nil, &Error{Code: CodeInvalidEmail}
	}
	if len(password) < minPasswordLen {
		return nil, &Error{Code: CodeWeakPassword, Message: "Password should be at least 6 characters"}
	}

	m.mu.Lock()
	if _, ok := m.accounts[key]; ok {
		m.mu.Unlock()
		return nil, &Error{Code: CodeEmailInUse}
	}
	acct := memoryAccount{uid: uuid.NewString(), password: password}
	m.accounts[key] = acct
	ident := &model.Identity{UID: acct.uid, Email: key}
	m.current = ident
	m.d.send(0, ident)
	m.mu.Unlock()

	return cloneIdentity(ident), nil
}

// SignIn signs in an existing account.
func (m *Memory) SignIn(_ context.Context, email, password string) (*model.Identity, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if !validEmail(key) {
		return nil, &Error{Code: CodeInvalidEmail}
	}

	m.mu.Lock()
	acct, ok := m.accounts[key]
	if !ok {
		m.mu.Unlock()
		return nil, &Error{Code: CodeUserNotFound}
	}
	if acct.password != password {
		m.mu.Unlock()
		return nil, &Error{Code: CodeWrongPassword}
	}
	ident := &model.Identity{UID: acct.uid, Email: key}
	m.current = ident
	m.d.send(0, ident)
	m.mu.Unlock()

	return cloneIdentity(ident), nil
}

// SignOut clears the current user.
func (m *Memory) SignOut(_ context.Context) error {
	m.mu.Lock()
	m.current = nil
	err := m.SignOutErr
	m.d.send(0, nil)
	m.mu.Unlock()

	return err
}

// OnAuthStateChanged registers fn and delivers the current state to it.
func (m *Memory) OnAuthStateChanged(fn StateFunc) func() {
	id := m.d.add(fn)

	m.mu.Lock()
	m.d.send(id, m.current)
	m.mu.Unlock()

	return func() { m.d.remove(id) }
}

// Emit pushes an arbitrary state change to every listener, as if the
// provider had changed state on its own (token expiry, remote sign-out).
func (m *Memory) Emit(ident *model.Identity) {
	m.mu.Lock()
	m.current = cloneIdentity(ident)
	m.d.send(0, ident)
	m.mu.Unlock()
}

const minPasswordLen = 6

func validEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}
