// Package session owns the authentication state: the versioned Session value
// fed by identity provider callbacks and the local flag mirrored from it.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/finlens/internal/identity"
	"github.com/theirongolddev/finlens/internal/model"
)

// AuthFlag is the local flag name consulted for synchronous route gating.
const AuthFlag = "finlens_token"

// Status is the resolution state of the session.
type Status int

const (
	StatusUnresolved Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "unresolved"
}

// Session is an immutable snapshot of the authentication state. Version
// increases with every provider callback and sign-out.
type Session struct {
	Identity *model.Identity
	Status   Status
	Version  uint64
}

// UserID returns the signed-in user's id, or "".
func (s Session) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UID
}

// FlagStore persists the local authenticated flag.
type FlagStore interface {
	SetFlag(name string, on bool) error
	Flag(name string) (bool, error)
}

// Manager owns the Session.
type Manager struct {
	provider identity.Provider
	flags    FlagStore
	log      zerolog.Logger

	// applyMu serializes callback processing so one callback finishes,
	// subscribers included, before the next starts.
	applyMu sync.Mutex

	mu          sync.RWMutex
	session     Session
	nextSubID   int
	subs        map[int]func(Session)
	started     bool
	unsubscribe func()
}

// NewManager creates a manager in the Unresolved state.
func NewManager(p identity.Provider, flags FlagStore, log zerolog.Logger) *Manager {
	return &Manager{
		provider: p,
		flags:    flags,
		log:      log.With().Str("component", "session").Logger(),
		subs:     make(map[int]func(Session)),
	}
}

// Start subscribes to the identity provider. Calling it again is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	unsub := m.provider.OnAuthStateChanged(m.apply)

	m.mu.Lock()
	m.unsubscribe = unsub
	m.mu.Unlock()
}

// Close stops listening to the provider.
func (m *Manager) Close() {
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Current returns the latest Session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Subscribe registers fn to receive every new Session in order. The returned
// func cancels the subscription.
func (m *Manager) Subscribe(fn func(Session)) (cancel func()) {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Flagged reports the local authenticated flag. Read errors count as not
// flagged.
func (m *Manager) Flagged() bool {
	on, err := m.flags.Flag(AuthFlag)
	if err != nil {
		m.log.Warn().Err(err).Msg("reading auth flag failed")
		return false
	}
	return on
}

// SignUp creates an account. The session itself updates through the
// provider callback.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	if _, err := m.provider.CreateAccount(ctx, email, password); err != nil {
		ae := classify(signUpKinds, err)
		m.log.Info().Str("kind", ae.Kind.String()).Str("code", ae.Code).Msg("sign-up rejected")
		return ae
	}
	return nil
}

// SignIn signs in with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if _, err := m.provider.SignIn(ctx, email, password); err != nil {
		ae := classify(signInKinds, err)
		m.log.Info().Str("kind", ae.Kind.String()).Str("code", ae.Code).Msg("sign-in rejected")
		return ae
	}
	return nil
}

// SignOut clears the local flag and then signs out of the provider. The flag
// stays cleared even when the provider call fails.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.flags.SetFlag(AuthFlag, false); err != nil {
		m.log.Warn().Err(err).Msg("clearing auth flag failed")
	}
	if err := m.provider.SignOut(ctx); err != nil {
		m.log.Warn().Err(err).Msg("provider sign-out failed")
		return err
	}
	return nil
}

// apply handles one provider callback.
func (m *Manager) apply(ident *model.Identity) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	status := StatusAnonymous
	if ident != nil {
		status = StatusAuthenticated
	}
	if err := m.flags.SetFlag(AuthFlag, status == StatusAuthenticated); err != nil {
		m.log.Warn().Err(err).Msg("mirroring auth flag failed")
	}

	m.mu.Lock()
	next := Session{
		Identity: ident,
		Status:   status,
		Version:  m.session.Version + 1,
	}
	m.session = next
	subs := make([]func(Session), 0, len(m.subs))
	for i := 1; i <= m.nextSubID; i++ {
		if fn, ok := m.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	m.log.Debug().
		Str("status", status.String()).
		Str("user_id", next.UserID()).
		Uint64("version", next.Version).
		Msg("session updated")

	for _, fn := range subs {
		fn(next)
	}
}
