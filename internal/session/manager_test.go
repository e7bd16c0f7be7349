package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/finlens/internal/identity"
)

type memFlags struct {
	mu    sync.Mutex
	flags map[string]bool
}

func newMemFlags() *memFlags { return &memFlags{flags: make(map[string]bool)} }

func (f *memFlags) SetFlag(name string, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[name] = on
	return nil
}

func (f *memFlags) Flag(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[name], nil
}

// watch returns a channel receiving every Session the manager publishes.
func watch(m *Manager) <-chan Session {
	ch := make(chan Session, 16)
	m.Subscribe(func(s Session) { ch <- s })
	return ch
}

func next(t *testing.T, ch <-chan Session) Session {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session update")
	}
	return Session{}
}

func setup(t *testing.T) (*Manager, *identity.Memory, *memFlags, <-chan Session) {
	t.Helper()
	p := identity.NewMemory()
	t.Cleanup(p.Close)
	flags := newMemFlags()
	m := NewManager(p, flags, zerolog.Nop())
	ch := watch(m)
	t.Cleanup(m.Close)
	return m, p, flags, ch
}

func TestManager_UnresolvedUntilFirstCallback(t *testing.T) {
	m, _, _, ch := setup(t)
	assert.Equal(t, StatusUnresolved, m.Current().Status)

	m.Start()
	m.Start() // second start does not subscribe twice

	s := next(t, ch)
	assert.Equal(t, StatusAnonymous, s.Status)
	assert.Equal(t, uint64(1), s.Version)
	assert.Equal(t, s, m.Current())

	select {
	case extra := <-ch:
		t.Fatalf("unexpected second initial callback: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_SignInSignOutMirrorsFlag(t *testing.T) {
	m, p, flags, ch := setup(t)
	ctx := context.Background()
	m.Start()
	next(t, ch)

	_, err := p.CreateAccount(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	next(t, ch)
	require.NoError(t, m.SignOut(ctx))
	next(t, ch)

	require.NoError(t, m.SignIn(ctx, "ada@example.com", "secret1"))
	s := next(t, ch)
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "ada@example.com", s.Identity.Email)
	assert.True(t, m.Flagged())

	require.NoError(t, m.SignOut(ctx))
	on, _ := flags.Flag(AuthFlag)
	assert.False(t, on, "flag is cleared before the provider callback")
	s = next(t, ch)
	assert.Equal(t, StatusAnonymous, s.Status)
	assert.Empty(t, s.UserID())
	assert.Greater(t, s.Version, uint64(3))
}

func TestManager_SignOutProviderFailureKeepsFlagCleared(t *testing.T) {
	m, p, flags, ch := setup(t)
	m.Start()
	next(t, ch)

	require.NoError(t, m.SignUp(context.Background(), "ada@example.com", "secret1"))
	next(t, ch)
	assert.True(t, m.Flagged())

	p.SignOutErr = errors.New("network down")
	// the manager reports the failure but local gating is already signed out
	err := m.SignOut(context.Background())
	assert.Error(t, err)
	on, _ := flags.Flag(AuthFlag)
	assert.False(t, on)
}

func TestManager_ErrorKinds(t *testing.T) {
	m, _, _, ch := setup(t)
	ctx := context.Background()
	m.Start()
	next(t, ch)

	require.NoError(t, m.SignUp(ctx, "ada@example.com", "secret1"))
	next(t, ch)

	tests := []struct {
		name string
		op   func() error
		kind ErrorKind
		msg  string
	}{
		{"email in use", func() error { return m.SignUp(ctx, "ada@example.com", "secret1") }, KindEmailInUse, "Email already in use. Try logging in instead."},
		{"weak password", func() error { return m.SignUp(ctx, "bob@example.com", "123") }, KindWeakCredential, "Password must be at least 6 characters"},
		{"bad signup email", func() error { return m.SignUp(ctx, "bob", "secret1") }, KindInvalidEmail, "Invalid email address"},
		{"wrong password", func() error { return m.SignIn(ctx, "ada@example.com", "nope123") }, KindInvalidCredential, "Invalid email or password"},
		{"no account", func() error { return m.SignIn(ctx, "bob@example.com", "secret1") }, KindUserNotFound, "No account found. Try signing up instead."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			var ae *AuthError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.msg, UserMessage(err))
		})
	}
}

func TestClassify_OutOfSetCodesAreUnknown(t *testing.T) {
	// user-not-found cannot come out of sign-up
	ae := classify(signUpKinds, &identity.Error{Code: identity.CodeUserNotFound})
	assert.Equal(t, KindUnknown, ae.Kind)

	ae = classify(signInKinds, &identity.Error{Code: identity.CodeTooManyRequests, Message: "slow down"})
	assert.Equal(t, KindUnknown, ae.Kind)
	assert.Equal(t, "auth/too-many-requests: slow down", UserMessage(ae))
}

func TestUserMessage_Fallbacks(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "Authentication failed", UserMessage(&AuthError{Err: errors.New("  ")}))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		email, password string
		want            string
	}{
		{"", "secret1", "Enter email and password"},
		{"a@b.co", "", "Enter email and password"},
		{"a@b.co", "12345", "Password must be at least 6 characters"},
		{"a@b.co", "123456", ""},
	}
	for _, tt := range tests {
		err := ValidateCredentials(tt.email, tt.password)
		if tt.want == "" {
			assert.NoError(t, err)
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, tt.want, UserMessage(err))
	}
}

func TestManager_CallbacksSerialized(t *testing.T) {
	p := identity.NewMemory()
	defer p.Close()
	m := NewManager(p, newMemFlags(), zerolog.Nop())
	defer m.Close()

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		versions []uint64
		done     = make(chan struct{}, 64)
	)
	m.Subscribe(func(s Session) {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inFlight--
		versions = append(versions, s.Version)
		mu.Unlock()
		done <- struct{}{}
	})
	m.Start()

	for i := 0; i < 10; i++ {
		p.Emit(nil)
	}
	for i := 0; i < 11; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen)
	for i := 1; i < len(versions); i++ {
		assert.Equal(t, versions[i-1]+1, versions[i])
	}
}
