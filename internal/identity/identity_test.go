package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/theirongolddev/finlens/internal/model"
)

// recorder collects state callbacks.
type recorder struct {
	mu    sync.Mutex
	calls []*model.Identity
	ch    chan struct{}
}

func newRecorder() *recorder { return &recorder{ch: make(chan struct{}, 32)} }

func (r *recorder) fn(i *model.Identity) {
	r.mu.Lock()
	r.calls = append(r.calls, i)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) []*model.Identity {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for callback %d", i+1)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Identity(nil), r.calls...)
}

func TestMemory_Lifecycle(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	rec := newRecorder()
	unsub := m.OnAuthStateChanged(rec.fn)
	defer unsub()
	calls := rec.wait(t, 1)
	assert.Nil(t, calls[0], "initial state is signed out")

	ident, err := m.CreateAccount(ctx, "Ada@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", ident.Email)

	_, err = m.CreateAccount(ctx, "ada@example.com", "secret1")
	assert.Equal(t, CodeEmailInUse, CodeOf(err))

	require.NoError(t, m.SignOut(ctx))

	_, err = m.SignIn(ctx, "ada@example.com", "nope")
	assert.Equal(t, CodeWrongPassword, CodeOf(err))
	_, err = m.SignIn(ctx, "bob@example.com", "secret1")
	assert.Equal(t, CodeUserNotFound, CodeOf(err))

	again, err := m.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, ident.UID, again.UID)

	calls = rec.wait(t, 3)
	require.Len(t, calls, 4)
	assert.NotNil(t, calls[1])
	assert.Nil(t, calls[2])
	assert.Equal(t, ident.UID, calls[3].UID)
}

func TestMemory_Validation(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	_, err := m.CreateAccount(ctx, "not-an-email", "secret1")
	assert.Equal(t, CodeInvalidEmail, CodeOf(err))
	_, err = m.CreateAccount(ctx, "a@b.co", "123")
	assert.Equal(t, CodeWeakPassword, CodeOf(err))
	_, err = m.SignIn(ctx, "@", "123456")
	assert.Equal(t, CodeInvalidEmail, CodeOf(err))
}

func TestToProviderError(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"EMAIL_EXISTS", CodeEmailInUse},
		{"INVALID_EMAIL", CodeInvalidEmail},
		{"WEAK_PASSWORD : Password should be at least 6 characters", CodeWeakPassword},
		{"EMAIL_NOT_FOUND", CodeUserNotFound},
		{"INVALID_PASSWORD", CodeWrongPassword},
		{"INVALID_LOGIN_CREDENTIALS", CodeInvalidCredential},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled", CodeTooManyRequests},
		{"OPERATION_NOT_ALLOWED", CodeInternal},
	}
	for _, tt := range tests {
		err := toProviderError(&googleapi.Error{Code: 400, Message: tt.msg})
		if got := CodeOf(err); got != tt.want {
			t.Errorf("%q: code %q, want %q", tt.msg, got, tt.want)
		}
	}

	err := toProviderError(errors.New("dial tcp: connection refused"))
	assert.Equal(t, CodeNetwork, CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

type memSessions struct {
	mu sync.Mutex
	s  *model.AuthSession
}

func (m *memSessions) SaveAuthSession(s model.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *memSessions) LoadAuthSession() (*model.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *memSessions) ClearAuthSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

type fakeUsers struct {
	rec *auth.UserRecord
	err error
}

func (f fakeUsers) GetUser(context.Context, string) (*auth.UserRecord, error) { return f.rec, f.err }

func toolkitServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/signupNewUser") && body.Email == "taken@example.com":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"EMAIL_EXISTS","errors":[{"message":"EMAIL_EXISTS","domain":"global","reason":"invalid"}]}}`))
		case strings.HasSuffix(r.URL.Path, "/signupNewUser"):
			_, _ = w.Write([]byte(`{"kind":"identitytoolkit#SignupNewUserResponse","localId":"uid-new","email":"` + body.Email + `","idToken":"tok","refreshToken":"ref","expiresIn":"3600"}`))
		case strings.HasSuffix(r.URL.Path, "/verifyPassword") && body.Password == "secret1":
			_, _ = w.Write([]byte(`{"kind":"identitytoolkit#VerifyPasswordResponse","localId":"uid-1","email":"` + body.Email + `","idToken":"tok","refreshToken":"ref","expiresIn":"3600","registered":true}`))
		case strings.HasSuffix(r.URL.Path, "/verifyPassword"):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS","errors":[{"message":"INVALID_LOGIN_CREDENTIALS","domain":"global","reason":"invalid"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFirebase_SignInPersistsAndNotifies(t *testing.T) {
	srv := toolkitServer(t)
	sessions := &memSessions{}
	f, err := NewFirebase(context.Background(), FirebaseOptions{
		APIKey:   "test-key",
		Endpoint: srv.URL + "/",
		Sessions: sessions,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	defer f.Close()

	rec := newRecorder()
	defer f.OnAuthStateChanged(rec.fn)()
	assert.Nil(t, rec.wait(t, 1)[0])

	_, err = f.SignIn(context.Background(), "ada@example.com", "wrong")
	assert.Equal(t, CodeInvalidCredential, CodeOf(err))

	ident, err := f.SignIn(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", ident.UID)

	calls := rec.wait(t, 1)
	require.Len(t, calls, 2)
	assert.Equal(t, "uid-1", calls[1].UID)

	saved, _ := sessions.LoadAuthSession()
	require.NotNil(t, saved)
	assert.Equal(t, "uid-1", saved.UID)
	assert.Equal(t, "ref", saved.RefreshToken)

	require.NoError(t, f.SignOut(context.Background()))
	calls = rec.wait(t, 1)
	assert.Nil(t, calls[2])
	saved, _ = sessions.LoadAuthSession()
	assert.Nil(t, saved)
}

func TestFirebase_CreateAccount(t *testing.T) {
	srv := toolkitServer(t)
	f, err := NewFirebase(context.Background(), FirebaseOptions{
		APIKey: "test-key", Endpoint: srv.URL + "/", Sessions: &memSessions{}, Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	defer f.Close()

	_, err = f.CreateAccount(context.Background(), "taken@example.com", "secret1")
	assert.Equal(t, CodeEmailInUse, CodeOf(err))

	ident, err := f.CreateAccount(context.Background(), "new@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-new", ident.UID)
	assert.Equal(t, "new@example.com", ident.Email)
}

func TestFirebase_RestoresPersistedSession(t *testing.T) {
	tests := []struct {
		name    string
		users   UserLookup
		wantUID string
	}{
		{"no verification", nil, "uid-1"},
		{"lookup fails keeps session", fakeUsers{err: errors.New("unavailable")}, "uid-1"},
		{"disabled account", fakeUsers{rec: &auth.UserRecord{Disabled: true}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &memSessions{s: &model.AuthSession{UID: "uid-1", Email: "ada@example.com"}}
			opts := FirebaseOptions{APIKey: "k", Sessions: sessions, Logger: zerolog.Nop()}
			if tt.users != nil {
				opts.Users = tt.users
			}
			f, err := NewFirebase(context.Background(), opts)
			require.NoError(t, err)
			defer f.Close()

			rec := newRecorder()
			defer f.OnAuthStateChanged(rec.fn)()
			got := rec.wait(t, 1)[0]

			if tt.wantUID == "" {
				assert.Nil(t, got)
				s, _ := sessions.LoadAuthSession()
				assert.Nil(t, s, "persisted sign-in should be cleared")
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantUID, got.UID)
		})
	}
}

func TestNewFirebase_RequiresKey(t *testing.T) {
	_, err := NewFirebase(context.Background(), FirebaseOptions{Sessions: &memSessions{}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
