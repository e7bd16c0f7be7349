package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/theirongolddev/finlens/internal/model"
)

const restoreTimeout = 10 * time.Second

// SessionStore persists the provider sign-in between runs.
type SessionStore interface {
	SaveAuthSession(s model.AuthSession) error
	LoadAuthSession() (*model.AuthSession, error)
	ClearAuthSession() error
}

// UserLookup checks that a restored account still exists. *auth.Client
// satisfies it.
type UserLookup interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// FirebaseOptions configures a Firebase provider.
type FirebaseOptions struct {
	APIKey   string
	Endpoint string // optional Identity Toolkit base URL override
	Sessions SessionStore
	Users    UserLookup // optional; nil skips account verification on restore
	Logger   zerolog.Logger
}

// Firebase is a Provider backed by Firebase Authentication's Identity
// Toolkit API, with the sign-in persisted in the local state file.
type Firebase struct {
	svc      *identitytoolkit.Service
	sessions SessionStore
	users    UserLookup
	log      zerolog.Logger

	mu          sync.Mutex
	current     *model.Identity
	restoreOnce sync.Once

	d *dispatcher
}

// NewFirebase creates a provider for the given web API key.
func NewFirebase(ctx context.Context, opts FirebaseOptions) (*Firebase, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if opts.Sessions == nil {
		return nil, errors.New("identity: firebase provider needs a session store")
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := identitytoolkit.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &Error{Code: CodeInternal, Message: "creating identity toolkit client", Err: err}
	}

	return &Firebase{
		svc:      svc,
		sessions: opts.Sessions,
		users:    opts.Users,
		log:      opts.Logger.With().Str("component", "identity").Logger(),
		d:        newDispatcher(),
	}, nil
}

// Close stops callback delivery.
func (f *Firebase) Close() { f.d.close() }

// CreateAccount registers a new email/password account and signs it in.
func (f *Firebase) CreateAccount(ctx context.Context, email, password string) (*model.Identity, error) {
	resp, err := f.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toProviderError(err)
	}

	return f.signedIn(model.AuthSession{
		UID:          resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	})
}

// SignIn verifies an email/password pair.
func (f *Firebase) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	resp, err := f.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, toProviderError(err)
	}

	return f.signedIn(model.AuthSession{
		UID:          resp.LocalId,
		Email:        resp.Email,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	})
}

func (f *Firebase) signedIn(s model.AuthSession) (*model.Identity, error) {
	if s.UID == "" {
		return nil, &Error{Code: CodeInternal, Message: "provider returned no user id"}
	}
	s.SignedInAt = time.Now()
	if err := f.sessions.SaveAuthSession(s); err != nil {
		// The provider accepted the credentials; only persistence across
		// restarts is lost.
		f.log.Warn().Err(err).Msg("persisting sign-in failed")
	}

	ident := s.Identity()
	f.mu.Lock()
	f.current = ident
	f.d.send(0, ident)
	f.mu.Unlock()

	f.log.Info().Str("user_id", s.UID).Msg("signed in")
	return cloneIdentity(ident), nil
}

// SignOut forgets the persisted sign-in and notifies listeners.
func (f *Firebase) SignOut(_ context.Context) error {
	err := f.sessions.ClearAuthSession()

	f.mu.Lock()
	f.current = nil
	f.d.send(0, nil)
	f.mu.Unlock()

	if err != nil {
		return &Error{Code: CodeInternal, Message: "clearing persisted sign-in", Err: err}
	}
	return nil
}

// OnAuthStateChanged registers fn. The first call restores the persisted
// sign-in; fn then receives the resolved state.
func (f *Firebase) OnAuthStateChanged(fn StateFunc) func() {
	id := f.d.add(fn)

	go func() {
		f.restoreOnce.Do(f.restore)
		f.mu.Lock()
		f.d.send(id, f.current)
		f.mu.Unlock()
	}()

	return func() { f.d.remove(id) }
}

func (f *Firebase) restore() {
	s, err := f.sessions.LoadAuthSession()
	if err != nil {
		f.log.Warn().Err(err).Msg("loading persisted sign-in failed")
		return
	}
	if s == nil {
		return
	}

	if f.users != nil {
		ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
		defer cancel()

		rec, err := f.users.GetUser(ctx, s.UID)
		switch {
		case auth.IsUserNotFound(err):
			f.log.Info().Str("user_id", s.UID).Msg("persisted account no longer exists")
			_ = f.sessions.ClearAuthSession()
			return
		case err != nil:
			// Keep the sign-in; the account may be fine and we are offline.
			f.log.Warn().Err(err).Str("user_id", s.UID).Msg("verifying persisted sign-in failed")
		case rec != nil && rec.Disabled:
			f.log.Info().Str("user_id", s.UID).Msg("persisted account is disabled")
			_ = f.sessions.ClearAuthSession()
			return
		}
	}

	f.mu.Lock()
	if f.current == nil {
		f.current = s.Identity()
	}
	f.mu.Unlock()
}

var restCodes = map[string]string{
	"EMAIL_EXISTS":                CodeEmailInUse,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
	"USER_DISABLED":               CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
}

// toProviderError maps an Identity Toolkit failure onto the canonical codes.
// REST messages look like "WEAK_PASSWORD : Password should be at least 6
// characters".
func toProviderError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return &Error{Code: CodeNetwork, Message: err.Error(), Err: err}
	}

	msg := gerr.Message
	if msg == "" && len(gerr.Errors) > 0 {
		msg = gerr.Errors[0].Message
	}
	token, detail, _ := strings.Cut(msg, " : ")
	token = strings.TrimSpace(token)

	if code, ok := restCodes[token]; ok {
		return &Error{Code: code, Message: strings.TrimSpace(detail), Err: err}
	}
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}
