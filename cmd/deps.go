package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/theirongolddev/finlens/internal/backend"
	"github.com/theirongolddev/finlens/internal/config"
	"github.com/theirongolddev/finlens/internal/docstore"
	"github.com/theirongolddev/finlens/internal/identity"
	"github.com/theirongolddev/finlens/internal/profile"
	"github.com/theirongolddev/finlens/internal/route"
	"github.com/theirongolddev/finlens/internal/session"
	"github.com/theirongolddev/finlens/internal/store"
)

// sessionWait bounds how long a one-shot command waits for the identity
// provider to report the restored sign-in.
const sessionWait = 15 * time.Second

// deps holds the wired collaborators shared by every command.
type deps struct {
	cfg      config.Config
	log      zerolog.Logger
	sessions *session.Manager
	profiles *profile.Store
	backend  *backend.Client

	closers []func()
}

// Close releases everything opened by openDeps, newest first.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// openDeps wires the session manager, profile store and backend client from
// cfg. The session manager is not started; callers subscribe first when they
// care about the initial state.
func openDeps(ctx context.Context, cfg config.Config, log zerolog.Logger) (*deps, error) {
	d := &deps{
		cfg:     cfg,
		log:     log,
		backend: backend.NewClient(cfg.Backend.BaseURL, config.RequestTimeout(cfg), log),
	}

	var (
		provider identity.Provider
		docs     docstore.Store
		flags    session.FlagStore
	)

	if flagOffline {
		mem := identity.NewMemory()
		d.closers = append(d.closers, mem.Close)
		provider = mem
		docs = docstore.NewMemory()
		flags = newMemFlags()
		log.Debug().Msg("using in-memory identity and document stores")
	} else {
		local, err := store.Open(config.StateDBPath(cfg))
		if err != nil {
			return nil, fmt.Errorf("opening local state: %w", err)
		}
		d.closers = append(d.closers, func() { _ = local.Close() })
		flags = local

		fb, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			d.Close()
			return nil, err
		}

		fs, err := fb.Firestore(ctx)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("initializing firestore client: %w", err)
		}
		d.closers = append(d.closers, func() { _ = fs.Close() })
		docs = docstore.NewFirestore(fs)

		opts := identity.FirebaseOptions{
			APIKey:   config.GetAPIKey(cfg),
			Sessions: local,
			Logger:   log,
		}
		if users, err := fb.Auth(ctx); err == nil {
			opts.Users = users
		} else {
			log.Warn().Err(err).Msg("account verification unavailable")
		}

		p, err := identity.NewFirebase(ctx, opts)
		if err != nil {
			d.Close()
			if errors.Is(err, identity.ErrNotConfigured) {
				return nil, errors.New("no identity provider API key: set firebase.api_key in the config or FIREBASE_API_KEY")
			}
			return nil, err
		}
		d.closers = append(d.closers, p.Close)
		provider = p
	}

	d.sessions = session.NewManager(provider, flags, log)
	d.closers = append(d.closers, d.sessions.Close)
	d.profiles = profile.NewStore(docs, log)
	return d, nil
}

func newFirebaseApp(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	projectID := config.GetProjectID(cfg)
	if projectID == "" {
		return nil, errors.New("no project configured: set firebase.project_id, GOOGLE_CLOUD_PROJECT or --project")
	}

	var opts []option.ClientOption
	if creds := config.GetCredentialsFile(cfg); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}

// currentSession starts the manager and waits for the first resolved
// Session.
func (d *deps) currentSession(ctx context.Context) (session.Session, error) {
	resolved := make(chan session.Session, 1)
	cancel := d.sessions.Subscribe(func(s session.Session) {
		if s.Status == session.StatusUnresolved {
			return
		}
		select {
		case resolved <- s:
		default:
		}
	})
	defer cancel()

	d.sessions.Start()
	if s := d.sessions.Current(); s.Status != session.StatusUnresolved {
		return s, nil
	}

	ctx, stop := context.WithTimeout(ctx, sessionWait)
	defer stop()
	select {
	case s := <-resolved:
		return s, nil
	case <-ctx.Done():
		return session.Session{}, errors.New("timed out restoring the sign-in")
	}
}

var errNotSignedIn = errors.New("not signed in: run `finlens login` first")

// needsLogin reports whether r redirects to login on the local flag alone,
// without waiting for the identity provider.
func (d *deps) needsLogin(r route.Route) bool {
	return route.Guard(r, d.sessions.Flagged()) == route.RouteLogin
}

// requireUser returns the signed-in session or a hint to log in.
func (d *deps) requireUser(ctx context.Context) (session.Session, error) {
	if d.needsLogin(route.RouteDashboard) {
		return session.Session{}, errNotSignedIn
	}
	s, err := d.currentSession(ctx)
	if err != nil {
		return s, err
	}
	if s.Status != session.StatusAuthenticated {
		return s, errNotSignedIn
	}
	return s, nil
}

// memFlags keeps the authenticated flag in memory for --offline runs.
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
