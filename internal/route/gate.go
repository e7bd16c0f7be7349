// Package route decides which view to show from the session and the user's
// onboarding state, and which data each route needs.
package route

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/session"
)

// View is a top-level screen.
type View int

const (
	ViewLoading View = iota
	ViewLogin
	ViewOnboarding
	ViewDashboard
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewOnboarding:
		return "onboarding"
	case ViewDashboard:
		return "dashboard"
	}
	return "loading"
}

// Evaluate maps (session status, onboarded) to a view. A nil onboarded means
// the profile has not been fetched yet.
func Evaluate(status session.Status, onboarded *bool) View {
	switch status {
	case session.StatusAnonymous:
		return ViewLogin
	case session.StatusAuthenticated:
		switch {
		case onboarded == nil:
			return ViewLoading
		case *onboarded:
			return ViewDashboard
		default:
			return ViewOnboarding
		}
	}
	return ViewLoading
}

// Fetch identifies one profile fetch. Its result is applied only while it is
// still the gate's pending fetch and its user is still signed in.
type Fetch struct {
	ID     string
	UserID string
}

// Gate tracks the inputs of Evaluate. It only reads session and profile
// state; it never writes either.
type Gate struct {
	mu        sync.Mutex
	status    session.Status
	version   uint64
	unflagged bool
	userID    string
	onboarded *bool
	profile   *model.UserProfile
	lastErr   error
	pending   *Fetch
}

// NewGate returns a gate in the Loading view.
func NewGate() *Gate {
	return &Gate{}
}

// Observe records a new session value. It returns the profile fetch to run
// when an authenticated user appears or changes, or nil. Values older than
// the last one observed are ignored.
func (g *Gate) Observe(s session.Session) *Fetch {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s.Version < g.version {
		return nil
	}
	g.version = s.Version
	g.status = s.Status
	uid := s.UserID()

	if s.Status != session.StatusAuthenticated || uid == "" {
		g.userID = ""
		g.reset()
		return nil
	}
	if uid == g.userID && (g.pending != nil || g.onboarded != nil) {
		return nil
	}
	g.userID = uid
	g.reset()
	return g.begin()
}

// Reevaluate discards the known onboarding state and returns a fresh fetch
// for the current user, or nil when nobody is signed in. Run it after the
// profile has been saved so the dashboard reads the stored profile.
func (g *Gate) Reevaluate() *Fetch {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != session.StatusAuthenticated || g.userID == "" {
		return nil
	}
	g.reset()
	return g.begin()
}

// Resolve applies a fetch result. It reports false when the result is stale
// and was discarded.
func (g *Gate) Resolve(f Fetch, p model.UserProfile, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil || g.pending.ID != f.ID || g.userID != f.UserID {
		return false
	}
	g.pending = nil

	onboarded := false
	if err != nil {
		g.lastErr = err
		g.profile = nil
	} else {
		onboarded = p.Onboarded
		g.lastErr = nil
		g.profile = &p
	}
	g.onboarded = &onboarded
	return true
}

// SetFlagged records the local authenticated flag. While the session is
// still unresolved, a missing flag sends the dashboard straight to login.
func (g *Gate) SetFlagged(on bool) {
	g.mu.Lock()
	g.unflagged = !on
	g.mu.Unlock()
}

// View returns the view for the current inputs.
func (g *Gate) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == session.StatusUnresolved && Guard(RouteDashboard, !g.unflagged) == RouteLogin {
		return ViewLogin
	}
	return Evaluate(g.status, g.onboarded)
}

// Profile returns the last applied profile for the signed-in user.
func (g *Gate) Profile() (model.UserProfile, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.profile == nil {
		return model.UserProfile{}, false
	}
	return *g.profile, true
}

// Err returns the error of the last applied fetch, if it failed.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// UserID returns the user the gate is tracking.
func (g *Gate) UserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userID
}

func (g *Gate) reset() {
	g.onboarded = nil
	g.profile = nil
	g.lastErr = nil
	g.pending = nil
}

func (g *Gate) begin() *Fetch {
	f := &Fetch{ID: uuid.NewString(), UserID: g.userID}
	g.pending = f
	c := *f
	return &c
}

// ProfileGetter fetches a profile.
type ProfileGetter interface {
	Get(ctx context.Context, userID string) (model.UserProfile, error)
}

// Resolve runs one full evaluation for s, fetching the profile when needed.
// One-shot commands use it in place of a long-lived Gate.
func Resolve(ctx context.Context, s session.Session, profiles ProfileGetter) (View, model.UserProfile, error) {
	g := NewGate()
	f := g.Observe(s)
	if f == nil {
		return g.View(), model.UserProfile{}, nil
	}
	p, err := profiles.Get(ctx, f.UserID)
	g.Resolve(*f, p, err)
	return g.View(), p, err
}
