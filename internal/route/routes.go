package route

// Route is a dashboard-level destination.
type Route string

const (
	RouteLogin        Route = "login"
	RouteDashboard    Route = "dashboard"
	RouteSpending     Route = "spending"
	RouteInsights     Route = "insights"
	RouteProfile      Route = "profile"
	RouteConversation Route = "advisor"
)

// Requirement declares what a route needs before it can render.
type Requirement struct {
	Auth         bool
	Profile      bool
	Transactions bool
	Insights     bool
}

var requirements = map[Route]Requirement{
	RouteLogin:        {},
	RouteDashboard:    {Auth: true, Profile: true, Transactions: true},
	RouteSpending:     {Auth: true, Transactions: true},
	RouteInsights:     {Auth: true, Insights: true},
	RouteProfile:      {Auth: true, Profile: true},
	RouteConversation: {Auth: true},
}

// Requires returns the data declaration for r. Unknown routes require
// authentication only.
func Requires(r Route) Requirement {
	if req, ok := requirements[r]; ok {
		return req
	}
	return Requirement{Auth: true}
}

// Guard is the synchronous fast path: a route that needs authentication
// redirects to login when the local flag is absent, whatever the provider
// will eventually report.
func Guard(r Route, flagged bool) Route {
	if Requires(r).Auth && !flagged {
		return RouteLogin
	}
	return r
}
