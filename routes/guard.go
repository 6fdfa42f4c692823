package routes

import "github.com/taskgrid/taskgrid-go/session"

// Well-known paths and the session markers that pick a landing page for
// authenticated users who hit a guest-only route.
const (
	DefaultLoginPath   = "/auth/login"
	AdminLandingPath   = "/app/admin"
	TeamLandingPath    = "/app/team"
	DefaultLandingPath = "/app/dashboard"

	RoleAdmin        = "admin"
	PermReadAllTasks = "perm_can_read_all_tasks"
)

// Decision is the outcome of evaluating a route guard.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Evaluate checks protection rules against a session snapshot.
//
// Checks run in a fixed order with short-circuit semantics: authentication
// first, then permissions, then roles. The first failing check determines
// the denial and its redirect; later checks are not evaluated.
//
// A denial from the permission or role checks redirects to the rule's
// configured DeniedRedirect, which may be empty: the caller decides the
// fallback, typically a generic error page.
func Evaluate(rules *ProtectionRules, snap session.Snapshot) Decision {
	if rules == nil {
		return Decision{Allowed: true}
	}

	if rules.RequireAuth && !snap.IsAuthenticated {
		redirect := rules.DeniedRedirect
		if redirect == "" {
			redirect = DefaultLoginPath
		}
		return Decision{RedirectTo: redirect}
	}

	if rules.RequireGuest && snap.IsAuthenticated {
		// Guest-only pages bounce signed-in users to a landing page chosen
		// from their session, not from static configuration.
		return Decision{RedirectTo: LandingPath(snap)}
	}

	if !rules.Permissions.SatisfiedBy(snap.HasPermission) {
		return Decision{RedirectTo: rules.DeniedRedirect}
	}

	if !rules.Roles.SatisfiedBy(snap.HasRole) {
		return Decision{RedirectTo: rules.DeniedRedirect}
	}

	return Decision{Allowed: true}
}

// LandingPath picks the default destination for an authenticated session:
// admins land on the admin hub, holders of the team-wide task permission on
// the team view, everyone else on the dashboard.
func LandingPath(snap session.Snapshot) string {
	switch {
	case snap.HasRole(RoleAdmin):
		return AdminLandingPath
	case snap.HasPermission(PermReadAllTasks):
		return TeamLandingPath
	default:
		return DefaultLandingPath
	}
}
