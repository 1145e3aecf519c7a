package auth

import "strings"

// Decision is the request gate's verdict for one inbound request.
type Decision int

const (
	// DecisionPass lets the request reach its handler.
	DecisionPass Decision = iota
	// DecisionLogin means no valid tenant-scoped session exists. Page
	// requests redirect to the login page; API requests get 401.
	DecisionLogin
	// DecisionDashboard means the session is valid but the role is not
	// allowed on this path; the caller is bounced to the dashboard root.
	DecisionDashboard
)

// Paths reachable without a session.
var publicPaths = []string{
	"/",
	"/login",
	"/register",
	"/api/test-db",
	"/healthz",
	"/readyz",
	"/metrics",
}

var publicPrefixes = []string{
	"/api/auth/",
}

// Asset paths are excluded from gate interception entirely.
var bypassPaths = []string{
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
}

var bypassPrefixes = []string{
	"/assets/",
	"/static/",
}

// routeRule maps a path prefix to the roles allowed beneath it. Rules are
// evaluated in order and the first matching prefix governs; rules are not
// cumulative beyond their own prefix.
type routeRule struct {
	prefix string
	roles  []Role
}

var routeRules = []routeRule{
	{prefix: "/dashboard/claims", roles: []Role{RoleManager, RoleAdmin}},
	{prefix: "/dashboard/users", roles: []Role{RoleAdmin}},
	{prefix: "/dashboard/settings", roles: []Role{RoleAdmin}},
	{prefix: "/dashboard/inspections/new", roles: []Role{RoleInspector}},
}

func (r routeRule) allows(role Role) bool {
	for _, allowed := range r.roles {
		if role == allowed {
			return true
		}
	}
	return false
}

// Evaluate classifies one request path against the session (nil when the
// request carried no valid token). It performs no I/O; the token was
// already decoded by the caller.
func Evaluate(path string, sess *Session) Decision {
	if BypassesGate(path) || isPublicPath(path) {
		return DecisionPass
	}
	// Default deny: everything not explicitly public requires a session
	// with tenant context.
	if sess == nil || strings.TrimSpace(sess.OrganizationID) == "" {
		return DecisionLogin
	}
	for _, rule := range routeRules {
		if strings.HasPrefix(path, rule.prefix) {
			if !rule.allows(sess.Role) {
				return DecisionDashboard
			}
			return DecisionPass
		}
	}
	return DecisionPass
}

// BypassesGate reports whether the path is a static asset route the gate
// never intercepts.
func BypassesGate(path string) bool {
	for _, p := range bypassPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
