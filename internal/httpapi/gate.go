package httpapi

import (
	"net/http"
	"strings"

	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/obs"
)

const (
	sessionCookie = "fieldscope_session"
	authHeader    = "Authorization"
	bearer        = "Bearer "
)

// withGate runs the request gate before any handler: classify the path,
// decode the session token, decide PASS / redirect / deny. Decoding is
// local; the gate does no storage I/O.
func (a *API) withGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		path := r.URL.Path
		if auth.BypassesGate(path) {
			next.ServeHTTP(w, r)
			return
		}

		// Fail closed: any missing or invalid token means no session.
		sess := a.sessionFromRequest(r)

		switch auth.Evaluate(path, sess) {
		case auth.DecisionPass:
			obs.RecordGateDecision("pass")
			// Propagate org id and role so handlers need not re-decode.
			// Convenience only; handlers re-verify independently.
			if sess != nil && !strings.HasPrefix(path, "/api/auth/") {
				r = r.WithContext(auth.ContextWithSession(r.Context(), *sess))
			}
			next.ServeHTTP(w, r)
		case auth.DecisionLogin:
			obs.RecordGateDecision("login")
			if strings.HasPrefix(path, "/api/") {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		case auth.DecisionDashboard:
			obs.RecordGateDecision("denied")
			http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
		}
	})
}

// sessionFromRequest extracts and validates the session token from the
// Authorization header or the session cookie. Returns nil when absent or
// invalid.
func (a *API) sessionFromRequest(r *http.Request) *auth.Session {
	if token := extractBearerToken(r.Header.Get(authHeader)); token != "" {
		if sess, err := auth.ParseSession(token); err == nil {
			return sess
		}
		return nil
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if sess, err := auth.ParseSession(c.Value); err == nil {
			return sess
		}
	}
	return nil
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}
