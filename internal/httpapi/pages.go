package httpapi

import (
	"fmt"
	"html"
	"net/http"

	"fieldscope.io/internal/auth"
)

func writePage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>%s</body></html>", title, body)
}

func (a *API) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writePage(w, http.StatusOK, "Sign in", "<h1>Sign in</h1><p>POST credentials to /api/auth/login.</p>")
}

func (a *API) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writePage(w, http.StatusOK, "Create organization", "<h1>Create organization</h1><p>POST to /api/auth/register.</p>")
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		// The gate redirects unauthenticated traffic before it gets
		// here, so this only fires when the handler is mounted bare.
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}
	body := fmt.Sprintf("<h1>%s</h1><p>Signed in as %s (%s).</p>",
		html.EscapeString(sess.OrganizationName), html.EscapeString(sess.UserID), sess.Role)
	writePage(w, http.StatusOK, "Dashboard", body)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "fieldscope",
		"version": a.version,
	})
}
