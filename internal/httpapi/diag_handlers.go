package httpapi

import "net/http"

// handleTestDB reports storage connectivity plus row counts. The path
// is public so deployments can verify the database wiring without a
// session.
func (a *API) handleTestDB(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	if err := a.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"error":  "database connection failed",
		})
		return
	}

	counts, err := a.store.Counts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"error":  "database connection failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"counts": counts,
	})
}
