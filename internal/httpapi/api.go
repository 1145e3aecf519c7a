package httpapi

import (
	"net/http"
	"time"

	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/obs"
)

// API is the HTTP layer: route wiring, middleware chain, request gate.
type API struct {
	mux      *http.ServeMux
	store    auth.Store
	verifier *auth.Verifier
	version  string
	baseURL  string

	sessionTTL time.Duration
	rateBurst  int
	ratePerSec int
}

// Option configures the API.
type Option func(*API)

// WithSessionTTL overrides the session token lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(a *API) {
		if ttl > 0 {
			a.sessionTTL = ttl
		}
	}
}

// WithRateLimit overrides the per-IP rate limit.
func WithRateLimit(burst, perSec int) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSec > 0 {
			a.ratePerSec = perSec
		}
	}
}

func New(store auth.Store, version, baseURL string, opts ...Option) *API {
	a := &API{
		mux:        http.NewServeMux(),
		store:      store,
		verifier:   auth.NewVerifier(store),
		version:    version,
		baseURL:    baseURL,
		sessionTTL: auth.DefaultSessionTTL,
		rateBurst:  50,
		ratePerSec: 25,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication endpoints
	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/session", a.handleSession)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)

	// user administration
	a.mux.HandleFunc("/api/users", a.handleUsers)
	a.mux.HandleFunc("/api/users/", a.handleUserResource)

	// diagnostics
	a.mux.HandleFunc("/api/test-db", a.handleTestDB)

	// pages (placeholders; the gate is what matters here)
	a.mux.HandleFunc("/login", a.handleLoginPage)
	a.mux.HandleFunc("/register", a.handleRegisterPage)
	a.mux.HandleFunc("/dashboard", a.handleDashboard)
	a.mux.HandleFunc("/dashboard/", a.handleDashboard)
	a.mux.HandleFunc("/", a.handleRoot)

	return a
}

// Handler assembles the middleware chain around the mux. The gate sits
// innermost so every earlier layer applies to public paths too.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withGate(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "fieldscope-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
