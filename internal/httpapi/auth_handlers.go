package httpapi

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"fieldscope.io/internal/audit"
	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/obs"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	OrganizationName string `json:"organizationName"`
}

type registeredUser struct {
	ID             string               `json:"id"`
	Email          string               `json:"email"`
	Name           string               `json:"name,omitempty"`
	Role           auth.Role            `json:"role"`
	IsOwner        bool                 `json:"isOwner"`
	OrganizationID string               `json:"organizationId"`
	CreatedAt      time.Time            `json:"createdAt"`
	Organization   auth.OrganizationRef `json:"organization"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Password == "" || req.OrganizationName == "" {
		writeError(w, r, http.StatusBadRequest, "email, password, and organization name are required")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeError(w, r, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 6 characters long")
		return
	}
	orgName := strings.TrimSpace(req.OrganizationName)
	if len(orgName) < 2 {
		writeError(w, r, http.StatusBadRequest, "organization name must be at least 2 characters long")
		return
	}

	// Duplicate-email detection happens before the transaction starts so
	// a conflict creates nothing.
	if _, err := a.store.FindUserByEmail(r.Context(), req.Email); err == nil {
		writeError(w, r, http.StatusConflict, "user with this email already exists")
		return
	} else if !errors.Is(err, auth.ErrNotFound) {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	org := &auth.Organization{Name: orgName}
	owner := &auth.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		IsOwner:      true,
	}
	if err := a.store.CreateOrganizationWithOwner(r.Context(), org, owner); err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"organization_id": org.ID,
		"user_id":         owner.ID,
		"email":           owner.Email,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "organization created successfully",
		"user": registeredUser{
			ID:             owner.ID,
			Email:          owner.Email,
			Name:           owner.Name,
			Role:           owner.Role,
			IsOwner:        owner.IsOwner,
			OrganizationID: owner.OrganizationID,
			CreatedAt:      owner.CreatedAt,
			Organization:   auth.OrganizationRef{ID: org.ID, Name: org.Name},
		},
		"organization": org,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	identity, err := a.verifier.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.RecordLogin("failure")
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := auth.MintSession(identity, a.sessionTTL)
	if err != nil {
		obs.RecordLogin("failure")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	obs.RecordLogin("success")

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	sess := auth.Session{
		UserID:           identity.UserID,
		Role:             identity.Role,
		OrganizationID:   identity.OrganizationID,
		OrganizationName: identity.Organization.Name,
		IsOwner:          identity.IsOwner,
		ExpiresAt:        expiresAt,
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":         identity.UserID,
		"organization_id": identity.OrganizationID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expiresAt,
		"session":   sess,
	})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess := a.sessionFromRequest(r)
	if sess == nil {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

type logoutRequest struct {
	CallbackURL string `json:"callbackUrl"`
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req logoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if sess := a.sessionFromRequest(r); sess != nil {
		ctx := auth.ContextWithSession(r.Context(), *sess)
		_ = audit.LogEvent(ctx, "auth.logout", nil)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"redirectUrl": auth.SafeCallbackURL(req.CallbackURL, a.baseURL),
	})
}
