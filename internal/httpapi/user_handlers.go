package httpapi

import (
	"net/http"
	"strings"

	"fieldscope.io/internal/audit"
	"fieldscope.io/internal/auth"
)

// requireAdmin resolves the caller's session and enforces the ADMIN role.
// Returns nil after writing the response when the caller is not allowed.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) *auth.Session {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		if s := a.sessionFromRequest(r); s != nil {
			sess = *s
			ok = true
		}
	}
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil
	}
	if sess.Role != auth.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return nil
	}
	return &sess
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.handleListUsers(w, r)
	case http.MethodPost:
		a.handleCreateUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	sess := a.requireAdmin(w, r)
	if sess == nil {
		return
	}
	users, err := a.store.ListUsers(r.Context(), sess.OrganizationID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserRequest struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	TemporaryPassword string `json:"temporaryPassword"`
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	sess := a.requireAdmin(w, r)
	if sess == nil {
		return
	}

	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Email == "" || req.Role == "" {
		writeError(w, r, http.StatusBadRequest, "email and role are required")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeError(w, r, http.StatusBadRequest, "invalid email format")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid role")
		return
	}

	// Accounts created by an admin get a generated temporary password
	// unless one was supplied. The plaintext is returned in the create
	// response and never retrievable afterwards.
	password := req.TemporaryPassword
	if password == "" {
		password, err = auth.TemporaryPassword()
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	if len(password) < 6 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 6 characters long")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	user := &auth.User{
		Email:          req.Email,
		Name:           req.Name,
		PasswordHash:   hash,
		Role:           role,
		OrganizationID: sess.OrganizationID,
	}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "users.create", map[string]any{
		"target_user_id": user.ID,
		"role":           string(role),
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":           "user created successfully",
		"user":              user,
		"temporaryPassword": password,
	})
}

// handleUserResource dispatches /api/users/{id} requests.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		a.handleUpdateUser(w, r, id)
	case http.MethodDelete:
		a.handleDeleteUser(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

type updateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request, id string) {
	sess := a.requireAdmin(w, r)
	if sess == nil {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := auth.UserUpdate{Name: req.Name}
	if req.Role != nil {
		role, err := auth.ParseRole(*req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid role")
			return
		}
		upd.Role = &role
	}

	// Lookup is scoped to the caller's organization, so a user from
	// another tenant is indistinguishable from a missing one.
	target, err := a.store.GetUser(r.Context(), sess.OrganizationID, id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	// The founder stays an admin; anything else would orphan the tenant.
	if target.IsOwner && upd.Role != nil && *upd.Role != auth.RoleAdmin {
		writeError(w, r, http.StatusBadRequest, "cannot change role of organization owner")
		return
	}

	user, err := a.store.UpdateUser(r.Context(), sess.OrganizationID, id, upd)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "users.update", map[string]any{
		"target_user_id": id,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "user updated successfully",
		"user":    user,
	})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request, id string) {
	sess := a.requireAdmin(w, r)
	if sess == nil {
		return
	}

	target, err := a.store.GetUser(r.Context(), sess.OrganizationID, id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if target.IsOwner {
		writeError(w, r, http.StatusBadRequest, "cannot delete organization owner")
		return
	}
	if id == sess.UserID {
		writeError(w, r, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := a.store.DeleteUser(r.Context(), sess.OrganizationID, id); err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "users.delete", map[string]any{
		"target_user_id": id,
	})

	writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted successfully"})
}
