package auth

import "context"

// UserUpdate carries the mutable user fields. Nil pointers mean "leave
// unchanged"; set pointers overwrite, including with the zero value.
type UserUpdate struct {
	Name *string
	Role *Role
}

// Counts summarizes row totals for the diagnostic endpoint.
type Counts struct {
	Users         int64 `json:"users"`
	Organizations int64 `json:"organizations"`
}

// Store describes persistence operations required by the identity and
// access subsystem. All user reads and writes except FindUserByEmail are
// scoped by organization id; a row in another tenant behaves exactly like
// a missing row (ErrNotFound).
type Store interface {
	// FindUserByEmail looks up exactly one user by exact, case-sensitive
	// email match. Returns ErrNotFound when absent.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	GetUser(ctx context.Context, orgID, userID string) (*User, error)

	// ListUsers returns the organization's users ordered newest-created
	// first.
	ListUsers(ctx context.Context, orgID string) ([]*User, error)

	// CreateUser inserts a user into an existing organization. Returns
	// ErrConflict on duplicate email (uniqueness is global, not
	// per-tenant).
	CreateUser(ctx context.Context, u *User) error

	// UpdateUser applies upd to the user identified by (orgID, userID)
	// and returns the updated row, or ErrNotFound.
	UpdateUser(ctx context.Context, orgID, userID string, upd UserUpdate) (*User, error)

	// DeleteUser removes the user identified by (orgID, userID), or
	// returns ErrNotFound.
	DeleteUser(ctx context.Context, orgID, userID string) error

	GetOrganization(ctx context.Context, id string) (*Organization, error)

	// CreateOrganizationWithOwner atomically creates the organization and
	// its founding user. Either both rows commit or neither does.
	// Returns ErrConflict on duplicate email or organization id.
	CreateOrganizationWithOwner(ctx context.Context, org *Organization, owner *User) error

	Counts(ctx context.Context) (Counts, error)
	Ping(ctx context.Context) error
}
