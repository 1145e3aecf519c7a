package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the platform access level. Exactly three values exist; anything
// else is rejected at every boundary that accepts a role.
type Role string

const (
	RoleInspector Role = "INSPECTOR"
	RoleManager   Role = "MANAGER"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(raw)) {
	case RoleInspector:
		return RoleInspector, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: invalid role %q", ErrInvalidInput, raw)
	}
}

// Valid reports whether r is one of the three defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleInspector, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Organization is the tenant boundary. Every piece of data the platform
// holds is partitioned by organization id.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is a person with platform access, always belonging to exactly one
// organization. PasswordHash is never serialized.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	IsOwner        bool      `json:"isOwner"`
	OrganizationID string    `json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// OrganizationRef is the compact organization projection carried inside an
// Identity and a session token.
type OrganizationRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity is the result of successful credential verification: the exact
// authorization attributes of the user at the moment of login.
type Identity struct {
	UserID         string
	Email          string
	Name           string
	Role           Role
	OrganizationID string
	IsOwner        bool
	Organization   OrganizationRef
}
