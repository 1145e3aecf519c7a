package auth

import (
	"context"
	"strings"
)

// Verifier authenticates email/password pairs against stored user records.
// It is read-only and fails closed: every failure path, including storage
// errors, collapses into ErrInvalidCredentials.
type Verifier struct {
	store Store
}

func NewVerifier(store Store) *Verifier {
	return &Verifier{store: store}
}

// Authenticate looks up exactly one user by exact email match and compares
// the supplied password against the stored bcrypt hash. On success it
// returns the Identity snapshot used to mint the session token.
func (v *Verifier) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	user, err := v.store.FindUserByEmail(ctx, email)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	// Externally provisioned accounts carry no hash and cannot log in
	// with credentials.
	if user.PasswordHash == "" {
		return Identity{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	org, err := v.store.GetOrganization(ctx, user.OrganizationID)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	return Identity{
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		IsOwner:        user.IsOwner,
		Organization:   OrganizationRef{ID: org.ID, Name: org.Name},
	}, nil
}
