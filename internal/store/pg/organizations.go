package pg

import (
	"context"
	"database/sql"
	"errors"

	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/ids"
)

func (s *Store) GetOrganization(ctx context.Context, id string) (*auth.Organization, error) {
	var org auth.Organization
	err := s.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at
		from organizations
		where id = $1
	`, id).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateOrganizationWithOwner inserts the organization and its founding
// user in a single transaction. Any failure rolls back both rows.
func (s *Store) CreateOrganizationWithOwner(ctx context.Context, org *auth.Organization, owner *auth.User) error {
	if org.ID == "" {
		org.ID = ids.New()
	}
	if owner.ID == "" {
		owner.ID = ids.New()
	}
	owner.OrganizationID = org.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		insert into organizations (id, name)
		values ($1, $2)
		returning created_at, updated_at
	`, org.ID, org.Name)
	if err := row.Scan(&org.CreatedAt, &org.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}

	row = tx.QueryRowContext(ctx, `
		insert into users (id, email, name, password_hash, role, is_owner, organization_id)
		values ($1, $2, nullif($3, ''), $4, $5, $6, $7)
		returning created_at, updated_at
	`, owner.ID, owner.Email, owner.Name, owner.PasswordHash, owner.Role, owner.IsOwner, org.ID)
	if err := row.Scan(&owner.CreatedAt, &owner.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}

	return tx.Commit()
}

func (s *Store) Counts(ctx context.Context) (auth.Counts, error) {
	var counts auth.Counts
	if err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&counts.Users); err != nil {
		return auth.Counts{}, err
	}
	if err := s.db.QueryRowContext(ctx, `select count(*) from organizations`).Scan(&counts.Organizations); err != nil {
		return auth.Counts{}, err
	}
	return counts, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
