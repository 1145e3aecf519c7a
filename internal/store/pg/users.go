package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/ids"
)

const userColumns = `id, email, coalesce(name, ''), coalesce(password_hash, ''), role, is_owner, organization_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsOwner,
		&u.OrganizationID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users
		where email = $1
	`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, orgID, userID string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users
		where organization_id = $1 and id = $2
	`, orgID, userID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, orgID string) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+`
		from users
		where organization_id = $1
		order by created_at desc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, name, password_hash, role, is_owner, organization_id)
		values ($1, $2, nullif($3, ''), $4, $5, $6, $7)
		returning created_at, updated_at
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.IsOwner, u.OrganizationID)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return auth.ErrConflict
			case pgErrForeignKeyViolation:
				return auth.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, orgID, userID string, upd auth.UserUpdate) (*auth.User, error) {
	var (
		setClauses []string
		args       []any
		idx        = 1
	)
	if upd.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = nullif($%d, '')", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", idx))
		args = append(args, *upd.Role)
		idx++
	}
	if len(setClauses) == 0 {
		return s.GetUser(ctx, orgID, userID)
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf(`
		update users set %s
		where organization_id = $%d and id = $%d
		returning `+userColumns,
		strings.Join(setClauses, ", "), idx, idx+1)
	args = append(args, orgID, userID)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) DeleteUser(ctx context.Context, orgID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		delete from users where organization_id = $1 and id = $2
	`, orgID, userID)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}
