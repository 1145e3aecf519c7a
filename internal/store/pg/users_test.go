package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"fieldscope.io/internal/auth"
)

var userCols = []string{
	"id", "email", "name", "password_hash", "role", "is_owner",
	"organization_id", "created_at", "updated_at",
}

func userRow(mockTime time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(
		"user-1", "ada@acme.test", "Ada", "$2a$12$hash", "ADMIN", true,
		"org-1", mockTime, mockTime,
	)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestFindUserByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select (.+)\\s+from users\\s+where email = \\$1").
		WithArgs("ada@acme.test").
		WillReturnRows(userRow(now))

	u, err := store.FindUserByEmail(context.Background(), "ada@acme.test")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if u.ID != "user-1" || u.Role != auth.RoleAdmin || !u.IsOwner {
		t.Fatalf("unexpected user: %+v", u)
	}

	mock.ExpectQuery("select (.+)\\s+from users\\s+where email = \\$1").
		WithArgs("nobody@acme.test").
		WillReturnRows(sqlmock.NewRows(userCols))

	if _, err := store.FindUserByEmail(context.Background(), "nobody@acme.test"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetUserScopedByOrganization(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+)\\s+from users\\s+where organization_id = \\$1 and id = \\$2").
		WithArgs("org-2", "user-1").
		WillReturnRows(sqlmock.NewRows(userCols))

	if _, err := store.GetUser(context.Background(), "org-2", "user-1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant lookup, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserConflictMapping(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	u := &auth.User{Email: "ada@acme.test", Role: auth.RoleInspector, OrganizationID: "org-1"}
	if err := store.CreateUser(context.Background(), u); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict on unique violation, got %v", err)
	}

	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	u2 := &auth.User{Email: "x@acme.test", Role: auth.RoleInspector, OrganizationID: "no-such-org"}
	if err := store.CreateUser(context.Background(), u2); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on fk violation, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUserAssignsID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("insert into users").
		WithArgs(sqlmock.AnyArg(), "ada@acme.test", "Ada", "$2a$12$hash", "INSPECTOR", false, "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &auth.User{
		Email:          "ada@acme.test",
		Name:           "Ada",
		PasswordHash:   "$2a$12$hash",
		Role:           auth.RoleInspector,
		OrganizationID: "org-1",
	}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !u.CreatedAt.Equal(now) {
		t.Fatalf("timestamps not populated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateUserBuildsSetClauses(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	name := "Renamed"
	role := auth.RoleManager

	mock.ExpectQuery("update users set name = nullif\\(\\$1, ''\\), role = \\$2, updated_at = now\\(\\)").
		WithArgs("Renamed", "MANAGER", "org-1", "user-1").
		WillReturnRows(userRow(now))

	u, err := store.UpdateUser(context.Background(), "org-1", "user-1", auth.UserUpdate{Name: &name, Role: &role})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Role-only update keeps the name untouched.
	mock.ExpectQuery("update users set role = \\$1, updated_at = now\\(\\)").
		WithArgs("MANAGER", "org-1", "user-1").
		WillReturnRows(userRow(now))

	if _, err := store.UpdateUser(context.Background(), "org-1", "user-1", auth.UserUpdate{Role: &role}); err != nil {
		t.Fatalf("role-only update: %v", err)
	}

	// Updating a row the tenant cannot see reports not found.
	mock.ExpectQuery("update users set role = \\$1, updated_at = now\\(\\)").
		WithArgs("MANAGER", "org-2", "user-1").
		WillReturnRows(sqlmock.NewRows(userCols))

	if _, err := store.UpdateUser(context.Background(), "org-2", "user-1", auth.UserUpdate{Role: &role}); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from users where organization_id = \\$1 and id = \\$2").
		WithArgs("org-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteUser(context.Background(), "org-1", "user-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	mock.ExpectExec("delete from users where organization_id = \\$1 and id = \\$2").
		WithArgs("org-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteUser(context.Background(), "org-1", "user-1"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
