package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldscope.io/internal/auth"
)

func seedOrg(t *testing.T, s *Store) (*auth.Organization, *auth.User) {
	t.Helper()
	org := &auth.Organization{Name: "Acme Inspections"}
	owner := &auth.User{
		Email:   "owner@acme.test",
		Role:    auth.RoleAdmin,
		IsOwner: true,
	}
	if err := s.CreateOrganizationWithOwner(context.Background(), org, owner); err != nil {
		t.Fatalf("CreateOrganizationWithOwner: %v", err)
	}
	return org, owner
}

func TestCreateOrganizationWithOwner(t *testing.T) {
	s := New()
	org, owner := seedOrg(t, s)

	if org.ID == "" || owner.ID == "" {
		t.Fatalf("expected generated ids, got org=%q owner=%q", org.ID, owner.ID)
	}
	if owner.OrganizationID != org.ID {
		t.Fatalf("owner not attached to organization")
	}

	got, err := s.GetOrganization(context.Background(), org.ID)
	if err != nil {
		t.Fatalf("GetOrganization: %v", err)
	}
	if got.Name != "Acme Inspections" {
		t.Fatalf("unexpected organization: %+v", got)
	}

	counts, err := s.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Users != 1 || counts.Organizations != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestCreateOrganizationDuplicateOwnerEmail(t *testing.T) {
	s := New()
	seedOrg(t, s)

	org := &auth.Organization{Name: "Other Org"}
	owner := &auth.User{Email: "owner@acme.test", Role: auth.RoleAdmin, IsOwner: true}
	if err := s.CreateOrganizationWithOwner(context.Background(), org, owner); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Nothing from the failed attempt may remain.
	counts, _ := s.Counts(context.Background())
	if counts.Users != 1 || counts.Organizations != 1 {
		t.Fatalf("partial state leaked: %+v", counts)
	}
}

func TestCreateUserEnforcesGlobalEmailUniqueness(t *testing.T) {
	s := New()
	orgA, _ := seedOrg(t, s)

	orgB := &auth.Organization{Name: "Beta Corp"}
	ownerB := &auth.User{Email: "owner@beta.test", Role: auth.RoleAdmin, IsOwner: true}
	if err := s.CreateOrganizationWithOwner(context.Background(), orgB, ownerB); err != nil {
		t.Fatalf("second organization: %v", err)
	}

	// Same email in a different tenant still conflicts.
	dup := &auth.User{Email: "owner@beta.test", Role: auth.RoleInspector, OrganizationID: orgA.ID}
	if err := s.CreateUser(context.Background(), dup); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	missing := &auth.User{Email: "x@acme.test", Role: auth.RoleInspector, OrganizationID: "no-such-org"}
	if err := s.CreateUser(context.Background(), missing); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown org, got %v", err)
	}
}

func TestListUsersNewestFirst(t *testing.T) {
	s := New()
	org, owner := seedOrg(t, s)

	base := time.Now().UTC().Add(-time.Hour)
	for i, email := range []string{"a@acme.test", "b@acme.test", "c@acme.test"} {
		u := &auth.User{
			Email:          email,
			Role:           auth.RoleInspector,
			OrganizationID: org.ID,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("CreateUser %s: %v", email, err)
		}
	}

	users, err := s.ListUsers(context.Background(), org.ID)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 4 {
		t.Fatalf("expected 4 users, got %d", len(users))
	}
	if users[0].ID != owner.ID {
		t.Fatalf("expected owner (newest) first, got %s", users[0].Email)
	}
	if users[1].Email != "c@acme.test" || users[3].Email != "a@acme.test" {
		t.Fatalf("unexpected order: %s, %s", users[1].Email, users[3].Email)
	}
}

func TestTenantScoping(t *testing.T) {
	s := New()
	orgA, ownerA := seedOrg(t, s)

	orgB := &auth.Organization{Name: "Beta Corp"}
	ownerB := &auth.User{Email: "owner@beta.test", Role: auth.RoleAdmin, IsOwner: true}
	if err := s.CreateOrganizationWithOwner(context.Background(), orgB, ownerB); err != nil {
		t.Fatalf("second organization: %v", err)
	}

	// A user in another tenant is indistinguishable from a missing one.
	if _, err := s.GetUser(context.Background(), orgB.ID, ownerA.ID); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("cross-tenant GetUser: expected ErrNotFound, got %v", err)
	}
	name := "Renamed"
	if _, err := s.UpdateUser(context.Background(), orgB.ID, ownerA.ID, auth.UserUpdate{Name: &name}); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("cross-tenant UpdateUser: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteUser(context.Background(), orgB.ID, ownerA.ID); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("cross-tenant DeleteUser: expected ErrNotFound, got %v", err)
	}

	users, err := s.ListUsers(context.Background(), orgA.ID)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != ownerA.ID {
		t.Fatalf("list crossed tenants: %+v", users)
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	s := New()
	org, _ := seedOrg(t, s)

	u := &auth.User{Email: "ins@acme.test", Role: auth.RoleInspector, OrganizationID: org.ID}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	name := "Renamed"
	role := auth.RoleManager
	updated, err := s.UpdateUser(context.Background(), org.ID, u.ID, auth.UserUpdate{Name: &name, Role: &role})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "Renamed" || updated.Role != auth.RoleManager {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("updated_at not bumped")
	}

	if err := s.DeleteUser(context.Background(), org.ID, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := s.DeleteUser(context.Background(), org.ID, u.ID); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}
