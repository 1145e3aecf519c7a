// Package memstore holds an in-memory auth.Store used by the HTTP test
// harness and by local development without a database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/ids"
)

var _ auth.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	users map[string]*auth.User
	orgs  map[string]*auth.Organization
	seq   int64
	seqOf map[string]int64
}

func New() *Store {
	return &Store{
		users: make(map[string]*auth.User),
		orgs:  make(map[string]*auth.Organization),
		seqOf: make(map[string]int64),
	}
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	return &c
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *Store) GetUser(ctx context.Context, orgID, userID string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.OrganizationID != orgID {
		return nil, auth.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) ListUsers(ctx context.Context, orgID string) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []*auth.User
	for _, u := range s.users {
		if u.OrganizationID == orgID {
			users = append(users, cloneUser(u))
		}
	}
	// Newest first; insertion sequence breaks timestamp ties.
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return s.seqOf[users[i].ID] > s.seqOf[users[j].ID]
	})
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[u.OrganizationID]; !ok {
		return auth.ErrNotFound
	}
	return s.insertUserLocked(u)
}

func (s *Store) insertUserLocked(u *auth.User) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return auth.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	s.seq++
	s.seqOf[u.ID] = s.seq
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, orgID, userID string, upd auth.UserUpdate) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.OrganizationID != orgID {
		return nil, auth.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func (s *Store) DeleteUser(ctx context.Context, orgID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.OrganizationID != orgID {
		return auth.ErrNotFound
	}
	delete(s.users, userID)
	delete(s.seqOf, userID)
	return nil
}

func (s *Store) GetOrganization(ctx context.Context, id string) (*auth.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	c := *org
	return &c, nil
}

func (s *Store) CreateOrganizationWithOwner(ctx context.Context, org *auth.Organization, owner *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if org.ID == "" {
		org.ID = ids.New()
	}
	if _, ok := s.orgs[org.ID]; ok {
		return auth.ErrConflict
	}
	now := time.Now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now

	owner.OrganizationID = org.ID
	// All-or-nothing: the organization is only recorded once the owner
	// row is in.
	if err := s.insertUserLocked(owner); err != nil {
		return err
	}
	c := *org
	s.orgs[org.ID] = &c
	return nil
}

func (s *Store) Counts(ctx context.Context) (auth.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return auth.Counts{
		Users:         int64(len(s.users)),
		Organizations: int64(len(s.orgs)),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }
