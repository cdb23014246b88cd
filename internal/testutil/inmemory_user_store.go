package testutil

import (
	"context"
	"sync"

	"github.com/invoicegen/invoicegen/internal/domain/user"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
)

var _ user.Repository = (*InMemoryUserStore)(nil)

// InMemoryUserStore keys users by id and keeps emails unique like the database index does
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]

	mu     sync.Mutex
	emails map[string]string
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
		emails:        make(map[string]string),
	}
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := user.NormalizeEmail(u.Email)
	if _, exists := s.emails[email]; exists {
		return ierr.NewError("user already exists").
			WithHint("User already exists").
			WithReportableDetails(map[string]any{"email": email}).
			Mark(ierr.ErrAlreadyExists)
	}

	if err := s.InMemoryStore.Create(ctx, u.ID, u); err != nil {
		return err
	}
	s.emails[email] = u.ID
	return nil
}

func (s *InMemoryUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("User not found").
			Mark(ierr.ErrNotFound)
	}
	return u, nil
}

func (s *InMemoryUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	id, exists := s.emails[user.NormalizeEmail(email)]
	s.mu.Unlock()

	if !exists {
		return nil, ierr.NewError("user not found").
			WithHint("User not found").
			Mark(ierr.ErrNotFound)
	}
	return s.GetByID(ctx, id)
}

func (s *InMemoryUserStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InMemoryStore.Clear()
	s.emails = make(map[string]string)
}
