package testutil

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/domain/auth"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
)

var _ auth.Repository = (*InMemoryAuthStore)(nil)

// InMemoryAuthStore keeps one credential record per user
type InMemoryAuthStore struct {
	*InMemoryStore[*auth.Auth]
}

func NewInMemoryAuthStore() *InMemoryAuthStore {
	return &InMemoryAuthStore{
		InMemoryStore: NewInMemoryStore[*auth.Auth](),
	}
}

func (s *InMemoryAuthStore) CreateAuth(ctx context.Context, a *auth.Auth) error {
	return s.InMemoryStore.Create(ctx, a.UserID, a)
}

func (s *InMemoryAuthStore) GetAuthByUserID(ctx context.Context, userID string) (*auth.Auth, error) {
	a, err := s.InMemoryStore.Get(ctx, userID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Authentication record not found").
			WithReportableDetails(map[string]interface{}{
				"user_id": userID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return a, nil
}
