package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/invoicegen/invoicegen/internal/domain/auth"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/postgres"
	"github.com/invoicegen/invoicegen/internal/types"
)

type authRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAuthRepository(db *postgres.DB, logger *logger.Logger) auth.Repository {
	return &authRepository{db: db, logger: logger}
}

func (r *authRepository) CreateAuth(ctx context.Context, a *auth.Auth) error {
	if !r.ValidateProvider(a.Provider) {
		return ierr.NewErrorf("invalid auth provider %s", a.Provider).
			WithHint("Unsupported authentication provider").
			Mark(ierr.ErrValidation)
	}

	query := `
	INSERT INTO auths (user_id, provider, token, status, created_at, updated_at)
	VALUES (:user_id, :provider, :token, :status, :created_at, :updated_at)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, a); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to store credentials").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *authRepository) GetAuthByUserID(ctx context.Context, userID string) (*auth.Auth, error) {
	query := `SELECT user_id, provider, token, status, created_at, updated_at FROM auths WHERE user_id = $1`

	var a auth.Auth
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &a, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("Credentials not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get credentials").
			Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

// ValidateProvider accepts only providers whose credentials live in this database
func (r *authRepository) ValidateProvider(provider types.AuthProvider) bool {
	return provider == types.AuthProviderInvoicegen
}
