package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/invoicegen/invoicegen/internal/domain/user"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/postgres"
)

const userEmailIndex = "idx_users_email"

type userRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	span := postgres.StartRepositorySpan(ctx, "user", "create", map[string]interface{}{
		"user_id": u.ID,
	})
	defer postgres.FinishSpan(span)

	query := `
	INSERT INTO users (id, name, email, status, created_at, updated_at)
	VALUES (:id, :name, :email, :status, :created_at, :updated_at)
	`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, u); err != nil {
		postgres.SetSpanError(span, err)
		if postgres.IsUniqueViolation(err, userEmailIndex) {
			return ierr.WithError(err).
				WithHint("User already exists").
				WithReportableDetails(map[string]any{
					"email": u.Email,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create user").
			Mark(ierr.ErrDatabase)
	}

	postgres.SetSpanSuccess(span)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, name, email, status, created_at, updated_at FROM users WHERE id = $1`
	return r.get(ctx, "get", query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT id, name, email, status, created_at, updated_at FROM users WHERE LOWER(email) = $1`
	return r.get(ctx, "get_by_email", query, user.NormalizeEmail(email))
}

func (r *userRepository) get(ctx context.Context, op, query string, arg string) (*user.User, error) {
	span := postgres.StartRepositorySpan(ctx, "user", op, nil)
	defer postgres.FinishSpan(span)

	var u user.User
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &u, query, arg); err != nil {
		postgres.SetSpanError(span, err)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("User not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get user").
			Mark(ierr.ErrDatabase)
	}

	postgres.SetSpanSuccess(span)
	return &u, nil
}
