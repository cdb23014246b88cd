package service

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/api/dto"
	authProvider "github.com/invoicegen/invoicegen/internal/auth"
	"github.com/invoicegen/invoicegen/internal/domain/auth"
	"github.com/invoicegen/invoicegen/internal/domain/user"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	ServiceParams
	authProvider authProvider.Provider
}

func NewAuthService(params ServiceParams) AuthService {
	return &authService{
		ServiceParams: params,
		authProvider:  authProvider.NewProvider(params.Config),
	}
}

// Register creates a new user with local credentials and returns an auth token
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	newUser := user.NewUser(req.Name, req.Email)

	existing, err := s.UserRepo.GetByEmail(ctx, newUser.Email)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ierr.NewError("user already exists").
			WithHint("User already exists").
			WithReportableDetails(map[string]interface{}{
				"email": newUser.Email,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	authResponse, err := s.authProvider.SignUp(ctx, authProvider.AuthRequest{
		UserID:   newUser.ID,
		Email:    newUser.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.UserRepo.Create(ctx, newUser); err != nil {
			return err
		}
		return s.AuthRepo.CreateAuth(ctx, auth.NewAuth(newUser.ID, s.authProvider.GetProvider(), authResponse.ProviderToken))
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("registered user", "user_id", newUser.ID)

	return &dto.AuthResponse{
		Success: true,
		Token:   authResponse.AuthToken,
		User:    dto.NewUserResponse(newUser),
	}, nil
}

// Login authenticates a user and returns an auth token
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.UserRepo.GetByEmail(ctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, invalidCredentials(err)
		}
		return nil, err
	}

	userAuth, err := s.AuthRepo.GetAuthByUserID(ctx, u.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, invalidCredentials(err)
		}
		return nil, err
	}

	authResponse, err := s.authProvider.Login(ctx, authProvider.AuthRequest{
		UserID:   u.ID,
		Email:    u.Email,
		Password: req.Password,
	}, userAuth)
	if err != nil {
		return nil, err
	}

	if authResponse.ID != u.ID {
		return nil, ierr.NewError("token issued for a different user").
			WithHint("Invalid credentials").
			WithReportableDetails(map[string]interface{}{
				"user_id": u.ID,
			}).
			Mark(ierr.ErrUnauthorized)
	}

	return &dto.AuthResponse{
		Success: true,
		Token:   authResponse.AuthToken,
		User:    dto.NewUserResponse(u),
	}, nil
}

// unknown email and wrong password look the same to the caller.
// The cause is not wrapped so its not-found mark does not leak into the status.
func invalidCredentials(err error) error {
	return ierr.NewErrorf("login rejected: %v", err).
		WithHint("Invalid credentials").
		Mark(ierr.ErrUnauthorized)
}
