package service

import (
	"testing"

	"github.com/invoicegen/invoicegen/internal/api/dto"
	authProvider "github.com/invoicegen/invoicegen/internal/auth"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/testutil"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/stretchr/testify/suite"
)

type AuthServiceSuite struct {
	testutil.BaseServiceTestSuite
	authService AuthService
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.authService = NewAuthService(ServiceParams{
		Logger:   s.GetLogger(),
		Config:   s.GetConfig(),
		DB:       s.GetDB(),
		UserRepo: stores.UserRepo,
		AuthRepo: stores.AuthRepo,
	})
}

func (s *AuthServiceSuite) register(email string) *dto.AuthResponse {
	resp, err := s.authService.Register(s.GetContext(), &dto.RegisterRequest{
		Name:     "Asha Rao",
		Email:    email,
		Password: "correct horse",
	})
	s.Require().NoError(err)
	return resp
}

func (s *AuthServiceSuite) TestRegister() {
	testCases := []struct {
		name          string
		req           *dto.RegisterRequest
		setupFunc     func()
		expectedError func(error) bool
	}{
		{
			name: "successful_register",
			req: &dto.RegisterRequest{
				Name:     "Asha Rao",
				Email:    "Asha@Example.com",
				Password: "correct horse",
			},
		},
		{
			name: "duplicate_email_any_case",
			req: &dto.RegisterRequest{
				Name:     "Asha Again",
				Email:    "ASHA@example.com",
				Password: "correct horse",
			},
			setupFunc: func() {
				s.register("asha@example.com")
			},
			expectedError: ierr.IsAlreadyExists,
		},
		{
			name: "short_password",
			req: &dto.RegisterRequest{
				Name:     "Asha Rao",
				Email:    "asha@example.com",
				Password: "short",
			},
			expectedError: ierr.IsValidation,
		},
		{
			name: "invalid_email",
			req: &dto.RegisterRequest{
				Name:     "Asha Rao",
				Email:    "not-an-email",
				Password: "correct horse",
			},
			expectedError: ierr.IsValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			if tc.setupFunc != nil {
				tc.setupFunc()
			}

			resp, err := s.authService.Register(s.GetContext(), tc.req)
			if tc.expectedError != nil {
				s.Nil(resp)
				s.True(tc.expectedError(err), "unexpected error %v", err)
				return
			}

			s.Require().NoError(err)
			s.True(resp.Success)
			s.NotEmpty(resp.Token)
			s.Equal("asha@example.com", resp.User.Email)

			stored, err := s.GetStores().AuthRepo.GetAuthByUserID(s.GetContext(), resp.User.ID)
			s.Require().NoError(err)
			s.Equal(types.AuthProviderInvoicegen, stored.Provider)
			s.NotEqual("correct horse", stored.Token)
			s.Equal(1, s.GetDB().Transactions)
		})
	}
}

func (s *AuthServiceSuite) TestRegisteredTokenIsValid() {
	resp := s.register("asha@example.com")

	claims, err := authProvider.NewProvider(s.GetConfig()).ValidateToken(s.GetContext(), resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, claims.UserID)
}

func (s *AuthServiceSuite) TestLogin() {
	registered := s.register("asha@example.com")

	s.Run("valid_credentials", func() {
		resp, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
			Email:    "ASHA@example.com",
			Password: "correct horse",
		})
		s.Require().NoError(err)
		s.True(resp.Success)
		s.NotEmpty(resp.Token)
		s.Equal(registered.User.ID, resp.User.ID)
	})

	s.Run("wrong_password", func() {
		resp, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
			Email:    "asha@example.com",
			Password: "battery staple",
		})
		s.Nil(resp)
		s.True(ierr.IsUnauthorized(err))
	})

	s.Run("unknown_email", func() {
		resp, err := s.authService.Login(s.GetContext(), &dto.LoginRequest{
			Email:    "nobody@example.com",
			Password: "correct horse",
		})
		s.Nil(resp)
		s.True(ierr.IsUnauthorized(err))
		s.False(ierr.IsNotFound(err))
	})
}
