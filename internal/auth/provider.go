package auth

import (
	"context"

	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/auth"
	"github.com/invoicegen/invoicegen/internal/types"
)

type AuthRequest struct {
	UserID   string
	Email    string
	Password string
}

type AuthResponse struct {
	// ProviderToken is what gets stored in auths.token, a bcrypt hash for local auth
	ProviderToken string
	AuthToken     string
	ID            string
}

type Provider interface {
	GetProvider() types.AuthProvider
	SignUp(ctx context.Context, req AuthRequest) (*AuthResponse, error)
	Login(ctx context.Context, req AuthRequest, userAuthInfo *auth.Auth) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewLocalAuth(cfg)
}
