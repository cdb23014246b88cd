package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/auth"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/types"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// localAuth keeps bcrypt password hashes in the auths table and issues HS256 JWTs
type localAuth struct {
	AuthConfig config.AuthConfig
	now        func() time.Time
}

func NewLocalAuth(cfg *config.Configuration) *localAuth {
	return &localAuth{
		AuthConfig: cfg.Auth,
		now:        time.Now,
	}
}

func (a *localAuth) GetProvider() types.AuthProvider {
	return types.AuthProviderInvoicegen
}

func (a *localAuth) SignUp(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	if req.Password == "" {
		return nil, ierr.NewError("password is required").
			WithHint("Password is required").
			Mark(ierr.ErrValidation)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to hash password").
			Mark(ierr.ErrSystem)
	}

	userID := req.UserID
	if userID == "" {
		userID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER)
	}

	authToken, err := a.generateToken(userID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}

	return &AuthResponse{
		ProviderToken: string(hashedPassword),
		AuthToken:     authToken,
		ID:            userID,
	}, nil
}

func (a *localAuth) Login(ctx context.Context, req AuthRequest, userAuthInfo *auth.Auth) (*AuthResponse, error) {
	if userAuthInfo == nil || userAuthInfo.Status != types.StatusActive {
		return nil, ierr.NewError("no active credentials").
			WithHint("Invalid credentials").
			Mark(ierr.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userAuthInfo.Token), []byte(req.Password)); err != nil {
		return nil, ierr.NewError("invalid password").
			WithHint("Invalid credentials").
			Mark(ierr.ErrUnauthorized)
	}

	authToken, err := a.generateToken(userAuthInfo.UserID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}

	return &AuthResponse{
		ProviderToken: userAuthInfo.Token,
		AuthToken:     authToken,
		ID:            userAuthInfo.UserID,
	}, nil
}

func (a *localAuth) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewErrorf("unexpected signing method: %v", token.Header["alg"]).
				WithHint("Not authorized, token failed").
				Mark(ierr.ErrUnauthorized)
		}
		return []byte(a.AuthConfig.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Not authorized, token failed").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Not authorized, token failed").
			Mark(ierr.ErrUnauthorized)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Not authorized, token failed").
			Mark(ierr.ErrUnauthorized)
	}

	return &auth.Claims{UserID: userID}, nil
}

func (a *localAuth) generateToken(userID string) (string, error) {
	ttl := a.AuthConfig.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := a.now()

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.AuthConfig.Secret))
}
