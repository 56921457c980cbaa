package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmaldonado1992/MedVerify/internal/config"
	"github.com/dmaldonado1992/MedVerify/internal/user"
)

const (
	issuer   = "medverify"
	audience = "medverify-api"
)

// userStore is the lookup login needs.
type userStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	PromotePendingPassword(ctx context.Context, userID, hash string) error
}

// Service encapsulates authentication use cases.
type Service struct {
	users   userStore
	cfg     config.AuthConfig
	nowFunc func() time.Time
	parser  *jwt.Parser
}

// NewService creates a Service with dependencies.
func NewService(users userStore, cfg config.AuthConfig) *Service {
	s := &Service{users: users, cfg: cfg, nowFunc: time.Now}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.nowFunc() }),
	)
	return s
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Login checks the password against the stored hash and issues an access token.
// A rotated PIN that has not been used yet is accepted too; using it makes it
// the current credential and retires the previous one.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := s.verifyPassword(ctx, u, input.Password); err != nil {
		return LoginResult{}, err
	}

	token, expiresAt, err := s.generateAccessToken(u, s.nowFunc())
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate access token: %w", err)
	}

	u.PasswordHash = ""
	u.PendingPasswordHash = nil
	return LoginResult{User: u, AccessToken: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) verifyPassword(ctx context.Context, u user.User, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil {
		return nil
	}
	if u.PendingPasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*u.PendingPasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}

	if err := s.users.PromotePendingPassword(ctx, u.UserID, *u.PendingPasswordHash); err != nil {
		// Rotated again since the lookup: the PIN just checked is no longer pending.
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("promote pending password: %w", err)
	}
	return nil
}

// ValidateAccessToken verifies the token signature and extracts user claims.
func (s *Service) ValidateAccessToken(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrUnauthorized
	}

	var claims accessClaims
	parsed, err := s.parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrUnauthorized
	}

	out := Claims{UserID: claims.Subject, Email: claims.Email, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

type accessClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (s *Service) generateAccessToken(u user.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := accessClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
