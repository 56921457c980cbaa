package auth

import (
	"time"

	"github.com/dmaldonado1992/MedVerify/internal/user"
)

// Claims describes the validated identity extracted from an access token.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// LoginResult contains the authenticated user and its access token.
type LoginResult struct {
	User        user.User
	AccessToken string
	ExpiresAt   time.Time
}
