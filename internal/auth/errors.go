package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized represents missing or invalid authentication tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a token's subject differs from the requested user.
	ErrForbidden = errors.New("forbidden")
)
