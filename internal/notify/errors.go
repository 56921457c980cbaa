package notify

import "errors"

var (
	// ErrAllProvidersFailed is returned when every sender in the chain failed.
	ErrAllProvidersFailed = errors.New("all email providers failed")
	// ErrNoProviders is returned when no sender is configured.
	ErrNoProviders = errors.New("no email provider configured")
	// ErrUnknownProvider is returned by SendVia for a provider that is not configured.
	ErrUnknownProvider = errors.New("email provider not configured")
	// ErrInvalidMessage is returned for a message without recipient, subject or body.
	ErrInvalidMessage = errors.New("email requires to, subject and html")
)
