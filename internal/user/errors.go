package user

import "errors"

var (
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserIDTaken indicates the external user id is already registered.
	ErrUserIDTaken = errors.New("user_id already registered")
	// ErrInvalidUserID is returned for empty ids or ids that cannot form a storage path segment.
	ErrInvalidUserID = errors.New("invalid user_id")
	// ErrInvalidEmail is returned for an empty or malformed email.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrNoFields is returned by Update when the patch is empty.
	ErrNoFields = errors.New("no fields to update")
)
