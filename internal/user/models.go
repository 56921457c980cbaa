package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. UserID is the identifier callers use
// in API paths and storage keys; ID is the internal primary key.
type User struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	FirstName    *string   `json:"first_name"`
	LastName     *string   `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// PendingPasswordHash holds a rotated PIN that has not been used yet. The
	// current hash stays valid until the first login with the pending one.
	PendingPasswordHash *string `json:"-"`
}

// DisplayName returns the best human-readable name available.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	default:
		return u.UserID
	}
}

// Patch carries the optional fields accepted by Update.
type Patch struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil
}

// Page is one slice of the user listing.
type Page struct {
	Users  []User
	Total  int
	Limit  int
	Offset int
}

// HasMore reports whether rows exist past this page.
func (p Page) HasMore() bool {
	return p.Offset+len(p.Users) < p.Total
}
