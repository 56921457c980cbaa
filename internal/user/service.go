package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxUserIDLength = 128
)

// store abstracts the persistence layer.
type store interface {
	Create(ctx context.Context, u User) (User, error)
	GetByUserID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	Update(ctx context.Context, userID string, patch Patch) (User, error)
	SetPendingPasswordHash(ctx context.Context, userID, hash string) error
	Delete(ctx context.Context, userID string) (User, error)
}

// Service encapsulates user management use cases.
type Service struct {
	store      store
	bcryptCost int
	pinFunc    func() (string, error)
}

// NewService creates a Service with dependencies.
func NewService(store store, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, bcryptCost: bcryptCost, pinFunc: generatePIN}
}

// CreateInput carries data for user registration.
type CreateInput struct {
	UserID    string
	Email     string
	FirstName *string
	LastName  *string
}

// Credential is a freshly issued account PIN. The plain value exists only in
// this struct; the store keeps the hash.
type Credential struct {
	User     User
	Password string
}

// Create registers a user and issues a 6-digit PIN.
func (s *Service) Create(ctx context.Context, input CreateInput) (Credential, error) {
	userID, err := normalizeUserID(input.UserID)
	if err != nil {
		return Credential{}, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return Credential{}, err
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return Credential{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return Credential{}, err
	}
	if _, err := s.store.GetByUserID(ctx, userID); err == nil {
		return Credential{}, ErrUserIDTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return Credential{}, err
	}

	pin, hash, err := s.issuePIN()
	if err != nil {
		return Credential{}, err
	}

	created, err := s.store.Create(ctx, User{
		ID:           uuid.New(),
		UserID:       userID,
		Email:        email,
		FirstName:    trimmed(input.FirstName),
		LastName:     trimmed(input.LastName),
		PasswordHash: hash,
	})
	if err != nil {
		return Credential{}, err
	}
	return Credential{User: created, Password: pin}, nil
}

// Get returns a user by external id.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.store.GetByUserID(ctx, strings.TrimSpace(userID))
}

// GetByEmail returns a user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	return s.store.GetByEmail(ctx, normalized)
}

// Exists reports whether userID is registered.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.store.GetByUserID(ctx, strings.TrimSpace(userID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List returns a page of users. limit defaults to 10 and is capped at 100.
func (s *Service) List(ctx context.Context, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return Page{}, err
	}
	return Page{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// Update changes email and names. Email uniqueness is checked before writing.
func (s *Service) Update(ctx context.Context, userID string, patch Patch) (User, error) {
	if patch.Empty() {
		return User{}, ErrNoFields
	}
	userID = strings.TrimSpace(userID)

	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return User{}, err
		}
		patch.Email = &email

		owner, err := s.store.GetByEmail(ctx, email)
		switch {
		case err == nil && owner.UserID != userID:
			return User{}, ErrEmailTaken
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return User{}, err
		}
	}
	patch.FirstName = trimmed(patch.FirstName)
	patch.LastName = trimmed(patch.LastName)

	return s.store.Update(ctx, userID, patch)
}

// Delete removes a user and, by cascade, the user's video records.
func (s *Service) Delete(ctx context.Context, userID string) (User, error) {
	return s.store.Delete(ctx, strings.TrimSpace(userID))
}

// RotatePIN issues a new PIN for the account registered under email. The new
// PIN is stored as pending: the current one keeps working until the new one is
// first used to log in.
func (s *Service) RotatePIN(ctx context.Context, email string) (Credential, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return Credential{}, err
	}

	pin, hash, err := s.issuePIN()
	if err != nil {
		return Credential{}, err
	}
	if err := s.store.SetPendingPasswordHash(ctx, u.UserID, hash); err != nil {
		return Credential{}, err
	}
	u.PendingPasswordHash = &hash
	return Credential{User: u, Password: pin}, nil
}

func (s *Service) issuePIN() (string, string, error) {
	pin, err := s.pinFunc()
	if err != nil {
		return "", "", fmt.Errorf("generate pin: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.bcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("hash pin: %w", err)
	}
	return pin, string(hash), nil
}

// generatePIN returns a uniformly random number in [100000, 999999].
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func normalizeUserID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxUserIDLength || id == "." || id == ".." || strings.ContainsAny(id, "/\\") {
		return "", ErrInvalidUserID
	}
	return id, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
