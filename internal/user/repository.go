package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

const userColumns = `id, user_id, email, first_name, last_name, password_hash, created_at, updated_at, pending_password_hash`

// Repository provides database access for users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new user record.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO users (id, user_id, email, first_name, last_name, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns + `;`

	row := r.pool.QueryRow(ctx, query, u.ID, u.UserID, u.Email, u.FirstName, u.LastName, u.PasswordHash)
	stored, err := scanUser(row)
	if err != nil {
		if uniqueErr := uniqueViolation(err); uniqueErr != nil {
			return User{}, uniqueErr
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return stored, nil
}

// GetByUserID fetches a user by external id.
func (r *Repository) GetByUserID(ctx context.Context, userID string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1;`, userID)
}

// GetByEmail fetches a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1;`, email)
}

func (r *Repository) getOne(ctx context.Context, query string, arg string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Exists reports whether a user with the external id is registered.
func (r *Repository) Exists(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1);`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

// List returns one page of users, newest first, and the total row count.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `
SELECT ` + userColumns + `
FROM users
ORDER BY created_at DESC
LIMIT $1 OFFSET $2;`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

// Update applies the non-nil fields of patch.
func (r *Repository) Update(ctx context.Context, userID string, patch Patch) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE users
SET email = COALESCE($2, email),
    first_name = COALESCE($3, first_name),
    last_name = COALESCE($4, last_name),
    updated_at = NOW()
WHERE user_id = $1
RETURNING ` + userColumns + `;`

	u, err := scanUser(r.pool.QueryRow(ctx, query, userID, patch.Email, patch.FirstName, patch.LastName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if uniqueErr := uniqueViolation(err); uniqueErr != nil {
			return User{}, uniqueErr
		}
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// SetPendingPasswordHash stores hash next to the current credential. A later
// rotation replaces an unused pending hash.
func (r *Repository) SetPendingPasswordHash(ctx context.Context, userID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE users SET pending_password_hash = $2, updated_at = NOW() WHERE user_id = $1;`, userID, hash)
	if err != nil {
		return fmt.Errorf("set pending password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// PromotePendingPassword makes the pending hash current, provided it is still
// the one the caller verified.
func (r *Repository) PromotePendingPassword(ctx context.Context, userID, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
UPDATE users
SET password_hash = pending_password_hash,
    pending_password_hash = NULL,
    updated_at = NOW()
WHERE user_id = $1 AND pending_password_hash = $2;`

	tag, err := r.pool.Exec(ctx, query, userID, hash)
	if err != nil {
		return fmt.Errorf("promote pending password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user. Videos go with it through the foreign key cascade.
func (r *Repository) Delete(ctx context.Context, userID string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, `DELETE FROM users WHERE user_id = $1 RETURNING `+userColumns+`;`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("delete user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.UserID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt, &u.PendingPasswordHash)
	return u, err
}

// uniqueViolation maps a 23505 error to the sentinel for the violated constraint.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	if pgErr.ConstraintName == "users_user_id_key" {
		return ErrUserIDTaken
	}
	return ErrEmailTaken
}
