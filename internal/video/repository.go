package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to video metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new video repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for a stored object.
func (r *Repository) Create(ctx context.Context, v Video) (Video, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO videos (id, user_id, video_key, filename, size, mime_type, url, url_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, user_id, video_key, filename, size, mime_type, url, url_expires_at, created_at;`

	row := r.pool.QueryRow(ctx, query,
		v.ID,
		v.OwnerUserID,
		v.StorageKey,
		v.Filename,
		v.SizeBytes,
		v.MimeType,
		v.CachedURL,
		v.CachedURLExpiresAt,
	)

	stored, err := scanVideo(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return Video{}, ErrUnknownUser
			case "23505":
				return Video{}, ErrDuplicateKey
			}
		}
		return Video{}, fmt.Errorf("create video metadata: %w", err)
	}
	return stored, nil
}

// ListByOwner returns the user's videos, newest first.
func (r *Repository) ListByOwner(ctx context.Context, userID string) ([]Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, filename, size, mime_type, created_at
FROM videos
WHERE user_id = $1
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Filename, &s.Size, &s.MimeType, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// GetForOwner fetches a single video ensuring ownership.
func (r *Repository) GetForOwner(ctx context.Context, userID string, id uuid.UUID) (Video, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, user_id, video_key, filename, size, mime_type, url, url_expires_at, created_at
FROM videos
WHERE id = $1 AND user_id = $2;`

	v, err := scanVideo(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Video{}, ErrVideoNotFound
		}
		return Video{}, fmt.Errorf("get video metadata: %w", err)
	}
	return v, nil
}

// UpdateCachedURL stores the most recent link for a video.
func (r *Repository) UpdateCachedURL(ctx context.Context, id uuid.UUID, url string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `UPDATE videos SET url = $2, url_expires_at = $3 WHERE id = $1;`, id, url, expiresAt); err != nil {
		return fmt.Errorf("update cached url: %w", err)
	}
	return nil
}

// Usage sums stored bytes and counts videos for a user.
func (r *Repository) Usage(ctx context.Context, userID string) (Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var u Usage
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(size), 0)::BIGINT, COUNT(*) FROM videos WHERE user_id = $1;`, userID).
		Scan(&u.TotalBytes, &u.VideoCount)
	if err != nil {
		return Usage{}, fmt.Errorf("video usage: %w", err)
	}
	return u, nil
}

func scanVideo(row pgx.Row) (Video, error) {
	var v Video
	err := row.Scan(
		&v.ID,
		&v.OwnerUserID,
		&v.StorageKey,
		&v.Filename,
		&v.SizeBytes,
		&v.MimeType,
		&v.CachedURL,
		&v.CachedURLExpiresAt,
		&v.CreatedAt,
	)
	return v, err
}
