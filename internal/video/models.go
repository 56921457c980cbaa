package video

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Video is the stored record of an uploaded object.
type Video struct {
	ID                 uuid.UUID
	OwnerUserID        string
	StorageKey         string
	Filename           string
	SizeBytes          int64
	MimeType           string
	CachedURL          *string
	CachedURLExpiresAt *time.Time
	CreatedAt          time.Time
}

// Summary is the list representation of a video.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Usage aggregates a user's stored videos.
type Usage struct {
	TotalBytes int64 `json:"totalBytes"`
	VideoCount int64 `json:"videoCount"`
}

// UploadInput carries one video upload.
type UploadInput struct {
	UserID      string
	UserEmail   string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploaded is returned after a successful upload.
type Uploaded struct {
	VideoID   uuid.UUID `json:"videoId"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Link is a time-limited URL for a stored video.
type Link struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
}
