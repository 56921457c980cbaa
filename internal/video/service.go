package video

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/dmaldonado1992/MedVerify/internal/metrics"
	"github.com/dmaldonado1992/MedVerify/internal/notify"
	"github.com/dmaldonado1992/MedVerify/internal/presigned"
)

const (
	defaultMaxFileSize = 2 << 30 // 2GiB
	maxExtensionLength = 10
)

var mimeExtensions = map[string]string{
	"video/mp4":        "mp4",
	"video/quicktime":  "mov",
	"video/webm":       "webm",
	"video/x-msvideo":  "avi",
	"video/x-matroska": "mkv",
	"video/mpeg":       "mpeg",
	"video/ogg":        "ogv",
	"video/3gpp":       "3gp",
	"video/x-flv":      "flv",
	"video/x-ms-wmv":   "wmv",
}

type metadataStore interface {
	Create(ctx context.Context, v Video) (Video, error)
	ListByOwner(ctx context.Context, userID string) ([]Summary, error)
	GetForOwner(ctx context.Context, userID string, id uuid.UUID) (Video, error)
	UpdateCachedURL(ctx context.Context, id uuid.UUID, url string, expiresAt time.Time) error
	Usage(ctx context.Context, userID string) (Usage, error)
}

type objectStore interface {
	Bucket() string
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (minio.UploadInfo, error)
}

type userLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type notifier interface {
	StudyReady(ctx context.Context, n notify.Notice) (notify.Result, error)
}

// Options tunes upload limits and link lifetimes.
type Options struct {
	MaxBytes  int64
	UploadTTL time.Duration
	ReadTTL   time.Duration
	Mode      presigned.Mode
}

// Service manages the video upload pipeline and link issuance.
type Service struct {
	videos  metadataStore
	users   userLookup
	objects objectStore
	signer  presigned.Presigner
	mailer  notifier
	opts    Options
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewService constructs a video service. mailer may be nil.
func NewService(videos metadataStore, users userLookup, objects objectStore, signer presigned.Presigner, mailer notifier, opts Options, log *zap.Logger) *Service {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxFileSize
	}
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 24 * time.Hour
	}
	if opts.ReadTTL <= 0 {
		opts.ReadTTL = time.Hour
	}
	if opts.Mode == "" {
		opts.Mode = presigned.ModeDerived
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		videos:  videos,
		users:   users,
		objects: objects,
		signer:  signer,
		mailer:  mailer,
		opts:    opts,
		log:     log,
		nowFunc: time.Now,
	}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.opts.MaxBytes
}

// Upload stores the object, signs a link, records the video and sends an
// optional notification, in that order. It is not transactional: an object
// whose record cannot be written is logged and counted as orphaned.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Uploaded, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return Uploaded{}, ErrMissingUserID
	}
	if in.Body == nil {
		return Uploaded{}, ErrMissingFile
	}
	contentType, ok := videoContentType(in.ContentType)
	if !ok {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return Uploaded{}, ErrNotVideo
	}
	if in.Size > s.opts.MaxBytes {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return Uploaded{}, ErrFileTooLarge
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return Uploaded{}, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return Uploaded{}, ErrUnknownUser
	}

	// Storage and bookkeeping finish even if the client goes away mid-request.
	ctx = context.WithoutCancel(ctx)

	now := s.nowFunc()
	filename := sanitizeFilename(in.Filename)
	key := ObjectKey(userID, filename, contentType, now)
	meta := map[string]string{
		"user-id":       url.QueryEscape(userID),
		"original-name": url.QueryEscape(filename),
		"upload-date":   now.UTC().Format(time.RFC3339),
	}

	info, err := s.objects.PutObject(ctx, key, in.Body, in.Size, contentType, meta)
	if err != nil {
		metrics.Uploads.WithLabelValues("storage_error").Inc()
		return Uploaded{}, err
	}
	size := info.Size
	if size <= 0 {
		size = in.Size
	}
	metrics.UploadedBytes.Add(float64(size))

	link, err := s.signer.PresignWithMode(ctx, s.opts.Mode, s.objects.Bucket(), key, s.opts.UploadTTL)
	if err != nil {
		s.orphaned(key, userID, "presign_error", err)
		return Uploaded{}, fmt.Errorf("presign uploaded video: %w", err)
	}

	stored, err := s.videos.Create(ctx, Video{
		ID:                 uuid.New(),
		OwnerUserID:        userID,
		StorageKey:         key,
		Filename:           filename,
		SizeBytes:          size,
		MimeType:           contentType,
		CachedURL:          &link.URL,
		CachedURLExpiresAt: &link.ExpiresAt,
	})
	if err != nil {
		s.orphaned(key, userID, "db_error", err)
		return Uploaded{}, err
	}
	metrics.Uploads.WithLabelValues("ok").Inc()

	if email := strings.TrimSpace(in.UserEmail); email != "" && s.mailer != nil {
		if _, err := s.mailer.StudyReady(ctx, notify.Notice{To: email, Title: filename, VideoURL: link.URL}); err != nil {
			s.log.Warn("upload notification failed",
				zap.String("video_id", stored.ID.String()),
				zap.String("to", email),
				zap.Error(err))
		}
	}

	return Uploaded{
		VideoID:   stored.ID,
		Filename:  stored.Filename,
		Size:      stored.SizeBytes,
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
	}, nil
}

func (s *Service) orphaned(key, userID, result string, cause error) {
	metrics.Uploads.WithLabelValues(result).Inc()
	metrics.OrphanedObjects.Inc()
	s.log.Error("stored object has no video record",
		zap.String("bucket", s.objects.Bucket()),
		zap.String("key", key),
		zap.String("user_id", userID),
		zap.Error(cause))
}

// URL returns a read link for one of the user's videos. An empty mode uses the
// configured strategy, and only then may the cached link be reused.
func (s *Service) URL(ctx context.Context, userID string, videoID uuid.UUID, mode presigned.Mode) (Link, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Link{}, ErrMissingUserID
	}

	v, err := s.videos.GetForOwner(ctx, userID, videoID)
	if err != nil {
		return Link{}, err
	}

	if mode == "" {
		mode = s.opts.Mode
	}
	useCache := mode == s.opts.Mode

	if useCache && s.reusable(v) {
		return Link{URL: *v.CachedURL, Filename: v.Filename, Size: v.SizeBytes, ExpiresAt: *v.CachedURLExpiresAt}, nil
	}

	link, err := s.signer.PresignWithMode(ctx, mode, s.objects.Bucket(), v.StorageKey, s.opts.ReadTTL)
	if err != nil {
		return Link{}, err
	}

	if useCache {
		if err := s.videos.UpdateCachedURL(ctx, v.ID, link.URL, link.ExpiresAt); err != nil {
			s.log.Warn("refresh cached url failed", zap.String("video_id", v.ID.String()), zap.Error(err))
		}
	}

	return Link{URL: link.URL, Filename: v.Filename, Size: v.SizeBytes, ExpiresAt: link.ExpiresAt}, nil
}

// reusable reports whether the cached link was issued for reads and still has
// at least half the read TTL left. Longer-lived links, such as the one returned
// at upload, are never handed out for reads.
func (s *Service) reusable(v Video) bool {
	if v.CachedURL == nil || v.CachedURLExpiresAt == nil {
		return false
	}
	remaining := v.CachedURLExpiresAt.Sub(s.nowFunc())
	return remaining >= s.opts.ReadTTL/2 && remaining <= s.opts.ReadTTL
}

// List returns the user's videos, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.videos.ListByOwner(ctx, userID)
}

// Usage returns total bytes and count of the user's videos.
func (s *Service) Usage(ctx context.Context, userID string) (Usage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Usage{}, ErrMissingUserID
	}
	return s.videos.Usage(ctx, userID)
}

// ObjectKey builds users/{userId}/videos/{unixMillis}.{ext}. The human-readable
// filename never appears in the key.
func ObjectKey(userID, filename, contentType string, at time.Time) string {
	return fmt.Sprintf("users/%s/videos/%d.%s", userID, at.UnixMilli(), extension(filename, contentType))
}

func extension(filename, contentType string) string {
	raw := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if ext := b.String(); ext != "" && len(ext) <= maxExtensionLength {
		return ext
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := mimeExtensions[mediaType]; ok {
			return ext
		}
	}
	return "bin"
}

func videoContentType(raw string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil || !strings.HasPrefix(mediaType, "video/") {
		return "", false
	}
	return mediaType, true
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
