package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/dmaldonado1992/MedVerify/internal/notify"
	"github.com/dmaldonado1992/MedVerify/internal/presigned"
)

type memoryVideos struct {
	mu        sync.Mutex
	records   map[uuid.UUID]Video
	createErr error
	updates   int
}

func newMemoryVideos() *memoryVideos {
	return &memoryVideos{records: map[uuid.UUID]Video{}}
}

func (m *memoryVideos) Create(_ context.Context, v Video) (Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Video{}, m.createErr
	}
	for _, existing := range m.records {
		if existing.StorageKey == v.StorageKey {
			return Video{}, ErrDuplicateKey
		}
	}
	v.CreatedAt = time.Now()
	m.records[v.ID] = v
	return v, nil
}

func (m *memoryVideos) ListByOwner(_ context.Context, userID string) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Summary
	for _, v := range m.records {
		if v.OwnerUserID == userID {
			out = append(out, Summary{ID: v.ID, Filename: v.Filename, Size: v.SizeBytes, MimeType: v.MimeType, CreatedAt: v.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryVideos) GetForOwner(_ context.Context, userID string, id uuid.UUID) (Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[id]
	if !ok || v.OwnerUserID != userID {
		return Video{}, ErrVideoNotFound
	}
	return v, nil
}

func (m *memoryVideos) UpdateCachedURL(_ context.Context, id uuid.UUID, url string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[id]
	if !ok {
		return ErrVideoNotFound
	}
	v.CachedURL = &url
	v.CachedURLExpiresAt = &expiresAt
	m.records[id] = v
	m.updates++
	return nil
}

func (m *memoryVideos) Usage(_ context.Context, userID string) (Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var u Usage
	for _, v := range m.records {
		if v.OwnerUserID == userID {
			u.TotalBytes += v.SizeBytes
			u.VideoCount++
		}
	}
	return u, nil
}

func (m *memoryVideos) only() Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.records {
		return v
	}
	return Video{}
}

type putCall struct {
	key         string
	contentType string
	metadata    map[string]string
	body        []byte
}

type fakeObjects struct {
	bucket string
	err    error
	puts   []putCall
}

func (f *fakeObjects) Bucket() string { return f.bucket }

func (f *fakeObjects) PutObject(_ context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.puts = append(f.puts, putCall{key: key, contentType: contentType, metadata: metadata, body: body})
	return minio.UploadInfo{Bucket: f.bucket, Key: key, Size: int64(len(body))}, nil
}

type userSet map[string]bool

func (u userSet) Exists(_ context.Context, userID string) (bool, error) {
	return u[userID], nil
}

type fakeSigner struct {
	now   time.Time
	err   error
	calls int
	modes []presigned.Mode
}

func (f *fakeSigner) PresignWithMode(_ context.Context, mode presigned.Mode, bucket, key string, ttl time.Duration) (presigned.Link, error) {
	f.calls++
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return presigned.Link{}, f.err
	}
	return presigned.Link{
		URL:       fmt.Sprintf("https://signed.example/%s/%s?n=%d", bucket, key, f.calls),
		ExpiresAt: f.now.Add(ttl),
		Mode:      mode,
	}, nil
}

type fakeMailer struct {
	err     error
	notices []notify.Notice
}

func (f *fakeMailer) StudyReady(_ context.Context, n notify.Notice) (notify.Result, error) {
	f.notices = append(f.notices, n)
	if f.err != nil {
		return notify.Result{}, f.err
	}
	return notify.Result{Provider: "fake", MessageID: "m-1"}, nil
}

var errBoom = errors.New("boom")

func videoUpload(userID, filename, contentType string, payload []byte) UploadInput {
	return UploadInput{
		UserID:      userID,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(payload)),
		Body:        bytes.NewReader(payload),
	}
}
