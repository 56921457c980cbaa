package presigned

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaldonado1992/MedVerify/internal/config"
)

const (
	testEndpoint = "s3.us-east-1.wasabisys.com"
	testBucket   = "medverify"
)

func testStorageConfig(mode string) config.StorageConfig {
	return config.StorageConfig{
		Endpoint:        testEndpoint,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Bucket:          testBucket,
		Region:          "us-east-1",
		UseSSL:          true,
		PresignMode:     mode,
	}
}

func newTestService(t *testing.T, mode string) *Service {
	t.Helper()
	cfg := testStorageConfig(mode)
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       true,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	require.NoError(t, err)

	svc, err := NewService(client, cfg)
	require.NoError(t, err)
	return svc
}

func assertSignedQuery(t *testing.T, q url.Values, ttl time.Duration) {
	t.Helper()
	assert.Equal(t, "AWS4-HMAC-SHA256", q.Get("X-Amz-Algorithm"))
	assert.True(t, strings.HasPrefix(q.Get("X-Amz-Credential"), "AKIDEXAMPLE/"))
	assert.True(t, strings.HasSuffix(q.Get("X-Amz-Credential"), "/us-east-1/s3/aws4_request"))
	assert.Equal(t, "host", q.Get("X-Amz-SignedHeaders"))
	assert.NotEmpty(t, q.Get("X-Amz-Date"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Equal(t, strconv.FormatInt(int64(ttl/time.Second), 10), q.Get("X-Amz-Expires"))

	for name := range q {
		assert.NotContains(t, strings.ToLower(name), "checksum")
	}
}

func TestParseMode(t *testing.T) {
	for _, raw := range []string{"", "derived", "clean", "Derived/Clean"} {
		mode, err := ParseMode(raw)
		require.NoError(t, err)
		assert.Equal(t, ModeDerived, mode)
	}

	mode, err := ParseMode("native")
	require.NoError(t, err)
	assert.Equal(t, ModeNative, mode)

	_, err = ParseMode("virtual")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestNewServiceFailsWithoutCredentials(t *testing.T) {
	cfg := testStorageConfig("native")
	cfg.Region = ""
	cfg.SecretAccessKey = ""

	_, err := NewService(nil, cfg)
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "region")

	_, err = NewService(nil, testStorageConfig("sideways"))
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = NewService(nil, testStorageConfig("derived"))
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestPresignDerivedStripsBucketSegment(t *testing.T) {
	svc := newTestService(t, "derived")
	ttl := 24 * time.Hour

	link, err := svc.Presign(context.Background(), testBucket, "users/u42/videos/1700000000000.mp4", ttl)
	require.NoError(t, err)
	assert.Equal(t, ModeDerived, link.Mode)

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, testEndpoint, u.Host)
	assert.Equal(t, "/users/u42/videos/1700000000000.mp4", u.EscapedPath())
	assertSignedQuery(t, u.Query(), ttl)
}

func TestPresignDerivedKeepsFilenameContainingBucket(t *testing.T) {
	svc := newTestService(t, "derived")

	link, err := svc.Presign(context.Background(), testBucket, "users/u1/videos/medverify.mp4", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/videos/medverify.mp4", u.Path)
}

func TestPresignNativeUsesVirtualHost(t *testing.T) {
	svc := newTestService(t, "native")
	ttl := time.Hour

	link, err := svc.Presign(context.Background(), testBucket, "users/u42/videos/1700000000000.mp4", ttl)
	require.NoError(t, err)
	assert.Equal(t, ModeNative, link.Mode)

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, testBucket+"."+testEndpoint, u.Host)
	assert.Equal(t, "/users/u42/videos/1700000000000.mp4", u.EscapedPath())
	assertSignedQuery(t, u.Query(), ttl)
}

func TestPresignNativeEncodesPathLikeCanonicalRequest(t *testing.T) {
	svc := newTestService(t, "native")

	link, err := svc.Presign(context.Background(), testBucket, "users/dr smith+1/videos/1.mp4", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "/users/dr%20smith%2B1/videos/1.mp4", u.EscapedPath())
	assert.Equal(t, "/users/dr smith+1/videos/1.mp4", u.Path)
}

func TestPresignWithModeOverridesDefault(t *testing.T) {
	svc := newTestService(t, "derived")

	link, err := svc.PresignWithMode(context.Background(), ModeNative, testBucket, "users/u1/videos/1.mp4", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ModeNative, link.Mode)
	assert.Equal(t, ModeDerived, svc.Mode())
}

func TestPresignSameKeyResolvesSameObject(t *testing.T) {
	for _, mode := range []string{"derived", "native"} {
		svc := newTestService(t, mode)
		key := "users/u7/videos/1700000000123.webm"

		first, err := svc.Presign(context.Background(), testBucket, key, time.Hour)
		require.NoError(t, err)
		second, err := svc.Presign(context.Background(), testBucket, key, time.Hour)
		require.NoError(t, err)

		u1, _ := url.Parse(first.URL)
		u2, _ := url.Parse(second.URL)
		assert.Equal(t, u1.Host, u2.Host, mode)
		assert.Equal(t, u1.EscapedPath(), u2.EscapedPath(), mode)
	}
}

func TestPresignExpiryMatchesTTL(t *testing.T) {
	svc := newTestService(t, "derived")
	fixed := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time { return fixed }

	link, err := svc.Presign(context.Background(), testBucket, "users/u1/videos/1.mp4", 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(90*time.Minute), link.ExpiresAt)
}

func TestPresignRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t, "derived")
	ctx := context.Background()

	for _, ttl := range []time.Duration{0, -time.Second, 500 * time.Millisecond, MaxTTL + time.Second} {
		_, err := svc.Presign(ctx, testBucket, "users/u1/videos/1.mp4", ttl)
		assert.ErrorIs(t, err, ErrInvalidTTL, ttl.String())
	}

	for _, key := range []string{"", "/users/u1/videos/1.mp4", "users//videos/1.mp4", "users/u1/videos/", "users/../1.mp4"} {
		_, err := svc.Presign(ctx, testBucket, key, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}

	_, err := svc.PresignWithMode(ctx, ModeNative, "Bad_Bucket", "users/u1/videos/1.mp4", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidBucket)

	_, err = svc.PresignWithMode(ctx, Mode("sideways"), testBucket, "users/u1/videos/1.mp4", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidMode)
}
