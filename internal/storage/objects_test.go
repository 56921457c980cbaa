package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaldonado1992/MedVerify/internal/config"
)

func TestErrorFormatsOpAndKey(t *testing.T) {
	cause := errors.New("access denied")
	err := &Error{Op: "put", Key: "users/u1/videos/1.mp4", Err: cause}

	assert.Equal(t, `storage put "users/u1/videos/1.mp4": access denied`, err.Error())
	assert.ErrorIs(t, err, cause)

	listErr := &Error{Op: "list-buckets", Err: cause}
	assert.Equal(t, "storage list-buckets: access denied", listErr.Error())
}

func TestNewMinIOClientDoesNotDial(t *testing.T) {
	client, err := NewMinIOClient(config.StorageConfig{
		Endpoint:        "s3.us-east-1.wasabisys.com",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		UseSSL:          true,
	})
	assert.NoError(t, err)

	objects := NewObjectClient(client, "medverify")
	assert.Equal(t, "medverify", objects.Bucket())
	assert.Equal(t, "https", client.EndpointURL().Scheme)
}

func TestIsNoSuchKey(t *testing.T) {
	missing := &Error{Op: "head", Key: "health/ping", Err: minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}}
	assert.True(t, isNoSuchKey(missing))

	denied := &Error{Op: "head", Key: "health/ping", Err: minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}}
	assert.False(t, isNoSuchKey(denied))
	assert.False(t, isNoSuchKey(errors.New("dial tcp: connection refused")))
}

func TestPutObjectIsAttemptedOnce(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	endpoint, err := url.Parse(server.URL)
	require.NoError(t, err)

	client, err := NewMinIOClient(config.StorageConfig{
		Endpoint:        endpoint.Host,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	body := bytes.NewReader([]byte("frame data"))
	_, err = NewObjectClient(client, "medverify").PutObject(context.Background(), "users/u1/videos/1.mp4", body, body.Size(), "video/mp4", nil)

	var storageErr *Error
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "put", storageErr.Op)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
