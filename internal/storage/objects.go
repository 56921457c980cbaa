package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// Error is returned for every failed object storage call. Calls are attempted
// once (see NewMinIOClient); retrying is left to the caller.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const pingKey = "health/ping"

// ObjectClient scopes a minio client to the application bucket.
type ObjectClient struct {
	client *minio.Client
	bucket string
}

// NewObjectClient constructs an ObjectClient for bucket.
func NewObjectClient(client *minio.Client, bucket string) *ObjectClient {
	return &ObjectClient{client: client, bucket: bucket}
}

// Bucket returns the bucket objects are written to.
func (o *ObjectClient) Bucket() string {
	return o.bucket
}

// PutObject writes reader under key, overwriting any existing object.
func (o *ObjectClient) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (minio.UploadInfo, error) {
	info, err := o.client.PutObject(ctx, o.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return minio.UploadInfo{}, &Error{Op: "put", Key: key, Err: err}
	}
	return info, nil
}

// HeadObject returns stored object information without reading its body.
func (o *ObjectClient) HeadObject(ctx context.Context, key string) (minio.ObjectInfo, error) {
	info, err := o.client.StatObject(ctx, o.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return minio.ObjectInfo{}, &Error{Op: "head", Key: key, Err: err}
	}
	return info, nil
}

// ListBuckets lists the buckets visible to the configured credentials. It is
// used as a connectivity check.
func (o *ObjectClient) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	buckets, err := o.client.ListBuckets(ctx)
	if err != nil {
		return nil, &Error{Op: "list-buckets", Err: err}
	}
	return buckets, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
// Keys scoped to one bucket often cannot list buckets, so a HEAD inside the
// bucket answering NoSuchKey also counts as reachable.
func (o *ObjectClient) Ping(ctx context.Context) error {
	if _, err := o.ListBuckets(ctx); err == nil {
		return nil
	}
	_, err := o.HeadObject(ctx, pingKey)
	if err == nil || isNoSuchKey(err) {
		return nil
	}
	return err
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	return errors.As(err, &resp) && resp.Code == "NoSuchKey"
}
