package presigned

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7/pkg/s3utils"
	"github.com/minio/minio-go/v7/pkg/signer"
)

// presignNative signs bucket.endpoint/key with SigV4 query authentication. The
// request goes straight to the signer, so only host is signed and no checksum
// parameters are added.
func (s *Service) presignNative(bucket, key string, ttl time.Duration) (string, error) {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	encodedPath := s3utils.EncodePath("/" + key)
	target := &url.URL{
		Scheme:  scheme,
		Host:    bucket + "." + s.endpoint,
		Path:    "/" + key,
		RawPath: encodedPath,
	}

	req, err := http.NewRequest(http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build virtual-host request: %w", err)
	}

	signed := signer.PreSignV4(*req, s.access, s.secret, "", s.region, int64(ttl/time.Second))

	// Emit the path exactly as it was canonicalized.
	signed.URL.Path = "/" + key
	signed.URL.RawPath = encodedPath
	return signed.URL.String(), nil
}
