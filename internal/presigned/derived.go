package presigned

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// presignDerived asks the SDK for a path-style link (endpoint/bucket/key) and
// rewrites it to endpoint/key, which is where the vendor serves the object.
func (s *Service) presignDerived(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.sdk.PresignedGetObject(ctx, bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign path-style url: %w", err)
	}
	return StripBucketSegment(u, bucket).String(), nil
}

// StripBucketSegment returns a copy of u without its first path segment when
// that segment, unescaped, equals bucket. Nothing else in the URL changes; in
// particular the query string carrying the signature is left byte-for-byte.
func StripBucketSegment(u *url.URL, bucket string) *url.URL {
	out := *u

	escaped := strings.TrimPrefix(u.EscapedPath(), "/")
	first, rest, found := strings.Cut(escaped, "/")
	if !found || rest == "" {
		return &out
	}

	segment, err := url.PathUnescape(first)
	if err != nil || segment != bucket {
		return &out
	}

	rawPath := "/" + rest
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return &out
	}
	out.Path = path
	out.RawPath = rawPath
	return &out
}
