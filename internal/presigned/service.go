package presigned

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7/pkg/s3utils"

	"github.com/dmaldonado1992/MedVerify/internal/config"
	"github.com/dmaldonado1992/MedVerify/internal/metrics"
)

// MaxTTL is the longest validity SigV4 query signing accepts.
const MaxTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidTTL is returned for a non-positive or over-long validity.
	ErrInvalidTTL = errors.New("presign ttl must be between 1s and 7 days")
	// ErrInvalidKey is returned for empty keys, leading slashes and empty segments.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrInvalidBucket is returned when the bucket cannot be addressed.
	ErrInvalidBucket = errors.New("invalid bucket name")
	// ErrInvalidMode is returned for an unknown signing strategy.
	ErrInvalidMode = errors.New("unknown presign mode")
	// ErrMissingCredentials is returned when signing settings are incomplete.
	ErrMissingCredentials = errors.New("missing presign credentials")
)

// Mode selects the signing strategy.
type Mode string

const (
	// ModeDerived signs path-style with the SDK, then drops the bucket segment.
	ModeDerived Mode = "derived"
	// ModeNative signs virtual-host style directly with SigV4.
	ModeNative Mode = "native"
)

// ParseMode accepts the configuration spellings of a mode. Empty means derived.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "derived", "clean", "derived/clean":
		return ModeDerived, nil
	case "native":
		return ModeNative, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Link is a time-limited URL for an object.
type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Mode      Mode      `json:"mode"`
}

// Presigner produces links for stored objects.
type Presigner interface {
	PresignWithMode(ctx context.Context, mode Mode, bucket, key string, ttl time.Duration) (Link, error)
}

// pathStyleSigner is the subset of *minio.Client used by the derived strategy.
type pathStyleSigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Service signs GET links for objects. It performs only local cryptography.
type Service struct {
	sdk      pathStyleSigner
	endpoint string
	region   string
	access   string
	secret   string
	useSSL   bool
	mode     Mode
	nowFunc  func() time.Time
}

// NewService validates the signing configuration and returns a Service whose
// default strategy comes from cfg.PresignMode. sdk must be a path-style client.
func NewService(sdk pathStyleSigner, cfg config.StorageConfig) (*Service, error) {
	mode, err := ParseMode(cfg.PresignMode)
	if err != nil {
		return nil, err
	}

	var missing []string
	for name, v := range map[string]string{
		"endpoint":   cfg.Endpoint,
		"region":     cfg.Region,
		"access key": cfg.AccessKeyID,
		"secret key": cfg.SecretAccessKey,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if sdk == nil && mode == ModeDerived {
		return nil, fmt.Errorf("%w: derived mode needs a storage client", ErrMissingCredentials)
	}

	return &Service{
		sdk:      sdk,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		region:   cfg.Region,
		access:   cfg.AccessKeyID,
		secret:   cfg.SecretAccessKey,
		useSSL:   cfg.UseSSL,
		mode:     mode,
		nowFunc:  time.Now,
	}, nil
}

// Mode returns the configured default strategy.
func (s *Service) Mode() Mode {
	return s.mode
}

// Presign signs key with the configured strategy.
func (s *Service) Presign(ctx context.Context, bucket, key string, ttl time.Duration) (Link, error) {
	return s.PresignWithMode(ctx, s.mode, bucket, key, ttl)
}

// PresignWithMode signs key with an explicit strategy. An empty mode uses the
// configured default.
func (s *Service) PresignWithMode(ctx context.Context, mode Mode, bucket, key string, ttl time.Duration) (Link, error) {
	if mode == "" {
		mode = s.mode
	}

	link, err := s.presign(ctx, mode, bucket, key, ttl)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.Presigns.WithLabelValues(string(mode), result).Inc()
	return link, err
}

func (s *Service) presign(ctx context.Context, mode Mode, bucket, key string, ttl time.Duration) (Link, error) {
	if ttl < time.Second || ttl > MaxTTL {
		return Link{}, ErrInvalidTTL
	}
	if err := validateKey(key); err != nil {
		return Link{}, err
	}

	issuedAt := s.nowFunc()

	var (
		signed string
		err    error
	)
	switch mode {
	case ModeDerived:
		if s3utils.CheckValidBucketName(bucket) != nil {
			return Link{}, ErrInvalidBucket
		}
		signed, err = s.presignDerived(ctx, bucket, key, ttl)
	case ModeNative:
		if s3utils.CheckValidBucketNameStrict(bucket) != nil {
			return Link{}, ErrInvalidBucket
		}
		signed, err = s.presignNative(bucket, key, ttl)
	default:
		return Link{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if err != nil {
		return Link{}, err
	}

	return Link{URL: signed, ExpiresAt: issuedAt.Add(ttl), Mode: mode}, nil
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return ErrInvalidKey
		}
	}
	if s3utils.CheckValidObjectName(key) != nil {
		return ErrInvalidKey
	}
	return nil
}
