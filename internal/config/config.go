package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the MedVerify API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Upload   UploadConfig
	Auth     AuthConfig
	Email    EmailConfig
	CORS     CORSConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details. URL, when set, wins
// over the individual fields.
type PostgresConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Migrate  bool

	MaxConns        int32
	MinConns        int32
	ConnectTimeout  time.Duration
	MaxConnIdleTime time.Duration
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(p.User), url.QueryEscape(p.Password), p.Host, p.Port, p.Database, p.SSLMode)
}

// StorageConfig carries S3-compatible endpoint, bucket and signing settings.
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	EnsureBucket    bool
	PresignMode     string
	UploadURLTTL    time.Duration
	ReadURLTTL      time.Duration
}

// RedisConfig configures the optional presigned link cache. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// UploadConfig limits accepted uploads.
type UploadConfig struct {
	MaxBytes int64
}

// AuthConfig groups login settings.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenTTL    time.Duration
	BcryptCost        int
	LoginRate         float64
	LoginBurst        int
}

// EmailConfig selects and configures notification providers.
type EmailConfig struct {
	Provider      string
	From          string
	FromName      string
	LoginURL      string
	ResendAPIKey  string
	BrevoAPIKey   string
	BrevoBaseURL  string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying
// defaults, and validates the settings the process cannot run without.
func Load() (Config, error) {
	endpoint, useSSL := splitEndpoint(getString("STORAGE_ENDPOINT", ""), getBool("STORAGE_USE_SSL", true))

	cfg := Config{
		Server: ServerConfig{
			Host:         getString("HOST", "0.0.0.0"),
			Port:         getInt("PORT", 3000),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Minute),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			URL:      getString("DATABASE_URL", ""),
			Host:     getString("DB_HOST", "localhost"),
			Port:     getInt("DB_PORT", 5432),
			User:     getString("DB_USER", "medverify"),
			Password: getString("DB_PASSWORD", "change-me"),
			Database: getString("DB_NAME", "medverify"),
			SSLMode:  strings.ToLower(getString("DB_SSL_MODE", "require")),
			Migrate:  getBool("DB_MIGRATE", true),

			MaxConns:        int32(getInt("DB_MAX_CONNS", 10)),
			MinConns:        int32(getInt("DB_MIN_CONNS", 0)),
			ConnectTimeout:  getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
			MaxConnIdleTime: getDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
		},
		Storage: StorageConfig{
			Endpoint:        endpoint,
			AccessKeyID:     getString("STORAGE_ACCESS_KEY", ""),
			SecretAccessKey: getString("STORAGE_SECRET_KEY", ""),
			Bucket:          getString("STORAGE_BUCKET", ""),
			Region:          getString("STORAGE_REGION", ""),
			UseSSL:          useSSL,
			EnsureBucket:    getBool("STORAGE_ENSURE_BUCKET", false),
			PresignMode:     strings.ToLower(getString("STORAGE_PRESIGN_MODE", "derived")),
			UploadURLTTL:    getDuration("STORAGE_UPLOAD_URL_TTL", 24*time.Hour),
			ReadURLTTL:      getDuration("STORAGE_READ_URL_TTL", time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", ""),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Upload: UploadConfig{
			MaxBytes: getInt64("UPLOAD_MAX_BYTES", 2<<30),
		},
		Auth:  loadAuthConfig(),
		Email: loadEmailConfig(),
		CORS: CORSConfig{
			AllowedOrigins: getList("FRONTEND_URL", []string{"*"}),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ErrMissingStorageConfig reports absent object storage settings.
var ErrMissingStorageConfig = errors.New("missing storage configuration")

// Validate checks the settings required to sign and store objects.
func (c Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"STORAGE_ENDPOINT", c.Storage.Endpoint},
		{"STORAGE_REGION", c.Storage.Region},
		{"STORAGE_ACCESS_KEY", c.Storage.AccessKeyID},
		{"STORAGE_SECRET_KEY", c.Storage.SecretAccessKey},
		{"STORAGE_BUCKET", c.Storage.Bucket},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingStorageConfig, strings.Join(missing, ", "))
	}

	if c.Storage.UploadURLTTL <= 0 || c.Storage.ReadURLTTL <= 0 {
		return errors.New("presigned url ttl must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// splitEndpoint accepts either a bare host[:port] or a URL and returns the host
// part plus the TLS setting implied by the scheme.
func splitEndpoint(raw string, useSSL bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", useSSL
	}
	if !strings.Contains(raw, "://") {
		return strings.TrimRight(raw, "/"), useSSL
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return strings.TrimRight(raw, "/"), useSSL
	}
	return parsed.Host, parsed.Scheme == "https"
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(getString(key, ""))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func loadAuthConfig() AuthConfig {
	cost := getInt("AUTH_BCRYPT_COST", 10)
	if cost < 4 || cost > 31 {
		cost = 10
	}

	return AuthConfig{
		AccessTokenSecret: getString("JWT_SECRET", "change-me-to-a-32-byte-secret"),
		AccessTokenTTL:    getDuration("AUTH_ACCESS_TOKEN_TTL", 12*time.Hour),
		BcryptCost:        cost,
		LoginRate:         getFloat("AUTH_LOGIN_RATE", 1),
		LoginBurst:        getInt("AUTH_LOGIN_BURST", 5),
	}
}

func loadEmailConfig() EmailConfig {
	smtpPassword := getString("GMAIL_APP_PASSWORD", "")
	if smtpPassword == "" {
		smtpPassword = getString("GMAIL_PASS", "")
	}

	return EmailConfig{
		Provider:      strings.ToLower(getString("EMAIL_PROVIDER", "resend")),
		From:          getString("EMAIL_FROM", ""),
		FromName:      getString("EMAIL_FROM_NAME", "MedVerify"),
		LoginURL:      getString("APP_LOGIN_URL", "https://medverifyfront.onrender.com/login"),
		ResendAPIKey:  getString("RESEND_API_KEY", ""),
		BrevoAPIKey:   getString("BREVO_API_KEY", ""),
		BrevoBaseURL:  getString("BREVO_BASE_URL", "https://api.brevo.com/v3"),
		SMTPHost:      getString("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getInt("SMTP_PORT", 587),
		SMTPUser:      getString("GMAIL_USER", ""),
		SMTPPassword:  smtpPassword,
	}
}
