package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageProviderS3  = "s3"
	StorageProviderGCS = "gcs"
)

// App is the process configuration, read once from the environment at boot.
type App struct {
	Port     string
	LogLevel string
	// TrustedProxies lists the IPs/CIDRs whose X-Forwarded-For is honoured.
	// Empty means the peer address is always the client.
	TrustedProxies []string

	Supabase SupabaseConfig
	Share    ShareConfig
	Storage  StorageConfig

	PostgresURI string
	RedisAddr   string
	MongoURI    string
	MongoDB     string
}

type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	Timeout        time.Duration
}

type ShareConfig struct {
	ResolveRPC      string
	FilesRPC        string
	TokenParam      string
	MemberRPC       string
	RateLimitPerMin int
	AuditTTL        time.Duration
}

type StorageConfig struct {
	Provider string
	Bucket   string

	// S3 and S3-compatible endpoints (Supabase Storage, MinIO).
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool

	// GCS service account JSON, inline or from a file.
	GCSCredentialsJSON string
	GCSCredentialsFile string
}

// Load reads the environment into an App. Call godotenv.Load before it to
// pick up a local .env file.
func Load() (*App, error) {
	cfg := &App{
		Port:     envOr("PORT", "8080"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		TrustedProxies: envList("TRUSTED_PROXIES"),
		Supabase: SupabaseConfig{
			URL:            strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			ServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
			JWTSecret:      os.Getenv("SUPABASE_JWT_SECRET"),
			JWTIssuer:      os.Getenv("SUPABASE_JWT_ISSUER"),
			JWTAudience:    os.Getenv("SUPABASE_JWT_AUDIENCE"),
		},
		Share: ShareConfig{
			ResolveRPC: envOr("SHARE_RESOLVE_RPC", "get_project_by_share_token"),
			FilesRPC:   envOr("SHARE_FILES_RPC", "get_files_by_share_token"),
			TokenParam: envOr("SHARE_RPC_TOKEN_PARAM", "share_token"),
			MemberRPC:  envOr("PROJECT_MEMBER_RPC", "is_project_member"),
		},
		Storage: StorageConfig{
			Provider:           strings.ToLower(envOr("STORAGE_PROVIDER", StorageProviderS3)),
			Bucket:             os.Getenv("STORAGE_BUCKET"),
			Endpoint:           os.Getenv("S3_ENDPOINT"),
			Region:             envOr("S3_REGION", "us-east-1"),
			AccessKey:          os.Getenv("S3_ACCESS_KEY_ID"),
			SecretKey:          os.Getenv("S3_SECRET_ACCESS_KEY"),
			GCSCredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
			GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		},
		PostgresURI: os.Getenv("POSTGRES_URI"),
		RedisAddr:   firstNonEmpty(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_URI"), os.Getenv("REDIS_URL")),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     envOr("MONGO_DB", "cinedesk"),
	}

	var errs []error
	var err error

	if cfg.Supabase.Timeout, err = envDuration("SUPABASE_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.Share.AuditTTL, err = envDuration("SHARE_AUDIT_TTL", 90*24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.Share.RateLimitPerMin, err = envInt("SHARE_RATE_LIMIT_PER_MIN", 60); err != nil {
		errs = append(errs, err)
	}
	if cfg.Storage.ForcePathStyle, err = envBool("S3_FORCE_PATH_STYLE", cfg.Storage.Endpoint != ""); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate reports every missing required setting at once. Storage
// credentials are validated separately by the storage gateway so a missing
// key surfaces as a configuration error from the component that needs it.
func (c *App) Validate() error {
	var errs []error
	if c.Supabase.URL == "" && c.PostgresURI == "" {
		errs = append(errs, errors.New("SUPABASE_URL (or POSTGRES_URI) environment variable is not set"))
	}
	if c.Supabase.URL != "" && c.PostgresURI == "" && c.Supabase.ServiceRoleKey == "" {
		errs = append(errs, errors.New("SUPABASE_SERVICE_ROLE_KEY environment variable is not set"))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("STORAGE_BUCKET environment variable is not set"))
	}
	switch c.Storage.Provider {
	case StorageProviderS3, StorageProviderGCS:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_PROVIDER %q is not supported (use s3 or gcs)", c.Storage.Provider))
	}
	if c.Share.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("SHARE_RATE_LIMIT_PER_MIN must be >= 0"))
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p))
			}
		}
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envList splits a comma separated value, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
