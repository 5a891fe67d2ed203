package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Mongo     MongoConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	R2        R2Config
	Upload    UploadConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	// CookieSecure marks auth cookies Secure; disable only for local http.
	CookieSecure bool     `envconfig:"COOKIE_SECURE" default:"true"`
	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"*"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only when every request arrives through a proxy that sets them.
	TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

type MongoConfig struct {
	URI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database string `envconfig:"MONGODB_DATABASE" default:"vidtube"`
}

// DBConfig is the Postgres database holding the refresh-token ledger.
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"vidtube"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"require"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`
}

type AuthConfig struct {
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenMaxAge  int    `envconfig:"ACCESS_TOKEN_MAX_AGE" default:"900"`
	RefreshTokenMaxAge int    `envconfig:"REFRESH_TOKEN_MAX_AGE" default:"2592000"`
}

type R2Config struct {
	AccountID       string `envconfig:"R2_ACCOUNT_ID"`
	AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"R2_SECRET_ACCESS_KEY"`
	BucketName      string `envconfig:"R2_BUCKET_NAME"`
	PublicURL       string `envconfig:"R2_PUBLIC_URL"`
}

type UploadConfig struct {
	MaxImageBytes int64 `envconfig:"UPLOAD_MAX_IMAGE_BYTES" default:"5242880"`
	MaxVideoBytes int64 `envconfig:"UPLOAD_MAX_VIDEO_BYTES" default:"524288000"`
	// VideoPartSize is the multipart chunk size for video uploads.
	VideoPartSize int64 `envconfig:"UPLOAD_VIDEO_PART_SIZE" default:"10485760"`
}

// RateLimitConfig throttles mutating requests per client.
type RateLimitConfig struct {
	Enabled bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Events  int           `envconfig:"RATE_LIMIT_EVENTS" default:"30"`
	Window  time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	Burst   int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
}

type WorkerConfig struct {
	Count           int           `envconfig:"WORKER_COUNT" default:"2"`
	BatchSize       int64         `envconfig:"WORKER_BATCH_SIZE" default:"10"`
	BlockTimeout    time.Duration `envconfig:"WORKER_BLOCK_TIMEOUT" default:"5s"`
	JanitorInterval time.Duration `envconfig:"SESSION_JANITOR_INTERVAL" default:"1h"`
	// ViewWindow is how long a repeated view by the same viewer is ignored.
	ViewWindow time.Duration `envconfig:"VIEW_DEDUP_WINDOW" default:"1h"`
}

// DSN returns the lib/pq connection string of the refresh-token database.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// R2Configured reports whether every media storage setting is present.
func (c *R2Config) R2Configured() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" &&
		c.BucketName != "" && c.PublicURL != ""
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	var cfg Config
	sections := []struct {
		name   string
		target any
	}{
		{"server", &cfg.Server},
		{"log", &cfg.Log},
		{"mongo", &cfg.Mongo},
		{"db", &cfg.DB},
		{"redis", &cfg.Redis},
		{"auth", &cfg.Auth},
		{"r2", &cfg.R2},
		{"upload", &cfg.Upload},
		{"rate limit", &cfg.RateLimit},
		{"worker", &cfg.Worker},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}
	return &cfg, nil
}

// Validate checks constraints envconfig tags cannot express.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.Auth.AccessTokenMaxAge <= 0 || c.Auth.RefreshTokenMaxAge <= 0 {
		return fmt.Errorf("token max ages must be positive")
	}
	if c.Auth.RefreshTokenMaxAge < c.Auth.AccessTokenMaxAge {
		return fmt.Errorf("REFRESH_TOKEN_MAX_AGE must not be shorter than ACCESS_TOKEN_MAX_AGE")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Upload.MaxImageBytes <= 0 || c.Upload.MaxVideoBytes <= 0 {
		return fmt.Errorf("upload size limits must be positive")
	}
	if c.Upload.VideoPartSize < 5*1024*1024 {
		return fmt.Errorf("UPLOAD_VIDEO_PART_SIZE must be at least 5MiB")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Events <= 0 || c.RateLimit.Window <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit events, window and burst must be positive")
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}
