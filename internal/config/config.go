package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Host     string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"SERVER_HTTP_PORT" default:"8080"`

	Environment string `envconfig:"SERVER_ENV" default:"development"`

	// Timeouts
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Offline mode: all external collaborators are replaced by their
	// deterministic substitutes. See ResolveMode.
	OfflineMode bool `envconfig:"OFFLINE_MODE" default:"false"`

	// Azure AI Speech (pronunciation assessment)
	AzureSpeechKey string `envconfig:"AZURE_SPEECH_KEY"`
	AzureRegion    string `envconfig:"AZURE_REGION" default:"koreacentral"`
	SpeechLanguage string `envconfig:"SPEECH_LANGUAGE" default:"ko-KR"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Redis (result read cache)
	RedisURL string `envconfig:"REDIS_URL"`

	// Blob storage for recording audio
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"gcs"`
	GCSBucket      string `envconfig:"GCS_BUCKET" default:"recordings"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKeyID  string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET" default:"recordings"`

	// Audio normalization
	FFmpegBin string `envconfig:"FFMPEG_BIN" default:"ffmpeg"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	CORSAllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	CORSAllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Accept,Authorization,Content-Type,X-Request-ID"`
}

// Mode is the resolved operating mode of the service. It is decided once at
// startup and never changes afterwards.
type Mode string

const (
	// ModeConnected uses the real record store, blob store and assessment
	// provider.
	ModeConnected Mode = "connected"
	// ModeOffline substitutes deterministic offline adapters for every
	// external collaborator.
	ModeOffline Mode = "offline"
)

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &cfg, nil
}

// ResolveMode decides the operating mode exactly once at startup.
//
// OFFLINE_MODE=true selects offline operation directly. Otherwise connected
// mode requires the record store and assessment provider to be configured;
// when either is missing the service demotes itself to offline operation and
// names every missing variable, so a misconfigured production deployment
// shows up in the log instead of silently degrading.
func ResolveMode(cfg *Config, log zerolog.Logger) Mode {
	if cfg.OfflineMode {
		log.Info().Msg("OFFLINE_MODE set, running with offline substitutes")
		return ModeOffline
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.AzureSpeechKey == "" {
		missing = append(missing, "AZURE_SPEECH_KEY")
	}

	if len(missing) > 0 {
		log.Warn().
			Strs("missing", missing).
			Msg("Connected mode requires external collaborators; demoting to offline mode")
		return ModeOffline
	}

	return ModeConnected
}

// HTTPAddress returns the HTTP server address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
