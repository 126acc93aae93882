package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
	Extraction ExtractionConfig
	Usage      UsageConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractionConfig holds settings shared by every provider attempt.
type ExtractionConfig struct {
	AttemptTimeout   time.Duration `mapstructure:"attempt_timeout"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes"`
	BreakerEnabled   bool          `mapstructure:"breaker_enabled"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"`
	BreakerOpenFor   time.Duration `mapstructure:"breaker_open_for"`
}

// UsageConfig holds usage counter maintenance settings.
type UsageConfig struct {
	ResetSchedule string `mapstructure:"reset_schedule"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	// AdminToken guards maintenance routes; empty disables them.
	AdminToken   string        `mapstructure:"admin_token"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings for the bucket that stores uploaded documents.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DOCEXTRACT_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCEXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docextract")
	v.SetDefault("db.password", "docextract_secret")
	v.SetDefault("db.name", "docextract_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docextract-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 20)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Extraction defaults
	v.SetDefault("extraction.attempt_timeout", "60s")
	v.SetDefault("extraction.max_response_bytes", 4<<20)
	v.SetDefault("extraction.breaker_enabled", true)
	v.SetDefault("extraction.breaker_failures", 5)
	v.SetDefault("extraction.breaker_open_for", "60s")

	// Usage defaults: midnight on the first of every month
	v.SetDefault("usage.reset_schedule", "0 0 1 * *")

	envBindings := map[string]string{
		"server.port":                   "DOCEXTRACT_SERVER_PORT",
		"server.read_timeout":           "DOCEXTRACT_SERVER_READ_TIMEOUT",
		"server.write_timeout":          "DOCEXTRACT_SERVER_WRITE_TIMEOUT",
		"server.environment":            "DOCEXTRACT_SERVER_ENVIRONMENT",
		"server.admin_token":            "DOCEXTRACT_SERVER_ADMIN_TOKEN",
		"db.host":                       "DOCEXTRACT_DB_HOST",
		"db.port":                       "DOCEXTRACT_DB_PORT",
		"db.user":                       "DOCEXTRACT_DB_USER",
		"db.password":                   "DOCEXTRACT_DB_PASSWORD",
		"db.name":                       "DOCEXTRACT_DB_NAME",
		"db.sslmode":                    "DOCEXTRACT_DB_SSLMODE",
		"db.max_open":                   "DOCEXTRACT_DB_MAX_OPEN",
		"db.max_idle":                   "DOCEXTRACT_DB_MAX_IDLE",
		"s3.region":                     "DOCEXTRACT_S3_REGION",
		"s3.bucket":                     "DOCEXTRACT_S3_BUCKET",
		"s3.endpoint":                   "DOCEXTRACT_S3_ENDPOINT",
		"s3.access_key":                 "DOCEXTRACT_S3_ACCESS_KEY",
		"s3.secret_key":                 "DOCEXTRACT_S3_SECRET_KEY",
		"s3.max_file_size_mb":           "DOCEXTRACT_S3_MAX_FILE_SIZE_MB",
		"log.level":                     "DOCEXTRACT_LOG_LEVEL",
		"log.format":                    "DOCEXTRACT_LOG_FORMAT",
		"cors.allowed_origins":          "DOCEXTRACT_CORS_ALLOWED_ORIGINS",
		"extraction.attempt_timeout":    "DOCEXTRACT_EXTRACTION_ATTEMPT_TIMEOUT",
		"extraction.max_response_bytes": "DOCEXTRACT_EXTRACTION_MAX_RESPONSE_BYTES",
		"extraction.breaker_enabled":    "DOCEXTRACT_EXTRACTION_BREAKER_ENABLED",
		"extraction.breaker_failures":   "DOCEXTRACT_EXTRACTION_BREAKER_FAILURES",
		"extraction.breaker_open_for":   "DOCEXTRACT_EXTRACTION_BREAKER_OPEN_FOR",
		"usage.reset_schedule":          "DOCEXTRACT_USAGE_RESET_SCHEDULE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCEXTRACT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCEXTRACT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		AdminToken:   v.GetString("server.admin_token"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Extraction = ExtractionConfig{
		AttemptTimeout:   v.GetDuration("extraction.attempt_timeout"),
		MaxResponseBytes: v.GetInt64("extraction.max_response_bytes"),
		BreakerEnabled:   v.GetBool("extraction.breaker_enabled"),
		BreakerFailures:  v.GetUint32("extraction.breaker_failures"),
		BreakerOpenFor:   v.GetDuration("extraction.breaker_open_for"),
	}
	cfg.Usage = UsageConfig{
		ResetSchedule: v.GetString("usage.reset_schedule"),
	}

	if cfg.Extraction.AttemptTimeout <= 0 {
		return nil, fmt.Errorf("extraction.attempt_timeout must be positive, got %s", cfg.Extraction.AttemptTimeout)
	}

	return cfg, nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
