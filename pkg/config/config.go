package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Semester conventions accepted by RECAP_SEMESTER_CONVENTION.
const (
	SemesterConventionCalendar = "calendar"
	SemesterConventionAcademic = "academic"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Recap     RecapConfig
	Artifacts ArtifactsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the verification side of access tokens; issuance lives in the identity service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RecapConfig tunes recap aggregation and caching.
type RecapConfig struct {
	CacheEnabled       bool
	CacheTTL           time.Duration
	SemesterConvention string
}

// ArtifactsConfig configures asynchronous document generation.
type ArtifactsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	QueueSize         int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Recap = RecapConfig{
		CacheEnabled:       v.GetBool("RECAP_CACHE_ENABLED"),
		CacheTTL:           parseDuration(v.GetString("RECAP_CACHE_TTL"), 5*time.Minute),
		SemesterConvention: normaliseConvention(v.GetString("RECAP_SEMESTER_CONVENTION")),
	}

	cfg.Artifacts = ArtifactsConfig{
		StorageDir:        v.GetString("ARTIFACTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("ARTIFACTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("ARTIFACTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("ARTIFACTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("ARTIFACTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("ARTIFACTS_WORKER_RETRIES"),
		QueueSize:         v.GetInt("ARTIFACTS_QUEUE_SIZE"),
	}

	return cfg, nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "Asia/Jakarta")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tahfidz")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RECAP_CACHE_ENABLED", false)
	v.SetDefault("RECAP_CACHE_TTL", "5m")
	v.SetDefault("RECAP_SEMESTER_CONVENTION", SemesterConventionCalendar)

	v.SetDefault("ARTIFACTS_STORAGE_DIR", "./artifacts")
	v.SetDefault("ARTIFACTS_SIGNED_URL_SECRET", "dev_artifacts_secret")
	v.SetDefault("ARTIFACTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("ARTIFACTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("ARTIFACTS_WORKER_CONCURRENCY", 2)
	v.SetDefault("ARTIFACTS_WORKER_RETRIES", 3)
	v.SetDefault("ARTIFACTS_QUEUE_SIZE", 64)
}

func normaliseConvention(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SemesterConventionAcademic:
		return SemesterConventionAcademic
	default:
		return SemesterConventionCalendar
	}
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
