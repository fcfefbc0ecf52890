package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Blob store drivers.
const (
	BlobDriverLocal = "local"
	BlobDriverMinio = "minio"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Blob     BlobConfig
	Export   ExportConfig
	Gallery  GalleryConfig
	Files    FilesConfig
	Purge    PurgeConfig
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

// BlobConfig selects and configures the content-addressed file store.
type BlobConfig struct {
	Driver      string
	LocalDir    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
}

// ExportConfig tunes the image export pipeline.
type ExportConfig struct {
	TempDir                string
	Workers                int
	Prefetch               int
	Timeout                time.Duration
	CompressionLevel       int
	DisambiguateCollisions bool
	Manifest               string
	StudentReturnURL       string
	CourseReturnURL        string
}

// GalleryConfig controls caching of submission gallery listings.
type GalleryConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// FilesConfig configures signed file content links.
type FilesConfig struct {
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// PurgeConfig sizes the background blob purge queue.
type PurgeConfig struct {
	Workers int
	Retries int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.Blob = BlobConfig{
		Driver:      strings.ToLower(v.GetString("BLOB_DRIVER")),
		LocalDir:    v.GetString("BLOB_LOCAL_DIR"),
		S3Endpoint:  v.GetString("BLOB_S3_ENDPOINT"),
		S3AccessKey: v.GetString("BLOB_S3_ACCESS_KEY"),
		S3SecretKey: v.GetString("BLOB_S3_SECRET_KEY"),
		S3Bucket:    v.GetString("BLOB_S3_BUCKET"),
		S3Region:    v.GetString("BLOB_S3_REGION"),
		S3UseSSL:    v.GetBool("BLOB_S3_USE_SSL"),
	}

	workers := v.GetInt("EXPORT_WORKERS")
	if workers <= 0 {
		workers = 4
	}
	prefetch := v.GetInt("EXPORT_PREFETCH")
	if prefetch <= 0 {
		prefetch = workers
	}
	cfg.Export = ExportConfig{
		TempDir:                v.GetString("EXPORT_TEMP_DIR"),
		Workers:                workers,
		Prefetch:               prefetch,
		Timeout:                parseDuration(v.GetString("EXPORT_TIMEOUT"), 10*time.Minute),
		CompressionLevel:       v.GetInt("EXPORT_COMPRESSION_LEVEL"),
		DisambiguateCollisions: v.GetBool("EXPORT_DISAMBIGUATE_COLLISIONS"),
		Manifest:               strings.ToLower(strings.TrimSpace(v.GetString("EXPORT_MANIFEST"))),
		StudentReturnURL:       v.GetString("EXPORT_STUDENT_RETURN_URL"),
		CourseReturnURL:        v.GetString("EXPORT_COURSE_RETURN_URL"),
	}

	cfg.Gallery = GalleryConfig{
		CacheEnabled: v.GetBool("ENABLE_GALLERY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("GALLERY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Files = FilesConfig{
		SignedURLSecret: v.GetString("FILES_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("FILES_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Purge = PurgeConfig{
		Workers: v.GetInt("PURGE_WORKERS"),
		Retries: v.GetInt("PURGE_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "moodle")
	v.SetDefault("DB_PASSWORD", "moodle")
	v.SetDefault("DB_NAME", "moodle")
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

	v.SetDefault("BLOB_DRIVER", BlobDriverLocal)
	v.SetDefault("BLOB_LOCAL_DIR", "./filedir")
	v.SetDefault("BLOB_S3_ENDPOINT", "localhost:9000")
	v.SetDefault("BLOB_S3_ACCESS_KEY", "")
	v.SetDefault("BLOB_S3_SECRET_KEY", "")
	v.SetDefault("BLOB_S3_BUCKET", "moodle-filedir")
	v.SetDefault("BLOB_S3_REGION", "us-east-1")
	v.SetDefault("BLOB_S3_USE_SSL", false)

	v.SetDefault("EXPORT_TEMP_DIR", "")
	v.SetDefault("EXPORT_WORKERS", 4)
	v.SetDefault("EXPORT_PREFETCH", 4)
	v.SetDefault("EXPORT_TIMEOUT", "10m")
	v.SetDefault("EXPORT_COMPRESSION_LEVEL", 6)
	v.SetDefault("EXPORT_DISAMBIGUATE_COLLISIONS", false)
	v.SetDefault("EXPORT_MANIFEST", "")
	v.SetDefault("EXPORT_STUDENT_RETURN_URL", "/grade/report/overview/studentgradeprogressadmin.php")
	v.SetDefault("EXPORT_COURSE_RETURN_URL", "/mod/assign/view.php")

	v.SetDefault("ENABLE_GALLERY_CACHE", false)
	v.SetDefault("GALLERY_CACHE_TTL", "5m")

	v.SetDefault("FILES_SIGNED_URL_SECRET", "dev_files_secret")
	v.SetDefault("FILES_SIGNED_URL_TTL", "30m")

	v.SetDefault("PURGE_WORKERS", 1)
	v.SetDefault("PURGE_RETRIES", 3)
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
