package config

import (
	"os"
	"strconv"
	"time"
)

// Database drivers understood by DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Storage drivers understood by StorageConfig.Driver.
const (
	StorageMinIO = "minio"
	StorageLocal = "local"
)

// LogConfig controls the zap logger built at startup.
type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig holds record store connection settings.
// Postgres fields are used when Driver is "postgres", SQLitePath when it is "sqlite".
type DatabaseConfig struct {
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	SQLitePath         string
}

// StorageConfig selects where original document bytes are kept.
type StorageConfig struct {
	Driver   string
	LocalDir string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AIConfig holds settings for the enrichment model.
type AIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	SummaryMaxTokens  int
	MarkdownMaxTokens int
	MaxInputChars     int
	MaxRetries        int
}

// EnrichmentConfig bounds background enrichment work.
type EnrichmentConfig struct {
	JobTimeout      time.Duration
	ShutdownTimeout time.Duration
}

// UploadConfig limits a single upload request.
type UploadConfig struct {
	MaxFiles     int
	MaxFileBytes int64
}

// SearchConfig controls the full-text index over enriched documents.
// An empty IndexPath keeps the index in memory.
type SearchConfig struct {
	Enabled   bool
	IndexPath string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	Log        LogConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	MinIO      MinIOConfig
	AI         AIConfig
	Enrichment EnrichmentConfig
	Upload     UploadConfig
	Search     SearchConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", DriverPostgres),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			SQLitePath:         getEnv("SQLITE_PATH", "data/vault.db"),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", StorageMinIO),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "data/uploads"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		AI: AIConfig{
			APIKey:            getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL:           getEnv("ANTHROPIC_BASE_URL", ""),
			Model:             getEnv("AI_MODEL", "claude-sonnet-4-5"),
			SummaryMaxTokens:  getEnvInt("AI_SUMMARY_MAX_TOKENS", 1024),
			MarkdownMaxTokens: getEnvInt("AI_MARKDOWN_MAX_TOKENS", 4096),
			MaxInputChars:     getEnvInt("AI_MAX_INPUT_CHARS", 100000),
			MaxRetries:        getEnvInt("AI_MAX_RETRIES", 2),
		},
		Enrichment: EnrichmentConfig{
			JobTimeout:      getEnvDuration("ENRICH_JOB_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Upload: UploadConfig{
			MaxFiles:     getEnvInt("UPLOAD_MAX_FILES", 10),
			MaxFileBytes: int64(getEnvInt("UPLOAD_MAX_FILE_MB", 10)) << 20,
		},
		Search: SearchConfig{
			Enabled:   getEnvBool("SEARCH_ENABLED", true),
			IndexPath: getEnv("SEARCH_INDEX_PATH", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "10m").
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}
