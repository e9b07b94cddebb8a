package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally seeded by a .env file) with simple defaults.
type Config struct {
	ListenAddr string

	// Catalog store backend: "file", "redis" or "mysql".
	CatalogStore string
	// CatalogPath is the catalog document location for the file backend.
	CatalogPath string
	// CatalogRedisKey is the document key for the redis backend.
	CatalogRedisKey string
	// CatalogUTCOffset is the fixed local offset used for wall-clock input,
	// e.g. "+01:00". The locale has no daylight-saving transitions.
	CatalogUTCOffset string

	// MinIO object storage
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioRegion        string
	MinioUseSSL        bool
	MinioPublicBaseURL string // base URL under which bucket objects are served

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL (mysql catalog backend)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		CatalogStore:     getEnv("CATALOG_STORE", "file"),
		CatalogPath:      getEnv("CATALOG_PATH", filepath.Join("data", "events.json")),
		CatalogRedisKey:  getEnv("CATALOG_REDIS_KEY", "catalog:events"),
		CatalogUTCOffset: getEnv("CATALOG_UTC_OFFSET", "+01:00"),

		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"), // no hardcoded default for secrets
		MinioBucket:        getEnv("MINIO_BUCKET", "cadencefm"),
		MinioRegion:        getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:        getEnvBool("MINIO_USE_SSL", false),
		MinioPublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", "http://localhost:8080/static"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "cadencefm"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
