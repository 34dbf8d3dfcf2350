package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnvOnce sync.Once

// loadEnv reads .env once; real environment variables win over file
// values that are missing.
func loadEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var (
	serverOnce   sync.Once
	serverConfig *ServerConfig
)

// ServerConfig groups the HTTP server and upload limits.
type ServerConfig struct {
	Addr            string
	MaxUploadSize   int64 // bytes, per file
	MaxUploadParts  int
	AllowedUploads  []string // accepted upload extensions
	ShutdownTimeout time.Duration
}

func GetServerConfig() *ServerConfig {
	serverOnce.Do(func() {
		loadEnv()
		serverConfig = &ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":8080"),
			MaxUploadSize:  getEnvInt64("MAX_UPLOAD_SIZE", 100*1024*1024), // 100MiB
			MaxUploadParts: int(getEnvInt64("MAX_UPLOAD_PARTS", 10)),
			AllowedUploads: []string{
				".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
				".jpg", ".jpeg", ".png", ".html", ".htm",
			},
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		}
	})
	return serverConfig
}

var (
	storageOnce   sync.Once
	storageConfig *StorageConfig
)

// StorageConfig selects the blob backend and the record store.
type StorageConfig struct {
	Backend     string // local, minio, s3
	LocalDir    string
	StoreDriver string // memory, redis, postgres
	PostgresDSN string
}

func GetStorageConfig() *StorageConfig {
	storageOnce.Do(func() {
		loadEnv()
		storageConfig = &StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			LocalDir:    getEnv("STORAGE_DIR", "uploads"),
			StoreDriver: getEnv("STORE_DRIVER", "memory"),
			PostgresDSN: getEnv("POSTGRES_DSN", ""),
		}
	})
	return storageConfig
}

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

// RedisConfig is shared by the redis record store and the maintenance
// worker queue.
type RedisConfig struct {
	Addr string
	DB   int
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadEnv()
		redisConfig = &RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
			DB:   int(getEnvInt64("REDIS_DB", 0)),
		}
	})
	return redisConfig
}

var (
	authOnce   sync.Once
	authConfig *AuthConfig
)

// AuthConfig holds JWT signing parameters.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func GetAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		loadEnv()
		authConfig = &AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),
		}
	})
	return authConfig
}

var (
	convertOnce   sync.Once
	convertConfig *ConvertConfig
)

// ConvertConfig points at the external document conversion backend used
// for office and HTML formats.
type ConvertConfig struct {
	BackendURL string
	Timeout    time.Duration
}

func GetConvertConfig() *ConvertConfig {
	convertOnce.Do(func() {
		loadEnv()
		convertConfig = &ConvertConfig{
			BackendURL: getEnv("CONVERT_BACKEND_URL", ""),
			Timeout:    getEnvDuration("CONVERT_TIMEOUT", 2*time.Minute),
		}
	})
	return convertConfig
}

var (
	retentionOnce   sync.Once
	retentionConfig *RetentionConfig
)

// RetentionConfig controls the anonymous-file sweep in the worker.
type RetentionConfig struct {
	Period        time.Duration
	SweepInterval time.Duration
}

func GetRetentionConfig() *RetentionConfig {
	retentionOnce.Do(func() {
		loadEnv()
		retentionConfig = &RetentionConfig{
			Period:        getEnvDuration("RETENTION_PERIOD", 24*time.Hour),
			SweepInterval: getEnvDuration("RETENTION_SWEEP_INTERVAL", time.Hour),
		}
	})
	return retentionConfig
}
