package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	SiteID   string

	// StoreDriver selects the kv backend: memory|sqlite|postgres|mysql|redis.
	StoreDriver string
	StoreDSN    string

	RedisAddr     string
	RedisPassword string
	RedisPrefix   string

	BlobDriver   string // fs|s3
	BlobBasePath string // for fs
	MaxUpload    int64  // bytes

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	AdminUser     string
	AdminPass     string // plain; hashed at startup when AdminPassHash is empty
	AdminPassHash string // bcrypt
	ProctorUser   string // optional read-only account; empty disables it
	ProctorPass   string
	HMACSecret    string
	TokenTTL      time.Duration

	CORSOrigins []string

	SyncOnStart  bool
	SyncTimeout  time.Duration
	SyncInterval time.Duration // 0 disables periodic sync
	SessionTTL   time.Duration

	LogLevel  string
	LogFormat string // text|json
	TimeZone  string // used for rendering exported timestamps
}

// FromEnv reads the process environment, after loading .env if present.
// Variables already set in the environment win over .env.
func FromEnv() Config {
	_ = godotenv.Load()
	return Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		SiteID:        envOr("SITE_ID", "local"),
		StoreDriver:   envOr("STORE_DRIVER", "sqlite"),
		StoreDSN:      envOr("STORE_DSN", ""),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:   envOr("REDIS_PREFIX", "tka:"),
		BlobDriver:    envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:  envOr("BLOB_BASE_PATH", "./data"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      os.Getenv("AWS_REGION"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3AccessKey:   os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3PublicURL:   os.Getenv("S3_PUBLIC_URL"),
		MaxUpload:     envInt("MAX_UPLOAD_BYTES", 5<<20),
		AdminUser:     envOr("ADMIN_USER", "216jaya"),
		AdminPass:     envOr("ADMIN_PASS", "216216"),
		AdminPassHash: os.Getenv("ADMIN_PASS_HASH"),
		ProctorUser:   os.Getenv("PROCTOR_USER"),
		ProctorPass:   os.Getenv("PROCTOR_PASS"),
		HMACSecret:    envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		TokenTTL:      envDuration("TOKEN_TTL", 8*time.Hour),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		SyncOnStart:   envBool("SYNC_ON_START", true),
		SyncTimeout:   envDuration("SYNC_TIMEOUT", 15*time.Second),
		SyncInterval:  envDuration("SYNC_INTERVAL", 0),
		SessionTTL:    envDuration("SESSION_TTL", 4*time.Hour),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "text"),
		TimeZone:      envOr("TZ_EXPORT", "Asia/Jakarta"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}

func envInt(k string, def int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(k), 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
