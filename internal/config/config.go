package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wipefix/wipefix/backend/go-services/internal/storage"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
	MinIO     storage.MinIOConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	PacksCollection string
	MetaCollection  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr is host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type AdminConfig struct {
	// Token guards pack creation. Empty means every create fails as misconfigured.
	Token string
}

// LoadConfig loads configuration from environment variables and an optional .env file.
func LoadConfig() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("PACKS_COLLECTION", "broker_packs")
	v.SetDefault("PACK_META_COLLECTION", "broker_pack_meta")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_BUCKET", "wipefix")
	v.SetDefault("MINIO_PREFIX", "broker-packs")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			CORSOrigins:  splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		},
		MongoDB: MongoDBConfig{
			URI:             firstSet(v, "MONGODB_URI", "MONGO_URL"),
			Database:        firstSet(v, "MONGODB_DATABASE", "DB_NAME"),
			Timeout:         time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			PacksCollection: v.GetString("PACKS_COLLECTION"),
			MetaCollection:  v.GetString("PACK_META_COLLECTION"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Admin: AdminConfig{
			Token: v.GetString("ADMIN_TOKEN"),
		},
		MinIO: storage.MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Prefix:    v.GetString("MINIO_PREFIX"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
	if cfg.MongoDB.Database == "" {
		cfg.MongoDB.Database = "wipefix"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must not be empty")
	}
	if c.MongoDB.PacksCollection == c.MongoDB.MetaCollection {
		return fmt.Errorf("PACKS_COLLECTION and PACK_META_COLLECTION must differ (both %q)", c.MongoDB.PacksCollection)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 0) {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST non-negative")
	}
	if c.MinIO.Enabled() && c.MinIO.Bucket == "" {
		return fmt.Errorf("MINIO_BUCKET is required when MINIO_ENDPOINT is set")
	}
	return nil
}

func firstSet(v *viper.Viper, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(v.GetString(k)); s != "" {
			return s
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
