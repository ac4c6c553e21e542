// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the analytics service.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	S3      S3Config      `mapstructure:"s3"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Shopify ShopifyConfig `mapstructure:"shopify"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// AppConfig holds application configuration.
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// S3Config holds blob store configuration.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RedisConfig holds snapshot cache configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// NATSConfig holds NATS configuration. An empty URL disables publishing.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// ShopifyConfig holds Shopify Admin API and webhook configuration.
type ShopifyConfig struct {
	ShopName      string `mapstructure:"shop_name"`
	APIVersion    string `mapstructure:"api_version"`
	AccessToken   string `mapstructure:"access_token"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// CORSConfig holds allowed origins for the dashboard front-end.
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// CacheConfig holds snapshot cache tuning.
type CacheConfig struct {
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT")

	_ = v.BindEnv("s3.endpoint", "S3_ENDPOINT")
	_ = v.BindEnv("s3.region", "AWS_REGION")
	_ = v.BindEnv("s3.bucket", "S3_BUCKET_NAME")
	_ = v.BindEnv("s3.access_key", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("s3.secret_key", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("s3.use_ssl", "S3_USE_SSL")

	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("redis.enabled", "REDIS_ENABLED")

	_ = v.BindEnv("nats.url", "NATS_URL")

	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.token_ttl", "JWT_TOKEN_TTL")

	_ = v.BindEnv("shopify.shop_name", "SHOPIFY_SHOP_NAME")
	_ = v.BindEnv("shopify.api_version", "SHOPIFY_API_VERSION")
	_ = v.BindEnv("shopify.access_token", "SHOPIFY_ACCESS_TOKEN")
	_ = v.BindEnv("shopify.webhook_secret", "SHOPIFY_WEBHOOK_SECRET")

	_ = v.BindEnv("cors.allowed_origins", "ALLOWED_ORIGINS")

	_ = v.BindEnv("cache.snapshot_ttl", "SNAPSHOT_CACHE_TTL")

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "service-analytics")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8010")

	// S3
	v.SetDefault("s3.endpoint", "s3.amazonaws.com")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.use_ssl", true)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	// NATS
	v.SetDefault("nats.url", "")

	// JWT
	v.SetDefault("jwt.token_ttl", 30*24*time.Hour)

	// Shopify
	v.SetDefault("shopify.api_version", "2024-01")

	// CORS
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://localhost:5173")

	// Cache
	v.SetDefault("cache.snapshot_ttl", time.Minute)
}
