package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Kling API
	KlingAPIBaseURL string
	KlingAccessKey  string
	KlingSecretKey  string

	// Object store (S3-compatible)
	StorageEnabled bool
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3URLExpiry    time.Duration

	// Watermark
	LogoPath string

	// Server
	Port           string
	Environment    string
	UploadDir      string
	AllowedOrigins []string
}

func Load() (*Config, error) {
	expiryHours, err := strconv.Atoi(getEnv("S3_URL_EXPIRY_HOURS", "24"))
	if err != nil || expiryHours <= 0 {
		return nil, fmt.Errorf("invalid S3_URL_EXPIRY_HOURS: %q", os.Getenv("S3_URL_EXPIRY_HOURS"))
	}

	cfg := &Config{
		KlingAPIBaseURL: getEnv("KLING_API_BASE_URL", "https://api-singapore.klingai.com"),
		KlingAccessKey:  getEnv("KLING_ACCESS_KEY", ""),
		KlingSecretKey:  getEnv("KLING_SECRET_KEY", ""),

		StorageEnabled: getEnv("STORAGE_ENABLED", "true") == "true",
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", "eros-universe-media"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3URLExpiry:    time.Duration(expiryHours) * time.Hour,

		LogoPath: getEnv("WATERMARK_LOGO_PATH", "./assets/eros-logo.png"),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
	}

	origins := getEnv("CORS_ALLOWED_ORIGINS",
		"http://localhost:3000,http://localhost:5173,https://erosuniverse.com")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.KlingAccessKey == "" {
		return fmt.Errorf("KLING_ACCESS_KEY is required")
	}
	if c.KlingSecretKey == "" {
		return fmt.Errorf("KLING_SECRET_KEY is required")
	}
	if c.StorageEnabled {
		if c.S3Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required when STORAGE_ENABLED=true")
		}
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when STORAGE_ENABLED=true")
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
