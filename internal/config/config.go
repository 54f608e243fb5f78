package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort string

	// Cloudflare Turnstile
	CloudflareTurnstileSecretKey string
	CloudflareSiteVerifyURL      string
	CaptchaTokenTTL              time.Duration

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// AWS S3 (room photos)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	PhotoBaseS3URL     string
	PhotoMaxDimension  int

	// App defaults
	AppName        string
	SearchPageSize int

	// Rate limiting defaults
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// Load reads configuration from environment variables. RunMode comes from the
// command-line flag, so it is passed in.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getEnvInt := func(key string, defaultValue int) int {
		if value, exists := os.LookupEnv(key); exists {
			if n, err := strconv.Atoi(value); err == nil {
				return n
			}
		}
		return defaultValue
	}

	var err error

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "roomradar")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	jwtTTLHours := getEnvInt("JWT_TTL_HOURS", 72)
	cfg.JwtTTL = time.Duration(jwtTTLHours) * time.Hour

	cfg.ApiPort = getEnv("API_PORT", "8080")

	cfg.CloudflareTurnstileSecretKey = getEnv("CLOUDFLARE_TURNSTILE_SECRET_KEY", "")
	cfg.CloudflareSiteVerifyURL = getEnv("CLOUDFLARE_SITEVERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	cfg.CaptchaTokenTTL = time.Duration(getEnvInt("CAPTCHA_TOKEN_TTL_HOURS", 24)) * time.Hour

	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpPort = getEnvInt("SMTP_PORT", 587)
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@roomradar.example.com")

	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.PhotoBaseS3URL = getEnv("PHOTO_BASE_S3_URL", "")
	cfg.PhotoMaxDimension = getEnvInt("PHOTO_MAX_DIMENSION", 1600)

	cfg.AppName = getEnv("APP_NAME", "RoomRadar")
	cfg.SearchPageSize = getEnvInt("SEARCH_PAGE_SIZE", 50)

	cfg.RateLimitSoftBucketSize = getEnvInt("RATE_LIMIT_SOFT_BUCKET_SIZE", 30)
	cfg.RateLimitSoftRefillRate = getEnvInt("RATE_LIMIT_SOFT_REFILL_RATE", 10)
	cfg.RateLimitHardBucketSize = getEnvInt("RATE_LIMIT_HARD_BUCKET_SIZE", 100)
	cfg.RateLimitHardRefillRate = getEnvInt("RATE_LIMIT_HARD_REFILL_RATE", 30)

	return cfg, nil
}
