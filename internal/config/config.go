package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr     string
	LogLevel string

	// Key-value store handles. REDIS_URL backs both the rate limiter and,
	// absent a more durable backend, the deployment store. Empty disables
	// distributed rate limiting (fail-open when RateLimitPerHour is also 0).
	RedisURL    string
	DatabaseURL string
	S3Bucket    string
	S3Region    string

	// Upstream provider credentials. The *SecretName variants name an AWS
	// Secrets Manager secret resolved at startup; the plain value wins when
	// both are set.
	AnthropicAPIKey     string
	AnthropicSecretName string
	GeminiAPIKey        string
	GeminiSecretName    string
	GeminiBaseURL       string
	AnthropicBaseURL    string
	BedrockEnabled      bool
	AWSRegion           string

	DefaultProvider string
	DefaultModel    string

	// RateLimitPerHour = 0 disables chat rate limiting entirely.
	RateLimitPerHour int
	RateLimitWindow  time.Duration

	// DeployRateRPS = 0 disables the per-client deploy throttle.
	DeployRateRPS   float64
	DeployRateBurst int

	OTLPEndpoint string
	SNSTopicARN  string

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:                getEnv("ADDR", ":8787"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisURL:            getEnv("REDIS_URL", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Region:            getEnv("S3_REGION", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicSecretName: getEnv("ANTHROPIC_KEY_SECRET_NAME", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiSecretName:    getEnv("GEMINI_KEY_SECRET_NAME", ""),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		AnthropicBaseURL:    getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1"),
		BedrockEnabled:      getEnv("BEDROCK_ENABLED", "false") == "true",
		AWSRegion:           getEnv("AWS_REGION", ""),
		DefaultProvider:     getEnv("DEFAULT_PROVIDER", "anthropic"),
		DefaultModel:        getEnv("DEFAULT_MODEL", "claude-sonnet-4-20250514"),
		RateLimitPerHour:    getIntEnv("RATE_LIMIT_PER_HOUR", 10),
		RateLimitWindow:     getDurationEnv("RATE_LIMIT_WINDOW", time.Hour),
		DeployRateRPS:       getFloatEnv("DEPLOY_RATE_RPS", 0),
		DeployRateBurst:     getIntEnv("DEPLOY_RATE_BURST", 5),
		OTLPEndpoint:        getEnv("OTLP_ENDPOINT", ""),
		SNSTopicARN:         getEnv("SNS_TOPIC_ARN", ""),
		ShutdownTimeout:     getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
