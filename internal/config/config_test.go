package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear all env vars
	envVars := []string{
		"ADDR", "LOG_LEVEL", "REDIS_URL", "DATABASE_URL", "S3_BUCKET",
		"S3_REGION", "ANTHROPIC_API_KEY", "ANTHROPIC_KEY_SECRET_NAME",
		"GEMINI_API_KEY", "GEMINI_KEY_SECRET_NAME", "GEMINI_BASE_URL",
		"ANTHROPIC_BASE_URL", "BEDROCK_ENABLED", "AWS_REGION",
		"DEFAULT_PROVIDER", "DEFAULT_MODEL", "RATE_LIMIT_PER_HOUR",
		"RATE_LIMIT_WINDOW", "DEPLOY_RATE_RPS", "DEPLOY_RATE_BURST",
		"OTLP_ENDPOINT", "SNS_TOPIC_ARN", "SHUTDOWN_TIMEOUT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Addr", cfg.Addr, ":8787"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"RedisURL", cfg.RedisURL, ""},
		{"DatabaseURL", cfg.DatabaseURL, ""},
		{"S3Bucket", cfg.S3Bucket, ""},
		{"AnthropicAPIKey", cfg.AnthropicAPIKey, ""},
		{"GeminiBaseURL", cfg.GeminiBaseURL, "https://generativelanguage.googleapis.com/v1beta"},
		{"AnthropicBaseURL", cfg.AnthropicBaseURL, "https://api.anthropic.com/v1"},
		{"DefaultProvider", cfg.DefaultProvider, "anthropic"},
		{"DefaultModel", cfg.DefaultModel, "claude-sonnet-4-20250514"},
		{"OTLPEndpoint", cfg.OTLPEndpoint, ""},
		{"SNSTopicARN", cfg.SNSTopicARN, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}

	if cfg.RateLimitPerHour != 10 {
		t.Errorf("RateLimitPerHour = %d, want 10", cfg.RateLimitPerHour)
	}
	if cfg.RateLimitWindow != time.Hour {
		t.Errorf("RateLimitWindow = %v, want 1h", cfg.RateLimitWindow)
	}
	if cfg.DeployRateRPS != 0 {
		t.Errorf("DeployRateRPS = %v, want disabled by default", cfg.DeployRateRPS)
	}
	if cfg.BedrockEnabled {
		t.Error("BedrockEnabled should default to false")
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	env := map[string]string{
		"ADDR":                ":9090",
		"LOG_LEVEL":           "debug",
		"REDIS_URL":           "redis://localhost:6379",
		"DATABASE_URL":        "postgres://localhost/relay",
		"S3_BUCKET":           "relay-deployments",
		"ANTHROPIC_API_KEY":   "sk-ant-test",
		"GEMINI_API_KEY":      "gm-test",
		"BEDROCK_ENABLED":     "true",
		"AWS_REGION":          "ap-northeast-2",
		"DEFAULT_PROVIDER":    "gemini",
		"DEFAULT_MODEL":       "gemini-2.0-flash",
		"RATE_LIMIT_PER_HOUR": "25",
		"RATE_LIMIT_WINDOW":   "30m",
		"DEPLOY_RATE_RPS":     "0.5",
		"DEPLOY_RATE_BURST":   "3",
	}
	for k, v := range env {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range env {
			os.Unsetenv(k)
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.S3Bucket != "relay-deployments" {
		t.Errorf("S3Bucket = %q, want relay-deployments", cfg.S3Bucket)
	}
	if !cfg.BedrockEnabled {
		t.Error("BedrockEnabled should be true")
	}
	if cfg.DefaultModel != "gemini-2.0-flash" {
		t.Errorf("DefaultModel = %q, want gemini-2.0-flash", cfg.DefaultModel)
	}
	if cfg.RateLimitPerHour != 25 {
		t.Errorf("RateLimitPerHour = %d, want 25", cfg.RateLimitPerHour)
	}
	if cfg.RateLimitWindow != 30*time.Minute {
		t.Errorf("RateLimitWindow = %v, want 30m", cfg.RateLimitWindow)
	}
	if cfg.DeployRateRPS != 0.5 {
		t.Errorf("DeployRateRPS = %v, want 0.5", cfg.DeployRateRPS)
	}
	if cfg.DeployRateBurst != 3 {
		t.Errorf("DeployRateBurst = %d, want 3", cfg.DeployRateBurst)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue string
		expected     string
	}{
		{"env set", "TEST_VAR", "custom", "default", "custom"},
		{"env not set", "TEST_VAR_UNSET", "", "default", "default"},
		{"env empty", "TEST_VAR_EMPTY", "", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.expected {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.expected)
			}
		})
	}
}

func TestGetDurationEnv_BareSeconds(t *testing.T) {
	os.Setenv("TEST_DURATION", "3600")
	defer os.Unsetenv("TEST_DURATION")

	got := getDurationEnv("TEST_DURATION", time.Minute)
	if got != time.Hour {
		t.Errorf("getDurationEnv = %v, want bare integers read as seconds", got)
	}
}
