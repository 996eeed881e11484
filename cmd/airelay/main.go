package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haneulsoft/ai-relay/internal/api"
	"github.com/haneulsoft/ai-relay/internal/config"
	"github.com/haneulsoft/ai-relay/internal/deploy"
	"github.com/haneulsoft/ai-relay/internal/notifications"
	"github.com/haneulsoft/ai-relay/internal/provider/anthropic"
	"github.com/haneulsoft/ai-relay/internal/provider/bedrock"
	"github.com/haneulsoft/ai-relay/internal/provider/gemini"
	"github.com/haneulsoft/ai-relay/internal/ratelimit"
	"github.com/haneulsoft/ai-relay/internal/router"
	"github.com/haneulsoft/ai-relay/internal/secrets"
	"github.com/haneulsoft/ai-relay/internal/telemetry"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	slog.Info("starting ai-relay", "addr", cfg.Addr, "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, "ai-relay", version, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	anthropicKey, geminiKey := resolveProviderKeys(ctx, cfg)

	providers := make(map[string]router.Provider)

	if anthropicKey != "" {
		providers["anthropic"] = anthropic.New(anthropicKey, cfg.AnthropicBaseURL)
		slog.Info("registered provider", "provider", "anthropic")
	}

	if geminiKey != "" {
		providers["gemini"] = gemini.New(geminiKey, cfg.GeminiBaseURL)
		slog.Info("registered provider", "provider", "gemini")
	}

	if cfg.BedrockEnabled {
		p, err := bedrock.New(ctx, cfg.AWSRegion)
		if err != nil {
			slog.Error("failed to initialize bedrock provider", "error", err)
			os.Exit(1)
		}
		providers["bedrock"] = p
		slog.Info("registered provider", "provider", "bedrock", "region", cfg.AWSRegion)
	}

	// An empty provider map is tolerated: /health and /deployed/{id} stay
	// useful on their own, and /chat answers 500 until a key arrives.
	if len(providers) == 0 {
		slog.Warn("no AI providers configured, /chat will be unavailable")
	}

	providerRouter := router.New(providers, cfg.DefaultProvider)

	var rateLimiter ratelimit.Limiter
	if cfg.RateLimitPerHour > 0 {
		if cfg.RedisURL != "" {
			rateLimiter, err = ratelimit.NewRedisLimiter(cfg.RedisURL, cfg.RateLimitPerHour, cfg.RateLimitWindow)
			if err != nil {
				slog.Error("failed to connect to redis for rate limiting", "error", err)
				os.Exit(1)
			}
			slog.Info("using redis rate limiter", "limit", cfg.RateLimitPerHour, "window", cfg.RateLimitWindow)
		} else {
			rateLimiter = ratelimit.NewInMemoryLimiter(cfg.RateLimitPerHour, cfg.RateLimitWindow)
			slog.Info("using in-memory rate limiter", "limit", cfg.RateLimitPerHour, "window", cfg.RateLimitWindow)
		}
	} else {
		slog.Info("rate limiting disabled")
	}

	store := buildDeployStore(ctx, cfg)

	var deployThrottle *ratelimit.ClientThrottle
	if cfg.DeployRateRPS > 0 {
		deployThrottle = ratelimit.NewClientThrottle(cfg.DeployRateRPS, cfg.DeployRateBurst)
		slog.Info("using deploy throttle", "rps", cfg.DeployRateRPS, "burst", cfg.DeployRateBurst)
	}

	var notifier notifications.Notifier
	if cfg.SNSTopicARN != "" {
		notifier, err = notifications.NewSNSNotifier(ctx, cfg.AWSRegion, cfg.SNSTopicARN)
		if err != nil {
			slog.Warn("failed to initialize SNS notifier, continuing without notifications", "error", err)
			notifier = nil
		} else {
			slog.Info("using SNS notifier", "topic", cfg.SNSTopicARN)
		}
	}

	handler := api.NewHandler(api.HandlerConfig{
		Router:         providerRouter,
		RateLimiter:    rateLimiter,
		DeployThrottle: deployThrottle,
		Store:          store,
		Notifier:       notifier,
		DefaultModel:   cfg.DefaultModel,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	if deployThrottle != nil {
		deployThrottle.Stop()
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}

// resolveProviderKeys returns the upstream API keys, preferring plain env
// values and falling back to AWS Secrets Manager when a secret name is
// configured. A failed secret lookup logs and leaves that provider
// unregistered rather than aborting startup.
func resolveProviderKeys(ctx context.Context, cfg *config.Config) (anthropicKey, geminiKey string) {
	anthropicKey = cfg.AnthropicAPIKey
	geminiKey = cfg.GeminiAPIKey

	if anthropicKey != "" && geminiKey != "" {
		return anthropicKey, geminiKey
	}
	if cfg.AnthropicSecretName == "" && cfg.GeminiSecretName == "" {
		return anthropicKey, geminiKey
	}

	sm, err := secrets.NewAWSSecretsManager(ctx, cfg.AWSRegion)
	if err != nil {
		slog.Error("failed to initialize secrets manager", "error", err)
		return anthropicKey, geminiKey
	}

	if anthropicKey == "" && cfg.AnthropicSecretName != "" {
		anthropicKey, err = sm.GetSecret(ctx, cfg.AnthropicSecretName)
		if err != nil {
			slog.Error("failed to resolve anthropic key secret", "secret", cfg.AnthropicSecretName, "error", err)
			anthropicKey = ""
		}
	}

	if geminiKey == "" && cfg.GeminiSecretName != "" {
		geminiKey, err = sm.GetSecret(ctx, cfg.GeminiSecretName)
		if err != nil {
			slog.Error("failed to resolve gemini key secret", "secret", cfg.GeminiSecretName, "error", err)
			geminiKey = ""
		}
	}

	return anthropicKey, geminiKey
}

// buildDeployStore picks the most durable backend available: S3, then
// Postgres, then Redis, then process memory.
func buildDeployStore(ctx context.Context, cfg *config.Config) deploy.Store {
	if cfg.S3Bucket != "" {
		region := cfg.S3Region
		if region == "" {
			region = cfg.AWSRegion
		}
		store, err := deploy.NewS3Store(ctx, region, cfg.S3Bucket)
		if err != nil {
			slog.Error("failed to initialize S3 deployment store", "error", err)
			os.Exit(1)
		}
		slog.Info("using S3 deployment store", "bucket", cfg.S3Bucket)
		return store
	}

	if cfg.DatabaseURL != "" {
		store, err := deploy.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to initialize postgres deployment store", "error", err)
			os.Exit(1)
		}
		slog.Info("using postgres deployment store")
		return store
	}

	if cfg.RedisURL != "" {
		store, err := deploy.NewRedisStore(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to initialize redis deployment store", "error", err)
			os.Exit(1)
		}
		slog.Info("using redis deployment store")
		return store
	}

	slog.Info("using in-memory deployment store")
	return deploy.NewInMemoryStore()
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
