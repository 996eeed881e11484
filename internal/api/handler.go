// Package api is the relay's single HTTP entry point: it dispatches by
// path and method, applies the CORS policy uniformly, and owns the
// translation of every failure into a client-visible response.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haneulsoft/ai-relay/internal/deploy"
	"github.com/haneulsoft/ai-relay/internal/notifications"
	"github.com/haneulsoft/ai-relay/internal/ratelimit"
	"github.com/haneulsoft/ai-relay/internal/router"
)

const (
	serviceName    = "ai-relay"
	serviceVersion = "1.0.0"
)

type HandlerConfig struct {
	Router *router.Router

	// RateLimiter may be nil, which disables chat rate limiting entirely.
	RateLimiter ratelimit.Limiter

	// DeployThrottle may be nil, which disables the deploy throttle.
	DeployThrottle *ratelimit.ClientThrottle

	Store deploy.Store

	// Notifier may be nil; notifications are best-effort either way.
	Notifier notifications.Notifier

	DefaultModel string
}

type Handler struct {
	router         *router.Router
	rateLimiter    ratelimit.Limiter
	deployThrottle *ratelimit.ClientThrottle
	store          deploy.Store
	notifier       notifications.Notifier
	defaultModel   string
	handler        http.Handler
}

func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		router:         cfg.Router,
		rateLimiter:    cfg.RateLimiter,
		deployThrottle: cfg.DeployThrottle,
		store:          cfg.Store,
		notifier:       cfg.Notifier,
		defaultModel:   cfg.DefaultModel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleHealth)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("POST /deploy", h.handleDeploy)
	mux.HandleFunc("GET /deployed/", h.handleDeployed)
	mux.Handle("GET /metrics", promhttp.Handler())

	h.handler = corsMiddleware(recoverMiddleware(metricsMiddleware(notFoundOnMismatch(mux))))

	return h
}

// notFoundOnMismatch collapses ServeMux's method-mismatch response into the
// same 404 an unknown path gets. Clients see one signal for "this endpoint
// does not exist" regardless of whether the path or the method was wrong.
func notFoundOnMismatch(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern == "" {
			http.NotFound(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// handleHealth serves the capability descriptor used for liveness checks.
// It never touches the rate limiter or the deployment store; provider
// checks are bounded so a hung upstream cannot stall the probe.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	providers := make(map[string]string)
	for _, id := range h.router.ListProviders() {
		p, _ := h.router.GetProvider(id)
		if err := p.HealthCheck(ctx); err != nil {
			providers[id] = "unhealthy"
			continue
		}
		providers[id] = "ok"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   serviceName,
		"version":   serviceVersion,
		"providers": providers,
		"endpoints": map[string]string{
			"/chat":          "POST - Chat with the configured AI provider",
			"/deploy":        "POST - Deploy generated app code",
			"/deployed/{id}": "GET - Serve a deployed app",
			"/health":        "GET - Health check",
		},
	})
}

// clientKey derives the rate-limit bucket for a request: trusted
// connecting-IP headers first, then the transport peer address. Header-less
// clients all share the "unknown" bucket, which is acceptable for a
// demo-tier limiter.
func clientKey(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}

	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServerError keeps the top-level error generic; the detail rides in
// a separate field so callers can show it without the relay leaking which
// internal step failed in the headline.
func writeServerError(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Internal server error",
		"message": detail,
	})
}
