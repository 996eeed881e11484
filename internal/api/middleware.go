package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haneulsoft/ai-relay/internal/metrics"
)

// corsMiddleware attaches the CORS policy to every response, success or
// error, and answers preflight before any other logic runs. Browser clients
// fail opaquely on any response missing these headers, so this must be the
// outermost layer.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware converts handler panics into 500 JSON responses. An
// unhandled panic would otherwise surface as a connection reset with no
// CORS headers.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeServerError(w, "unexpected internal error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.RecordRequest(endpointLabel(r.URL.Path), statusClass(rec.status), time.Since(start).Seconds())
	})
}

// endpointLabel buckets paths into a fixed label set so high-cardinality
// deployment IDs never leak into metric labels.
func endpointLabel(path string) string {
	switch {
	case path == "/" || path == "/health":
		return "/health"
	case path == "/chat":
		return "/chat"
	case path == "/deploy":
		return "/deploy"
	case strings.HasPrefix(path, "/deployed"):
		return "/deployed"
	case path == "/metrics":
		return "/metrics"
	default:
		return "other"
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
