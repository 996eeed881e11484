package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/haneulsoft/ai-relay/internal/domain"
	"github.com/haneulsoft/ai-relay/internal/metrics"
	"github.com/haneulsoft/ai-relay/internal/notifications"
	"github.com/haneulsoft/ai-relay/internal/telemetry"
)

// rateLimitResponse is deliberately structured so calling apps can branch
// on it and show a "try later" message. ResetIn is the full window length,
// not the actual remaining time; callers get an approximation, never a
// countdown.
type rateLimitResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Limit   int    `json:"limit"`
	ResetIn int    `json:"resetIn"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	// Validate before charging: a malformed request must never consume
	// rate-limit budget or reach the upstream.
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	model := req.Model
	if model == "" {
		model = h.defaultModel
	}
	maxTokens := domain.ClampMaxTokens(req.MaxTokens)

	// Fail closed before any network call when no upstream credential was
	// configured. Providers only register when their key is present, so an
	// empty router means exactly that. The message stays generic.
	provider, err := h.router.SelectProvider(model)
	if err != nil {
		slog.Error("no provider available", "model", model, "request_id", requestID)
		writeError(w, http.StatusInternalServerError, "AI provider not configured")
		return
	}

	key := clientKey(r)

	if h.rateLimiter != nil {
		allowed, count, err := h.rateLimiter.Allow(ctx, key)
		switch {
		case err != nil:
			// Limiter backend down. Fail open: availability over
			// enforcement for a soft usage cap.
			slog.Warn("rate limiter unavailable, failing open", "error", err, "request_id", requestID)
		case !allowed:
			slog.Warn("rate limit exceeded", "client", key, "count", count, "request_id", requestID)
			metrics.RecordRateLimitHit("/chat")
			h.notify(ctx, notifications.Notification{
				Type:    notifications.NotificationRateLimited,
				Message: "chat rate limit exceeded",
				Data:    map[string]interface{}{"client": key, "count": count},
			})
			writeJSON(w, http.StatusTooManyRequests, rateLimitResponse{
				Error:   "Rate limit exceeded",
				Message: "시연 한도를 초과했습니다. 1시간 후 다시 시도해주세요.",
				Limit:   h.rateLimiter.Limit(),
				ResetIn: int(h.rateLimiter.Window().Seconds()),
			})
			return
		}
	}

	ctx, span := telemetry.StartSpan(ctx, "chat")
	defer span.End()
	telemetry.AddChatAttributes(span, provider.ID(), model, requestID)

	resp, err := provider.Generate(ctx, req.Message, domain.GenerateOptions{
		Model:     model,
		MaxTokens: maxTokens,
	})
	if err != nil {
		// The most likely production failure; keep the raw provider error
		// in the log (adapters already truncate oversized payloads).
		slog.Error("upstream call failed",
			"provider", provider.ID(),
			"model", model,
			"error", err,
			"request_id", requestID,
		)
		metrics.RecordUpstreamError(provider.ID())
		telemetry.AddErrorAttribute(span, err)
		h.notify(ctx, notifications.Notification{
			Type:    notifications.NotificationUpstreamFailure,
			Message: "upstream provider call failed",
			Data:    map[string]interface{}{"provider": provider.ID(), "error": err.Error()},
		})
		writeServerError(w, err.Error())
		return
	}

	metrics.RecordTokens(provider.ID(), model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	telemetry.AddTokenAttributes(span, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	slog.Info("chat completed",
		"provider", provider.ID(),
		"model", model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"request_id", requestID,
	)

	w.Header().Set("X-Request-ID", requestID)
	writeJSON(w, http.StatusOK, resp)
}

// notify publishes best-effort; a failed publish must never fail the
// request that triggered it.
func (h *Handler) notify(ctx context.Context, n notifications.Notification) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Send(ctx, n); err != nil {
		slog.Warn("notification failed", "type", n.Type, "error", err)
	}
}
