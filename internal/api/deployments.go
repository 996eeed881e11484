package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haneulsoft/ai-relay/internal/deploy"
	"github.com/haneulsoft/ai-relay/internal/domain"
	"github.com/haneulsoft/ai-relay/internal/metrics"
	"github.com/haneulsoft/ai-relay/internal/notifications"
	"github.com/haneulsoft/ai-relay/internal/telemetry"
)

type deployRequest struct {
	Code string `json:"code"`
}

type deployResponse struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	ProjectID string `json:"projectId"`
	CreatedAt string `json:"createdAt"`
}

func (h *Handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "Code is required")
		return
	}

	if h.deployThrottle != nil && !h.deployThrottle.Allow(clientKey(r)) {
		metrics.RecordRateLimitHit("/deploy")
		writeError(w, http.StatusTooManyRequests, "Too many deployment requests")
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "deploy")
	defer span.End()

	html, err := deploy.Render(req.Code)
	if err != nil {
		slog.Error("deployment templating failed", "error", err)
		telemetry.AddErrorAttribute(span, err)
		writeServerError(w, err.Error())
		return
	}

	id, err := deploy.NewID()
	if err != nil {
		slog.Error("deployment id generation failed", "error", err)
		telemetry.AddErrorAttribute(span, err)
		writeServerError(w, err.Error())
		return
	}

	d := &domain.Deployment{
		ID:        id,
		HTML:      html,
		CreatedAt: time.Now().UTC(),
		SizeBytes: len(html),
	}

	if err := h.store.Put(ctx, d); err != nil {
		slog.Error("deployment store write failed", "project_id", id, "error", err)
		telemetry.AddErrorAttribute(span, err)
		writeServerError(w, err.Error())
		return
	}

	telemetry.AddDeploymentAttributes(span, id, d.SizeBytes)
	metrics.RecordDeployment(d.SizeBytes)

	slog.Info("deployment stored", "project_id", id, "size_bytes", d.SizeBytes)

	h.notify(ctx, notifications.Notification{
		Type:    notifications.NotificationDeploymentCreated,
		Message: "deployment created",
		Data:    map[string]interface{}{"project_id": id, "size_bytes": d.SizeBytes},
	})

	writeJSON(w, http.StatusOK, deployResponse{
		Success:   true,
		URL:       requestOrigin(r) + "/deployed/" + id,
		ProjectID: id,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	})
}

// handleDeployed serves browsers directly, so its error paths speak plain
// text and HTML rather than JSON.
func (h *Handler) handleDeployed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/deployed"), "/")

	if id == "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Missing project ID"))
		return
	}

	d, err := h.store.Get(ctx, id)
	if errors.Is(err, domain.ErrDeploymentNotFound) {
		// Dead or mistyped links are expected user behavior, not errors.
		slog.Debug("deployment not found", "project_id", id)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(deploy.NotFoundPage(id)))
		return
	}
	if err != nil {
		slog.Error("deployment store read failed", "project_id", id, "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal server error"))
		return
	}

	// Deployments are immutable, so aggressive caching is safe and
	// intended.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(d.HTML))
}

// requestOrigin rebuilds the public origin of the current request so the
// returned deployment URL points back at whatever host the caller reached
// us through.
func requestOrigin(r *http.Request) string {
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host
}
