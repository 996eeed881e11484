//go:build integration

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haneulsoft/ai-relay/internal/api"
	"github.com/haneulsoft/ai-relay/internal/deploy"
	"github.com/haneulsoft/ai-relay/internal/domain"
	"github.com/haneulsoft/ai-relay/internal/notifications"
	"github.com/haneulsoft/ai-relay/internal/provider/gemini"
	"github.com/haneulsoft/ai-relay/internal/ratelimit"
	"github.com/haneulsoft/ai-relay/internal/router"
)

// Full path: HTTP request through the handler, down the gemini adapter, to
// a faked upstream, and back out as the normalized response shape.
func TestChatThroughGeminiUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": "hi there"}},
					},
				},
			},
			"usageMetadata": map[string]int{
				"promptTokenCount":     5,
				"candidatesTokenCount": 3,
			},
		})
	}))
	defer upstream.Close()

	providers := map[string]router.Provider{
		"gemini": gemini.New("test-key", upstream.URL),
	}

	handler := api.NewHandler(api.HandlerConfig{
		Router:       router.New(providers, "gemini"),
		RateLimiter:  ratelimit.NewInMemoryLimiter(10, time.Hour),
		Store:        deploy.NewInMemoryStore(),
		Notifier:     notifications.NewInMemoryNotifier(),
		DefaultModel: "gemini-2.0-flash",
	})

	body, _ := json.Marshal(map[string]string{"message": "hello"})
	req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp domain.ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Role != "assistant" {
		t.Errorf("role = %q, want assistant", resp.Role)
	}
	if len(resp.Content) != 1 || resp.Content[0].Text != "hi there" {
		t.Errorf("content = %+v, want single text block", resp.Content)
	}
	if resp.Usage.InputTokens != 5 || resp.Usage.OutputTokens != 3 {
		t.Errorf("usage = %+v, want 5/3", resp.Usage)
	}
}

// Exhausting the per-client quota flips /chat to 429 while leaving other
// clients and the deployment endpoints untouched.
func TestRateLimitExhaustion(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	}))
	defer upstream.Close()

	notifier := notifications.NewInMemoryNotifier()

	handler := api.NewHandler(api.HandlerConfig{
		Router:       router.New(map[string]router.Provider{"gemini": gemini.New("k", upstream.URL)}, "gemini"),
		RateLimiter:  ratelimit.NewInMemoryLimiter(2, time.Hour),
		Store:        deploy.NewInMemoryStore(),
		Notifier:     notifier,
		DefaultModel: "gemini-2.0-flash",
	})

	body, _ := json.Marshal(map[string]string{"message": "hello"})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
		req.Header.Set("CF-Connecting-IP", ip)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := send("203.0.113.1"); rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i, rr.Code, http.StatusOK)
		}
	}

	rr := send("203.0.113.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status after quota = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if !strings.Contains(rr.Body.String(), "시연 한도를 초과했습니다") {
		t.Errorf("body = %q, want user-facing limit message", rr.Body.String())
	}

	if rr := send("198.51.100.2"); rr.Code != http.StatusOK {
		t.Errorf("other client status = %d, want %d", rr.Code, http.StatusOK)
	}

	found := false
	for _, n := range notifier.GetNotifications() {
		if n.Type == notifications.NotificationRateLimited {
			found = true
		}
	}
	if !found {
		t.Error("rate limit hit should publish a notification")
	}
}
