package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haneulsoft/ai-relay/internal/domain"
)

func TestGenerate_NormalizesResponse(t *testing.T) {
	var gotPath string
	var gotReq generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role": "model",
						"parts": []map[string]string{
							{"text": "hi "},
							{"text": "there"},
						},
					},
				},
			},
			"usageMetadata": map[string]int{
				"promptTokenCount":     12,
				"candidatesTokenCount": 34,
			},
		})
	}))
	defer server.Close()

	p := New("test-key", server.URL)

	resp, err := p.Generate(context.Background(), "hello", domain.GenerateOptions{
		Model:     "gemini-2.0-flash",
		MaxTokens: 6000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gotPath, "models/gemini-2.0-flash:generateContent") {
		t.Errorf("path = %q, want generateContent for the requested model", gotPath)
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Parts[0].Text != "hello" {
		t.Errorf("upstream request contents = %+v, want single user prompt", gotReq.Contents)
	}
	if gotReq.GenerationConfig.MaxOutputTokens != 6000 {
		t.Errorf("maxOutputTokens = %d, want 6000", gotReq.GenerationConfig.MaxOutputTokens)
	}

	if resp.Role != "assistant" {
		t.Errorf("role = %q, want assistant", resp.Role)
	}
	if len(resp.Content) != 1 || resp.Content[0].Text != "hi there" {
		t.Errorf("content = %+v, want concatenated parts", resp.Content)
	}
	if resp.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q, want requested model echoed", resp.Model)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 34 {
		t.Errorf("usage = %+v, want 12/34", resp.Usage)
	}
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	p := New("test-key", server.URL)

	_, err := p.Generate(context.Background(), "hello", domain.GenerateOptions{Model: "gemini-2.0-flash"})
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerate_MissingUsageMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	}))
	defer server.Close()

	p := New("test-key", server.URL)

	resp, err := p.Generate(context.Background(), "hello", domain.GenerateOptions{Model: "gemini-2.0-flash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 0 || resp.Usage.OutputTokens != 0 {
		t.Errorf("usage = %+v, want zeros when metadata is absent", resp.Usage)
	}
}

func TestGenerate_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    400,
				"message": "API key not valid",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}))
	defer server.Close()

	p := New("bad-key", server.URL)

	_, err := p.Generate(context.Background(), "hello", domain.GenerateOptions{Model: "gemini-2.0-flash"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("error = %v, want upstream message surfaced", err)
	}
}
