package domain

import "time"

// ChatRequest is the body accepted by POST /chat. Model and MaxTokens are
// optional; the relay fills in defaults and clamps MaxTokens into the
// provider-safe range before the upstream call.
type ChatRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// MaxTokens bounds for the upstream call. Values below the floor make the
// provider silently degrade or error; the ceiling is the provider's hard
// maximum. Out-of-range values are clamped, not rejected.
const (
	MaxTokensFloor   = 6000
	MaxTokensCeiling = 32000
)

// ClampMaxTokens returns n forced into [MaxTokensFloor, MaxTokensCeiling].
// Zero (absent in the request) maps to the floor.
func ClampMaxTokens(n int) int {
	if n < MaxTokensFloor {
		return MaxTokensFloor
	}
	if n > MaxTokensCeiling {
		return MaxTokensCeiling
	}
	return n
}

// ChatResponse is the relay's stable contract to callers and to deployed
// apps, regardless of which upstream provider produced the text.
type ChatResponse struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
	Model   string         `json:"model"`
	Usage   Usage          `json:"usage"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TextResponse builds the normalized single-text-block response shape every
// provider adapter funnels into.
func TextResponse(model, text string, usage Usage) *ChatResponse {
	return &ChatResponse{
		Role:    "assistant",
		Content: []ContentBlock{{Type: "text", Text: text}},
		Model:   model,
		Usage:   usage,
	}
}

// GenerateOptions carries the already-defaulted, already-clamped parameters
// a provider adapter forwards upstream.
type GenerateOptions struct {
	Model     string
	MaxTokens int
}

// Deployment is one stored HTML document. Documents are written exactly once
// and never mutated; CreatedAt and SizeBytes are observability metadata and
// are not read back by any handler.
type Deployment struct {
	ID        string    `json:"projectId"`
	HTML      string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	SizeBytes int       `json:"sizeBytes"`
}
