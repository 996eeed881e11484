package router

import (
	"context"
	"strings"

	"github.com/haneulsoft/ai-relay/internal/domain"
)

// Provider is one upstream generative-AI backend. Adapters own every
// provider-shape detail; callers only ever see the normalized
// domain.ChatResponse, which is the reason this relay exists even for a
// single provider.
type Provider interface {
	ID() string
	Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (*domain.ChatResponse, error)
	HealthCheck(ctx context.Context) error
}

// Router picks the provider for a requested model, falling back to the
// configured default when the model gives no hint.
type Router struct {
	providers       map[string]Provider
	defaultProvider string
}

func New(providers map[string]Provider, defaultProvider string) *Router {
	return &Router{
		providers:       providers,
		defaultProvider: defaultProvider,
	}
}

func (r *Router) SelectProvider(model string) (Provider, error) {
	if p := r.findProviderByModel(model); p != nil {
		return p, nil
	}

	if p, ok := r.providers[r.defaultProvider]; ok {
		return p, nil
	}

	for _, p := range r.providers {
		return p, nil
	}

	return nil, domain.ErrProviderNotFound
}

func (r *Router) findProviderByModel(model string) Provider {
	var id string
	switch {
	case strings.HasPrefix(model, "claude"):
		id = "anthropic"
	case strings.HasPrefix(model, "gemini"):
		id = "gemini"
	case strings.HasPrefix(model, "anthropic.") || strings.HasPrefix(model, "amazon."):
		id = "bedrock"
	default:
		return nil
	}

	if p, ok := r.providers[id]; ok {
		return p
	}
	return nil
}

func (r *Router) GetProvider(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

func (r *Router) ListProviders() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
