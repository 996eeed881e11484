// Package deploy persists generated HTML documents under opaque random IDs
// and serves them back verbatim. Documents are written once and never
// mutated, so every backend only needs put-once/get-many semantics.
package deploy

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/haneulsoft/ai-relay/internal/domain"
)

// Store maps a deployment ID to its document. Put must not be called twice
// for the same ID; Get is idempotent and side-effect-free.
type Store interface {
	Put(ctx context.Context, d *domain.Deployment) error
	Get(ctx context.Context, id string) (*domain.Deployment, error)
}

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 10
)

// NewID returns a fresh 10-character alphanumeric identifier from a
// cryptographically strong source. Predictable IDs would let any caller
// guess other users' deployments, so math/rand is not an option here.
// No collision check is performed before write; at 62^10 possible IDs the
// birthday bound is negligible at this service's scale.
func NewID() (string, error) {
	max := big.NewInt(int64(len(idAlphabet)))
	id := make([]byte, idLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		id[i] = idAlphabet[n.Int64()]
	}
	return string(id), nil
}

// InMemoryStore keeps deployments in a map. Deployments are invisible to
// any other instance, so this backend is only for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]*domain.Deployment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[string]*domain.Deployment)}
}

func (s *InMemoryStore) Put(ctx context.Context, d *domain.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[d.ID] = d
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*domain.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.items[id]
	if !ok {
		return nil, domain.ErrDeploymentNotFound
	}
	return d, nil
}
