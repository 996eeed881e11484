package deploy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haneulsoft/ai-relay/internal/domain"
)

// RedisStore keeps each deployment as a JSON blob under its bare ID.
// Deployment IDs are alphanumeric and can never collide with the "rate:"
// prefixed limiter keys sharing the instance. No TTL is set: deployments
// persist until the store's own retention policy reclaims them.
type RedisStore struct {
	client *redis.Client
}

type redisDeployment struct {
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int       `json:"size_bytes"`
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, d *domain.Deployment) error {
	data, err := json.Marshal(redisDeployment{
		HTML:      d.HTML,
		CreatedAt: d.CreatedAt,
		SizeBytes: d.SizeBytes,
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, d.ID, data, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Deployment, error) {
	data, err := s.client.Get(ctx, id).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrDeploymentNotFound
	}
	if err != nil {
		return nil, err
	}

	var stored redisDeployment
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	return &domain.Deployment{
		ID:        id,
		HTML:      stored.HTML,
		CreatedAt: stored.CreatedAt,
		SizeBytes: stored.SizeBytes,
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
