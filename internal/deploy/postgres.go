package deploy

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/haneulsoft/ai-relay/internal/domain"
)

// PostgresStore persists deployments in a single table. It is the most
// durable backend: documents survive both relay restarts and Redis
// eviction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS deployments (
			id         TEXT PRIMARY KEY,
			html       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			size_bytes INTEGER NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create deployments table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, d *domain.Deployment) error {
	query := `
		INSERT INTO deployments (id, html, created_at, size_bytes)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query, d.ID, d.HTML, d.CreatedAt, d.SizeBytes)
	if err != nil {
		return fmt.Errorf("insert deployment: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Deployment, error) {
	query := `
		SELECT id, html, created_at, size_bytes
		FROM deployments
		WHERE id = $1
	`

	var d domain.Deployment
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.HTML,
		&d.CreatedAt,
		&d.SizeBytes,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrDeploymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query deployment: %w", err)
	}

	return &d, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
