package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portidem "github.com/alanyang/shiftdesk/internal/port/idempotency"
)

var _ portidem.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// New returns a store whose keys expire after ttl. Expired rows are ignored on
// lookup and overwritten on the next Store.
func New(pool *pgxpool.Pool, ttl time.Duration) *Repository {
	return &Repository{pool: pool, ttl: ttl}
}

// Check looks up an existing idempotency key. Returns the stored result JSON,
// whether the key exists, and any error.
func (r *Repository) Check(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
		SELECT result_jsonb FROM processed_operations
		WHERE idempotency_key = $1 AND created_at > $2`

	var result []byte
	err := r.pool.QueryRow(ctx, query, key, time.Now().UTC().Add(-r.ttl)).Scan(&result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("checking idempotency key: %w", err)
	}
	return result, true, nil
}

// Store records a processed operation keyed by the idempotency key.
func (r *Repository) Store(ctx context.Context, key, operation string, result []byte) error {
	query := `
		INSERT INTO processed_operations (idempotency_key, operation_type, result_jsonb, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (idempotency_key) DO UPDATE
			SET operation_type = EXCLUDED.operation_type,
				result_jsonb = EXCLUDED.result_jsonb,
				created_at = EXCLUDED.created_at
			WHERE processed_operations.created_at <= $4`

	_, err := r.pool.Exec(ctx, query, key, operation, result, time.Now().UTC().Add(-r.ttl))
	if err != nil {
		return fmt.Errorf("storing idempotency key: %w", err)
	}
	return nil
}
