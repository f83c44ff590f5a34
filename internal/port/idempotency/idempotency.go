package idempotency

import "context"

// Store remembers the response of an already processed request keyed by the
// client-supplied Idempotency-Key header.
type Store interface {
	// Check returns the stored response body and whether the key was seen.
	Check(ctx context.Context, key string) ([]byte, bool, error)
	Store(ctx context.Context, key, operation string, result []byte) error
}
