package locker

import (
	"context"
	"hash/fnv"
)

// DispatchKey guards every scheduler mutation: snapshot read, selection, write and
// cursor advance happen inside one WithLock(DispatchKey) call.
var DispatchKey = Key("shiftdesk:dispatch")

// AdvisoryLocker serialises critical sections. The Postgres implementation uses
// session advisory locks, so lock and unlock must occur on the same connection.
type AdvisoryLocker interface {
	WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error
}

// Key hashes a scope name to a stable int64 for pg_advisory_lock.
func Key(scope string) int64 {
	h := fnv.New64a()
	h.Write([]byte(scope))
	return int64(h.Sum64())
}
