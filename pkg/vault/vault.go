package vault

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist yet. A first login
// has no blobs; callers must treat this as a normal outcome, distinct
// from corruption or unavailability.
var ErrNotFound = errors.New("blob not found")

// ErrUnavailable marks a durable read or write that failed for
// infrastructure reasons (disk full, permissions, quota).
var ErrUnavailable = errors.New("storage unavailable")

// Vault persists the two per-user blobs - the ledger snapshot and the
// profile JSON - surviving process restarts. Keys are namespaced per
// user; a save either fully succeeds or reports an error, never a
// partial blob.
type Vault interface {
	LoadSnapshot(ctx context.Context, userID string) ([]byte, error)
	SaveSnapshot(ctx context.Context, userID string, data []byte) error
	LoadProfile(ctx context.Context, userID string) ([]byte, error)
	SaveProfile(ctx context.Context, userID string, data []byte) error
}
