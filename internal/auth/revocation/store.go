// Package revocation tracks revoked token identifiers (jti). A token must be
// cryptographically valid, unexpired, AND absent from this store to pass any
// guard. Entries only need to outlive the token they revoke, so every write
// carries a TTL and the store stays bounded.
package revocation

import (
	"context"
	"time"
)

// MinTTL is the floor applied to revocation writes. Revoking an
// already-expired token still leaves a short-lived entry, which keeps
// Exists monotone around clock skew at the edges of a token's life.
const MinTTL = time.Minute

// Store is the revocation record store. Implementations must support
// concurrent Put and Exists calls; a Put followed by an Exists for the same
// jti must observe the entry.
type Store interface {
	// Put marks a jti revoked for at least ttl. Idempotent: re-revoking an
	// already-revoked jti never shortens its remaining lifetime.
	Put(ctx context.Context, jti string, ttl time.Duration) error

	// Exists reports whether the jti is currently revoked.
	Exists(ctx context.Context, jti string) (bool, error)
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTTL {
		return MinTTL
	}
	return ttl
}
