// Package cache provides the bounded key/value caches used for
// repository metadata and AI results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Cache is a concurrency-safe key/value store. Entries are immutable once
// written; a lost race simply overwrites with an equivalent value.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
}

// ContentKey derives a fixed-length key from a list of parts.
func ContentKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
