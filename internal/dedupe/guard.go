// Package dedupe keeps the same screenshot from being processed twice.
package dedupe

import (
	"context"
	"crypto/md5"
	"encoding/hex"

	"github.com/rs/zerolog"
)

// Store optionally persists content hashes across runs. Within a single run
// the guard's in-memory set is authoritative.
type Store interface {
	SeenImage(ctx context.Context, hash string) (bool, error)
	MarkImage(ctx context.Context, hash, imageFile string) error
}

// Guard is a content-addressed set scoped to one run. It is not safe for
// concurrent use; callers check images sequentially before fanning out
// extraction calls.
type Guard struct {
	enabled bool
	seen    map[string]struct{}
	store   Store
	logger  zerolog.Logger
}

// NewGuard builds a per-run guard. store may be nil for within-run-only
// deduplication, which is the default behavior.
func NewGuard(enabled bool, store Store, logger zerolog.Logger) *Guard {
	return &Guard{
		enabled: enabled,
		seen:    make(map[string]struct{}),
		store:   store,
		logger:  logger,
	}
}

// HashBytes returns the content hash used for duplicate detection.
func HashBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Seen reports whether the hash was already observed, either in this run or,
// when a store is configured, in a previous one. A store read failure is
// logged and treated as unseen so a flaky store never drops fresh images.
func (g *Guard) Seen(ctx context.Context, hash string) bool {
	if !g.enabled {
		return false
	}
	if _, ok := g.seen[hash]; ok {
		return true
	}
	if g.store != nil {
		seen, err := g.store.SeenImage(ctx, hash)
		if err != nil {
			g.logger.Warn().Err(err).Str("hash", hash).Msg("duplicate store read failed, treating as unseen")
			return false
		}
		return seen
	}
	return false
}

// Mark records the hash in this run's set.
func (g *Guard) Mark(hash string) {
	if !g.enabled {
		return
	}
	g.seen[hash] = struct{}{}
}

// Persist records the hash in the cross-run store, when one is configured.
// Callers invoke it only after an image was successfully processed, so a
// failed extraction stays eligible for retry on a later run. Unlike Mark it
// never touches the in-run set and is safe for concurrent use.
func (g *Guard) Persist(ctx context.Context, hash, imageFile string) {
	if !g.enabled || g.store == nil {
		return
	}
	if err := g.store.MarkImage(ctx, hash, imageFile); err != nil {
		g.logger.Warn().Err(err).Str("hash", hash).Msg("failed to persist image hash")
	}
}
