package cache

import (
	"context"
	"log"
	"time"

	"github.com/passbi/gtfsgraph/internal/geo"
)

// SnapIndex wraps a geo.LocationIndex with a Redis-backed cache in front of
// it. A Redis outage never surfaces as an error here — it just falls
// through to the wrapped index and logs, since the cache is a pure
// speedup, never a correctness dependency (SPEC_FULL.md Domain Stack).
type SnapIndex struct {
	inner geo.LocationIndex
	ttl   time.Duration
}

// NewSnapIndex wraps inner with a Redis cache using the given TTL.
func NewSnapIndex(inner geo.LocationIndex, ttl time.Duration) *SnapIndex {
	return &SnapIndex{inner: inner, ttl: ttl}
}

// Closest implements geo.LocationIndex.
func (s *SnapIndex) Closest(lat, lon, maxDistanceM float64) geo.Snap {
	ctx := context.Background()
	key := SnapKey(lat, lon, maxDistanceM)

	if cached, err := GetSnap(ctx, key); err != nil {
		log.Printf("snap cache read failed, falling back to live lookup: %v", err)
	} else if cached != nil {
		return *cached
	}

	snap := s.inner.Closest(lat, lon, maxDistanceM)
	if err := SetSnap(ctx, key, snap, s.ttl); err != nil {
		log.Printf("snap cache write failed: %v", err)
	}
	return snap
}
