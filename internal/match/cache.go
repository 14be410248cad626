package match

import (
	"context"
	"time"
)

// Cache is the fast lookup tier for resolved match records. Callers
// treat it as a pure optimization: every error degrades to a miss on
// read and is dropped on write.
type Cache interface {
	// Get returns the cached record, or nil, nil on a miss.
	Get(ctx context.Context, releaseID int64, trackIndex int) (*Record, error)

	// Set stores a record under the (release, track index) key with a TTL.
	Set(ctx context.Context, releaseID int64, trackIndex int, rec *Record, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, releaseID int64, trackIndex int) error

	// Stats reports cache occupancy for health reporting.
	Stats(ctx context.Context) (CacheStats, error)
}

// CacheStats reports cache tier occupancy.
type CacheStats struct {
	TotalKeys int `json:"total_keys"`
	MatchKeys int `json:"match_keys"`
}
