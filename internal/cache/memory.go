// Package cache provides the fast lookup tier for resolved matches.
// The in-memory implementation satisfies match.Cache; a networked
// store can be substituted without touching the orchestrator.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/needledrop/needledrop/internal/match"
)

const matchKeyPrefix = "match:"

// matchKey builds the canonical cache key for a (release, track index) pair.
func matchKey(releaseID int64, trackIndex int) string {
	return fmt.Sprintf("%s%d:%d", matchKeyPrefix, releaseID, trackIndex)
}

type entry struct {
	record    match.Record
	expiresAt time.Time
}

// Memory is an in-process TTL cache of match records. Expired entries
// are dropped lazily on read and swept by a janitor goroutine.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
	}
}

// Get returns the cached record for the key, or nil, nil on a miss.
func (m *Memory) Get(_ context.Context, releaseID int64, trackIndex int) (*match.Record, error) {
	key := matchKey(releaseID, trackIndex)

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}

	rec := e.record
	return &rec, nil
}

// Set stores a copy of the record under the key with the given TTL.
func (m *Memory) Set(_ context.Context, releaseID int64, trackIndex int, rec *match.Record, ttl time.Duration) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	if ttl <= 0 {
		ttl = match.DefaultCacheTTL
	}

	stored := *rec
	stored.Source = ""

	m.mu.Lock()
	m.entries[matchKey(releaseID, trackIndex)] = entry{
		record:    stored,
		expiresAt: time.Now().Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, releaseID int64, trackIndex int) error {
	m.mu.Lock()
	delete(m.entries, matchKey(releaseID, trackIndex))
	m.mu.Unlock()
	return nil
}

// Stats reports current cache occupancy, excluding expired entries.
func (m *Memory) Stats(_ context.Context) (match.CacheStats, error) {
	now := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := match.CacheStats{}
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			continue
		}
		stats.TotalKeys++
		if strings.HasPrefix(key, matchKeyPrefix) {
			stats.MatchKeys++
		}
	}
	return stats, nil
}

// StartJanitor sweeps expired entries at the given interval until the
// context is canceled.
func (m *Memory) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
