package match

import (
	"context"
	"log/slog"
	"time"

	"github.com/needledrop/needledrop/internal/catalog"
	"github.com/needledrop/needledrop/internal/provider"
)

// DefaultCacheTTL is how long resolved matches stay in the cache tier.
const DefaultCacheTTL = 24 * time.Hour

// ResolveRequest carries the inputs for a tiered match lookup. Title,
// Artist, and Track are only required when the lookup has to fall
// through to fresh computation.
type ResolveRequest struct {
	ReleaseID     int64
	TrackIndex    int
	AdminID       string
	ReleaseTitle  string
	ReleaseArtist string
	Track         *catalog.Track
}

// Health reports the availability of both match tiers.
type Health struct {
	CacheUp    bool        `json:"cache_up"`
	StoreUp    bool        `json:"store_up"`
	CacheStats *CacheStats `json:"cache_stats,omitempty"`
}

// Orchestrator ties the cache tier, the persistence tier, and the
// resolution engine into one tiered lookup: cache, then database, then
// fresh computation with write-back. The persistence tier is the
// source of truth; the cache only ever mirrors it.
type Orchestrator struct {
	cache    Cache
	store    *Store
	engine   *Engine
	logger   *slog.Logger
	cacheTTL time.Duration
}

// NewOrchestrator creates an Orchestrator with the default cache TTL.
func NewOrchestrator(cache Cache, store *Store, engine *Engine, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cache:    cache,
		store:    store,
		engine:   engine,
		logger:   logger.With(slog.String("component", "match-orchestrator")),
		cacheTTL: DefaultCacheTTL,
	}
}

// SetCacheTTL overrides the write-back TTL.
func (o *Orchestrator) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		o.cacheTTL = ttl
	}
}

// Resolve looks up the match for one (release, track index) pair,
// checking tiers in strict order: cache, database, fresh computation.
// Tier outages degrade to the next tier; the only surfaced error is a
// *MissingInputError when computation is needed but the request lacks
// release title, release artist, or the track payload.
func (o *Orchestrator) Resolve(ctx context.Context, req ResolveRequest) (*Record, error) {
	// Tier 1: cache. Errors are misses; the cache is never a hard dependency.
	if cached, err := o.cache.Get(ctx, req.ReleaseID, req.TrackIndex); err != nil {
		o.logger.Warn("cache read failed, treating as miss",
			slog.Int64("release_id", req.ReleaseID),
			slog.Int("track_index", req.TrackIndex),
			slog.String("error", err.Error()))
	} else if cached != nil {
		cached.Source = SourceCache
		return cached, nil
	}

	// Tier 2: database. Unavailability is treated as absence so an
	// outage never blocks computing a fresh answer.
	if stored, err := o.store.Get(ctx, req.ReleaseID, req.TrackIndex); err != nil {
		o.logger.Warn("store read failed, falling through to compute",
			slog.Int64("release_id", req.ReleaseID),
			slog.Int("track_index", req.TrackIndex),
			slog.String("error", err.Error()))
	} else if stored != nil {
		o.backfillCache(ctx, req.ReleaseID, req.TrackIndex, stored)
		stored.Source = SourceDatabase
		return stored, nil
	}

	// Tier 3: fresh computation.
	if err := req.validateForCompute(); err != nil {
		return nil, err
	}

	release := catalog.Release{
		ID:     req.ReleaseID,
		Title:  req.ReleaseTitle,
		Artist: req.ReleaseArtist,
	}
	matches, _ := o.engine.ResolveRelease(ctx, release, []catalog.Track{*req.Track})

	if len(matches) == 0 || len(matches[0].Candidates) == 0 {
		// A valid terminal state, not an error. Nothing is persisted so
		// a later attempt can still find a match.
		return &Record{
			ReleaseID:  req.ReleaseID,
			TrackIndex: req.TrackIndex,
			Platform:   provider.PlatformNone,
			MatchURL:   "",
			Confidence: 0,
			Approved:   false,
			Source:     SourceComputed,
		}, nil
	}

	// Auto-approval: take the highest-confidence candidate regardless of
	// tier so the consumer-facing feed always has something playable.
	// Admin review can demote it later.
	best := matches[0].Candidates[0]
	now := time.Now().UTC()
	rec := &Record{
		ReleaseID:  req.ReleaseID,
		TrackIndex: req.TrackIndex,
		Platform:   best.Platform,
		MatchURL:   best.URL,
		Confidence: best.Confidence,
		Approved:   true,
		VerifiedBy: req.AdminID,
		VerifiedAt: &now,
	}

	o.writeBack(ctx, rec)
	rec.Source = SourceComputed
	return rec, nil
}

// Approve unconditionally records a manual admin approval, overwriting
// any prior record for the key.
func (o *Orchestrator) Approve(ctx context.Context, releaseID int64, trackIndex int, platform provider.Platform, url string, confidence int, adminID string) (*Record, error) {
	now := time.Now().UTC()
	rec := &Record{
		ReleaseID:  releaseID,
		TrackIndex: trackIndex,
		Platform:   platform,
		MatchURL:   url,
		Confidence: confidence,
		Approved:   true,
		VerifiedBy: adminID,
		VerifiedAt: &now,
	}

	stored, err := o.store.Upsert(ctx, rec)
	if err != nil {
		return nil, err
	}

	o.fillCache(ctx, stored)
	stored.Source = SourceDatabase
	return stored, nil
}

// Reject clears the existing match from both tiers. When a replacement
// is supplied it is approved in its place; otherwise Reject returns nil.
func (o *Orchestrator) Reject(ctx context.Context, releaseID int64, trackIndex int, adminID string, better *Replacement) (*Record, error) {
	if err := o.Clear(ctx, releaseID, trackIndex); err != nil {
		return nil, err
	}
	if better == nil {
		return nil, nil
	}
	return o.Approve(ctx, releaseID, trackIndex, better.Platform, better.URL, better.Confidence, adminID)
}

// Clear removes the match from the cache tier and the persistence tier.
// Missing keys in either tier are not errors.
func (o *Orchestrator) Clear(ctx context.Context, releaseID int64, trackIndex int) error {
	if err := o.cache.Delete(ctx, releaseID, trackIndex); err != nil {
		o.logger.Warn("cache delete failed",
			slog.Int64("release_id", releaseID),
			slog.Int("track_index", trackIndex),
			slog.String("error", err.Error()))
	}
	if _, err := o.store.Delete(ctx, releaseID, trackIndex); err != nil {
		return err
	}
	return nil
}

// ListForRelease returns all persisted matches for a release.
func (o *Orchestrator) ListForRelease(ctx context.Context, releaseID int64) ([]Record, error) {
	return o.store.ListForRelease(ctx, releaseID)
}

// HealthCheck probes both tiers independently; one tier's failure never
// hides the other's status.
func (o *Orchestrator) HealthCheck(ctx context.Context) Health {
	h := Health{}

	if stats, err := o.cache.Stats(ctx); err == nil {
		h.CacheUp = true
		h.CacheStats = &stats
	}
	if err := o.store.Ping(ctx); err == nil {
		h.StoreUp = true
	}
	return h
}

// writeBack persists and caches a freshly computed approval. Failures
// are logged and swallowed: the read path never fails because a write
// side-effect did, but losing durability is worth a warning.
func (o *Orchestrator) writeBack(ctx context.Context, rec *Record) {
	stored, err := o.store.Upsert(ctx, rec)
	if err != nil {
		o.logger.Warn("match write-back to store failed, result is not durable",
			slog.Int64("release_id", rec.ReleaseID),
			slog.Int("track_index", rec.TrackIndex),
			slog.String("error", err.Error()))
	} else {
		*rec = *stored
	}
	o.fillCache(ctx, rec)
}

// backfillCache repopulates the cache after a database hit so the next
// lookup is served from the fast tier.
func (o *Orchestrator) backfillCache(ctx context.Context, releaseID int64, trackIndex int, rec *Record) {
	if err := o.cache.Set(ctx, releaseID, trackIndex, rec, o.cacheTTL); err != nil {
		o.logger.Warn("cache back-fill failed",
			slog.Int64("release_id", releaseID),
			slog.Int("track_index", trackIndex),
			slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) fillCache(ctx context.Context, rec *Record) {
	if err := o.cache.Set(ctx, rec.ReleaseID, rec.TrackIndex, rec, o.cacheTTL); err != nil {
		o.logger.Warn("cache write failed",
			slog.Int64("release_id", rec.ReleaseID),
			slog.Int("track_index", rec.TrackIndex),
			slog.String("error", err.Error()))
	}
}

func (req *ResolveRequest) validateForCompute() error {
	var missing []string
	if req.ReleaseTitle == "" {
		missing = append(missing, "release title")
	}
	if req.ReleaseArtist == "" {
		missing = append(missing, "release artist")
	}
	if req.Track == nil {
		missing = append(missing, "track")
	}
	if len(missing) > 0 {
		return &MissingInputError{Fields: missing}
	}
	return nil
}
