package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/needledrop/needledrop/internal/catalog"
	"github.com/needledrop/needledrop/internal/provider"
	"github.com/needledrop/needledrop/internal/scoring"
)

// MaxTracksPerRelease caps how many tracks a single resolution call
// will process. Each track fans out one search per platform, so the
// cap bounds external API spend per request.
const MaxTracksPerRelease = 10

// Engine resolves catalog tracks to scored platform candidates.
type Engine struct {
	registry *provider.Registry
	logger   *slog.Logger
}

// NewEngine creates an Engine over the given adapter registry.
func NewEngine(registry *provider.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		registry: registry,
		logger:   logger.With(slog.String("component", "match-engine")),
	}
}

// ResolveRelease produces one TrackMatch per track, up to
// MaxTracksPerRelease. Individual track or platform failures degrade
// locally; the batch always returns a result for every track attempted.
func (e *Engine) ResolveRelease(ctx context.Context, release catalog.Release, tracks []catalog.Track) ([]TrackMatch, Summary) {
	summary := Summary{TotalTracks: len(tracks)}

	if len(tracks) > MaxTracksPerRelease {
		e.logger.Info("capping release track list",
			slog.Int64("release_id", release.ID),
			slog.Int("total", len(tracks)),
			slog.Int("cap", MaxTracksPerRelease))
		tracks = tracks[:MaxTracksPerRelease]
	}

	matches := make([]TrackMatch, 0, len(tracks))
	for _, track := range tracks {
		tm := e.resolveTrack(ctx, release, track)
		matches = append(matches, tm)

		summary.ProcessedTracks++
		summary.High += len(tm.AutoApproved)
		summary.Medium += len(tm.NeedsReview)
		summary.Low += len(tm.Rejected)
	}

	return matches, summary
}

// resolveTrack searches every platform for one track, scores the merged
// candidates, and partitions them by confidence tier.
func (e *Engine) resolveTrack(ctx context.Context, release catalog.Release, track catalog.Track) TrackMatch {
	durationSeconds, err := catalog.ParseDuration(track.Duration)
	if err != nil {
		e.logger.Warn("unparsable track duration, using default",
			slog.String("position", track.Position),
			slog.String("duration", track.Duration),
			slog.Int("default", catalog.DefaultDurationSeconds))
		durationSeconds = catalog.DefaultDurationSeconds
	}

	artist := track.EffectiveArtist(release.Artist)
	query := fmt.Sprintf("%s - %s", artist, track.Title)

	candidates := e.searchAll(ctx, query)

	for i := range candidates {
		c := &candidates[i]
		c.Confidence = scoring.Confidence(
			track.Title, artist, durationSeconds,
			c.Title, c.Artist, c.DurationSeconds)
		c.Tier = scoring.Classify(c.Confidence)
	}

	// Stable sort keeps platform-arrival order as the tiebreak.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	tm := TrackMatch{
		Position:        track.Position,
		Title:           track.Title,
		Artist:          artist,
		DurationSeconds: durationSeconds,
		Candidates:      candidates,
	}
	for _, c := range candidates {
		switch c.Tier {
		case scoring.TierHigh:
			tm.AutoApproved = append(tm.AutoApproved, c)
		case scoring.TierMedium:
			tm.NeedsReview = append(tm.NeedsReview, c)
		default:
			tm.Rejected = append(tm.Rejected, c)
		}
	}
	return tm
}

// searchAll fans the query out to every registered platform in
// parallel. A platform failure yields an empty list for that platform
// and never cancels the others.
func (e *Engine) searchAll(ctx context.Context, query string) []provider.Candidate {
	adapters := e.registry.All()
	results := make([][]provider.Candidate, len(adapters))

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter provider.SearchProvider) {
			defer wg.Done()
			candidates, err := adapter.Search(ctx, query)
			if err != nil {
				e.logger.Warn("platform search failed",
					slog.String("platform", string(adapter.Name())),
					slog.String("query", query),
					slog.String("error", err.Error()))
				return
			}
			results[i] = candidates
		}(i, adapter)
	}
	wg.Wait()

	var merged []provider.Candidate
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}
