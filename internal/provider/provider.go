// Package provider defines the audio platform adapters that supply
// playable candidates for catalog tracks, plus the shared candidate
// shape and error taxonomy.
package provider

import (
	"context"
	"fmt"

	"github.com/needledrop/needledrop/internal/scoring"
)

// Platform uniquely identifies a supported audio platform.
type Platform string

// Known platforms. PlatformNone tags the sentinel "no match" record.
const (
	PlatformYouTube    Platform = "youtube"
	PlatformSoundCloud Platform = "soundcloud"
	PlatformNone       Platform = "none"
)

// AllPlatforms returns the searchable platforms in display order.
func AllPlatforms() []Platform {
	return []Platform{PlatformYouTube, PlatformSoundCloud}
}

// DisplayName returns a human-readable name for the platform.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformSoundCloud:
		return "SoundCloud"
	default:
		return string(p)
	}
}

// Provenance records how a candidate was obtained.
type Provenance string

// Candidate provenance tags.
const (
	ProvenanceSearch   Provenance = "search"   // explicit platform search
	ProvenanceEmbedded Provenance = "embedded" // link embedded in the catalog entry
)

// Candidate is a single external audio result considered as a possible
// match for a catalog track. Confidence and Tier are filled in by the
// match engine; adapters leave them zero.
type Candidate struct {
	Platform        Platform     `json:"platform"`
	ExternalID      string       `json:"external_id"`
	Title           string       `json:"title"`
	Artist          string       `json:"artist"`
	DurationSeconds int          `json:"duration_seconds"`
	URL             string       `json:"url"`
	ThumbnailURL    string       `json:"thumbnail_url,omitempty"`
	EmbedURL        string       `json:"embed_url,omitempty"`
	Provenance      Provenance   `json:"provenance"`
	Confidence      int          `json:"confidence"`
	Tier            scoring.Tier `json:"tier,omitempty"`
}

// SearchProvider is the interface all audio platform adapters implement.
type SearchProvider interface {
	// Name returns the unique platform identifier.
	Name() Platform

	// RequiresAuth returns true if this platform needs credentials to function.
	RequiresAuth() bool

	// Search queries the platform and returns zero or more candidates
	// with durations normalized to integer seconds.
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// ErrProviderUnavailable indicates a transient failure (rate-limited, timeout, server error).
type ErrProviderUnavailable struct {
	Platform Platform
	Cause    error
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("platform %s unavailable: %v", e.Platform, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the platform has no result for the requested ID.
type ErrNotFound struct {
	Platform Platform
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("platform %s: track %s not found", e.Platform, e.ID)
}

// ErrAuthRequired indicates the platform needs credentials but none are configured.
type ErrAuthRequired struct {
	Platform Platform
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("platform %s: credentials not configured", e.Platform)
}
