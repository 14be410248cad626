// Package match implements audio match resolution for catalog tracks:
// the scoring engine that ranks platform candidates, the durable match
// store, and the tiered cache/store/compute orchestrator.
package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/needledrop/needledrop/internal/provider"
)

// Source tags which tier produced a returned Record.
type Source string

// Record sources.
const (
	SourceCache    Source = "cache"
	SourceDatabase Source = "database"
	SourceComputed Source = "computed"
)

// Record is the resolved, reviewable match decision for one
// (release, track index) pair. Source is computed at read time and
// never persisted.
type Record struct {
	ID         string            `json:"id,omitempty"`
	ReleaseID  int64             `json:"release_id"`
	TrackIndex int               `json:"track_index"`
	Platform   provider.Platform `json:"platform"`
	MatchURL   string            `json:"match_url"`
	Confidence int               `json:"confidence"`
	Approved   bool              `json:"approved"`
	VerifiedBy string            `json:"verified_by,omitempty"`
	VerifiedAt *time.Time        `json:"verified_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Source     Source            `json:"source,omitempty"`
}

// NoMatch reports whether the record is the "no playable candidate
// found" sentinel.
func (r *Record) NoMatch() bool {
	return r.Platform == provider.PlatformNone
}

// TrackMatch is the resolution-time aggregate for one catalog track:
// every scored candidate plus the confidence-tier buckets. It exists
// only for the duration of a resolution call and is never persisted.
type TrackMatch struct {
	Position        string               `json:"position"`
	Title           string               `json:"title"`
	Artist          string               `json:"artist"`
	DurationSeconds int                  `json:"duration_seconds"`
	Candidates      []provider.Candidate `json:"candidates"`
	AutoApproved    []provider.Candidate `json:"auto_approved"`
	NeedsReview     []provider.Candidate `json:"needs_review"`
	Rejected        []provider.Candidate `json:"rejected"`
}

// Summary aggregates tier counts across one resolution batch.
type Summary struct {
	TotalTracks     int `json:"total_tracks"`
	ProcessedTracks int `json:"processed_tracks"`
	High            int `json:"high"`
	Medium          int `json:"medium"`
	Low             int `json:"low"`
}

// Replacement carries an admin-supplied substitute match for Reject.
type Replacement struct {
	Platform   provider.Platform `json:"platform"`
	URL        string            `json:"url"`
	Confidence int               `json:"confidence"`
}

// MissingInputError indicates a fresh computation was requested without
// the inputs it needs. It is the only tier-related error Resolve
// surfaces to callers.
type MissingInputError struct {
	Fields []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("cannot compute match without: %s", strings.Join(e.Fields, ", "))
}
