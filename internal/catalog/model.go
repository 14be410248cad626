// Package catalog holds the source-of-truth release and track shapes
// supplied by the marketplace catalog. Tracks are immutable inputs to
// audio matching; nothing in this package writes back to the catalog.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Release identifies a cataloged vinyl release.
type Release struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Track is a single track entry on a cataloged release.
type Track struct {
	Position string   `json:"position"`
	Title    string   `json:"title"`
	Duration string   `json:"duration"`
	Artists  []string `json:"artists,omitempty"`
}

// EffectiveArtist returns the track's own lead artist when present,
// falling back to the release-level artist.
func (t Track) EffectiveArtist(releaseArtist string) string {
	if len(t.Artists) > 0 && t.Artists[0] != "" {
		return t.Artists[0]
	}
	return releaseArtist
}

// DefaultDurationSeconds is assumed when a track's duration string is
// missing or unparsable.
const DefaultDurationSeconds = 180

// ParseDuration converts a catalog duration string ("M:SS" or "H:MM:SS")
// to seconds. Returns an error for empty or malformed input.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed duration %q", s)
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("malformed duration %q", s)
		}
		total = total*60 + n
	}
	return total, nil
}
