// Package scoring implements the confidence scoring used to rank
// external audio candidates against catalog tracks. All functions are
// pure and deterministic.
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"
)

// Tier classifies a confidence score.
type Tier string

// Confidence tiers.
const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Weights of the composite confidence score.
const (
	titleWeight    = 0.40
	artistWeight   = 0.35
	durationWeight = 0.25
)

// newLevenshtein returns a Levenshtein metric with unit costs.
// The package default substitution cost is 2, which is not classic
// edit distance.
func newLevenshtein() *metrics.Levenshtein {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	lev.ReplaceCost = 1
	return lev
}

// StringSimilarity scores how alike two strings are on a 0..100 scale
// using Levenshtein distance over the normalized (lowercased, trimmed)
// inputs. Two strings that normalize to empty are considered identical.
func StringSimilarity(a, b string) int {
	a = strings.TrimSpace(strings.ToLower(a))
	b = strings.TrimSpace(strings.ToLower(b))

	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}

	dist := newLevenshtein().Distance(a, b)
	return int(math.Round(100 * float64(maxLen-dist) / float64(maxLen)))
}

// DurationSimilarity scores how close a candidate's duration is to the
// original track's, in coarse buckets. The buckets deliberately bias
// toward near-identical masters rather than interpolating.
func DurationSimilarity(originalSeconds, candidateSeconds int) int {
	diff := originalSeconds - candidateSeconds
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff <= 2:
		return 100
	case diff <= 5:
		return 80
	case diff <= 10:
		return 60
	case diff <= 30:
		return 40
	default:
		return 20
	}
}

// Confidence computes the weighted composite score for a candidate
// against a catalog track: title 40%, artist 35%, duration 25%.
// The result is rounded and clamped to [0,100].
func Confidence(trackTitle, trackArtist string, trackSeconds int, candTitle, candArtist string, candSeconds int) int {
	title := StringSimilarity(trackTitle, candTitle)
	artist := StringSimilarity(trackArtist, candArtist)
	duration := DurationSimilarity(trackSeconds, candSeconds)

	score := int(math.Round(
		float64(title)*titleWeight +
			float64(artist)*artistWeight +
			float64(duration)*durationWeight))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Classify maps a confidence score to its tier. The boundaries are
// asymmetric: exactly 90 is medium, 91 is high.
func Classify(confidence int) Tier {
	switch {
	case confidence > 90:
		return TierHigh
	case confidence >= 70:
		return TierMedium
	default:
		return TierLow
	}
}
