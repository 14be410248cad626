// Package soundcloud implements the provider.SearchProvider interface
// for the SoundCloud public API.
package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/needledrop/needledrop/internal/provider"
)

const (
	defaultBaseURL = "https://api-v2.soundcloud.com"
	searchLimit    = 5
)

// Adapter implements provider.SearchProvider for SoundCloud.
type Adapter struct {
	client   *http.Client
	limiter  *provider.RateLimiterMap
	logger   *slog.Logger
	clientID string
	baseURL  string
}

// New creates a SoundCloud adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, clientID string, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, clientID, logger, defaultBaseURL)
}

// NewWithBaseURL creates a SoundCloud adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, clientID string, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  limiter,
		logger:   logger.With(slog.String("platform", "soundcloud")),
		clientID: clientID,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the platform identifier.
func (a *Adapter) Name() provider.Platform { return provider.PlatformSoundCloud }

// RequiresAuth returns whether this platform needs credentials.
func (a *Adapter) RequiresAuth() bool { return true }

// Search queries SoundCloud for tracks matching the query. Durations
// arrive in milliseconds and are normalized to whole seconds.
func (a *Adapter) Search(ctx context.Context, query string) ([]provider.Candidate, error) {
	if a.clientID == "" {
		return nil, &provider.ErrAuthRequired{Platform: provider.PlatformSoundCloud}
	}

	if err := a.limiter.Wait(ctx, provider.PlatformSoundCloud); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Platform: provider.PlatformSoundCloud,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"q":         {query},
		"limit":     {strconv.Itoa(searchLimit)},
		"client_id": {a.clientID},
	}
	body, err := a.doRequest(ctx, a.baseURL+"/tracks?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var tracks []trackResult
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, fmt.Errorf("parsing track response: %w", err)
	}

	candidates := make([]provider.Candidate, 0, len(tracks))
	for _, tr := range tracks {
		id := strconv.FormatInt(tr.ID, 10)
		candidates = append(candidates, provider.Candidate{
			Platform:        provider.PlatformSoundCloud,
			ExternalID:      id,
			Title:           tr.Title,
			Artist:          tr.User.Username,
			DurationSeconds: int(tr.DurationMS / 1000),
			URL:             tr.PermalinkURL,
			ThumbnailURL:    tr.ArtworkURL,
			EmbedURL:        embedURL(tr.PermalinkURL),
			Provenance:      provider.ProvenanceSearch,
		})
	}
	return candidates, nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Platform: provider.PlatformSoundCloud,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &provider.ErrAuthRequired{Platform: provider.PlatformSoundCloud}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &provider.ErrNotFound{Platform: provider.PlatformSoundCloud, ID: req.URL.Path}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.ErrProviderUnavailable{
			Platform: provider.PlatformSoundCloud,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}

// embedURL builds the SoundCloud widget player URL for a track page.
func embedURL(permalink string) string {
	if permalink == "" {
		return ""
	}
	return "https://w.soundcloud.com/player/?url=" + url.QueryEscape(permalink)
}
