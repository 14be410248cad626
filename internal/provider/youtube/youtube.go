// Package youtube implements the provider.SearchProvider interface for
// the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/needledrop/needledrop/internal/provider"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxResults     = 5
)

// Adapter implements provider.SearchProvider for YouTube.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	apiKey  string
	baseURL string
}

// New creates a YouTube adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, apiKey, logger, defaultBaseURL)
}

// NewWithBaseURL creates a YouTube adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("platform", "youtube")),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the platform identifier.
func (a *Adapter) Name() provider.Platform { return provider.PlatformYouTube }

// RequiresAuth returns whether this platform needs credentials.
func (a *Adapter) RequiresAuth() bool { return true }

// Search queries YouTube for videos matching the query and returns
// candidates with durations resolved via a follow-up videos.list call.
func (a *Adapter) Search(ctx context.Context, query string) ([]provider.Candidate, error) {
	if a.apiKey == "" {
		return nil, &provider.ErrAuthRequired{Platform: provider.PlatformYouTube}
	}

	if err := a.limiter.Wait(ctx, provider.PlatformYouTube); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Platform: provider.PlatformYouTube,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(maxResults)},
		"q":          {query},
		"key":        {a.apiKey},
	}
	body, err := a.doRequest(ctx, a.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	durations, err := a.fetchDurations(ctx, ids)
	if err != nil {
		// Durations are scoring input, not a hard requirement; degrade to zero.
		a.logger.Warn("fetching video durations failed", slog.String("error", err.Error()))
		durations = map[string]int{}
	}

	candidates := make([]provider.Candidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		id := item.ID.VideoID
		if id == "" {
			continue
		}
		thumb := item.Snippet.Thumbnails.Medium.URL
		if thumb == "" {
			thumb = item.Snippet.Thumbnails.Default.URL
		}
		candidates = append(candidates, provider.Candidate{
			Platform:        provider.PlatformYouTube,
			ExternalID:      id,
			Title:           item.Snippet.Title,
			Artist:          item.Snippet.ChannelTitle,
			DurationSeconds: durations[id],
			URL:             "https://www.youtube.com/watch?v=" + id,
			ThumbnailURL:    thumb,
			EmbedURL:        "https://www.youtube.com/embed/" + id,
			Provenance:      provider.ProvenanceSearch,
		})
	}
	return candidates, nil
}

// fetchDurations resolves video durations in seconds via videos.list.
func (a *Adapter) fetchDurations(ctx context.Context, ids []string) (map[string]int, error) {
	if len(ids) == 0 {
		return map[string]int{}, nil
	}

	if err := a.limiter.Wait(ctx, provider.PlatformYouTube); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{
		"part": {"contentDetails"},
		"id":   {strings.Join(ids, ",")},
		"key":  {a.apiKey},
	}
	body, err := a.doRequest(ctx, a.baseURL+"/videos?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing videos response: %w", err)
	}

	durations := make(map[string]int, len(resp.Items))
	for _, item := range resp.Items {
		durations[item.ID] = parseISODuration(item.ContentDetails.Duration)
	}
	return durations, nil
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
			Platform: provider.PlatformYouTube,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &provider.ErrAuthRequired{Platform: provider.PlatformYouTube}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.ErrProviderUnavailable{
			Platform: provider.PlatformYouTube,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts an ISO-8601 video duration ("PT3M45S") to
// seconds. Unparsable input yields 0.
func parseISODuration(s string) int {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	min, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	sec, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return h*3600 + min*60 + sec
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
