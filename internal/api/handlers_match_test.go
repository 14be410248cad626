package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/needledrop/needledrop/internal/cache"
	"github.com/needledrop/needledrop/internal/database"
	"github.com/needledrop/needledrop/internal/match"
	"github.com/needledrop/needledrop/internal/provider"
)

// stubProvider serves canned candidates for every query.
type stubProvider struct {
	platform   provider.Platform
	candidates []provider.Candidate
}

func (s *stubProvider) Name() provider.Platform { return s.platform }
func (s *stubProvider) RequiresAuth() bool      { return true }

func (s *stubProvider) Search(context.Context, string) ([]provider.Candidate, error) {
	return s.candidates, nil
}

func newTestHandler(t *testing.T, adapters ...provider.SearchProvider) http.Handler {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	registry := provider.NewRegistry()
	for _, a := range adapters {
		registry.Register(a)
	}

	logger := slog.New(slog.DiscardHandler)
	engine := match.NewEngine(registry, logger)
	orch := match.NewOrchestrator(cache.NewMemory(), match.NewStore(db), engine, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := NewRouter(RouterDeps{
		Orchestrator: orch,
		Engine:       engine,
		Registry:     registry,
		Logger:       logger,
	})
	return router.Handler(ctx)
}

func exactStub() *stubProvider {
	return &stubProvider{
		platform: provider.PlatformYouTube,
		candidates: []provider.Candidate{
			{
				Platform:        provider.PlatformYouTube,
				Title:           "Test Track",
				Artist:          "Test Artist",
				DurationSeconds: 225,
				URL:             "https://www.youtube.com/watch?v=exact",
			},
		},
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func resolveBody() map[string]any {
	return map[string]any{
		"admin_id":       "admin-1",
		"release_title":  "Test Album",
		"release_artist": "Test Artist",
		"track": map[string]any{
			"position": "A1",
			"title":    "Test Track",
			"duration": "3:45",
		},
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	w := doJSON(t, handler, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Status string       `json:"status"`
		Tiers  match.Health `json:"tiers"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	if !body.Tiers.CacheUp || !body.Tiers.StoreUp {
		t.Errorf("tiers = %+v", body.Tiers)
	}
}

func TestHandleListPlatforms(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	w := doJSON(t, handler, http.MethodGet, "/api/v1/platforms", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var platforms []struct {
		Name         string `json:"name"`
		RequiresAuth bool   `json:"requires_auth"`
	}
	if err := json.NewDecoder(w.Body).Decode(&platforms); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(platforms) != 1 || platforms[0].Name != "youtube" || !platforms[0].RequiresAuth {
		t.Errorf("platforms = %+v", platforms)
	}
}

func TestHandleResolve(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	w := doJSON(t, handler, http.MethodPost, "/api/v1/releases/100/tracks/0/resolve", resolveBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var rec match.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if rec.Source != match.SourceComputed {
		t.Errorf("Source = %q, want computed", rec.Source)
	}
	if rec.Confidence != 100 || !rec.Approved {
		t.Errorf("record = %+v", rec)
	}

	// Second resolve for the same key hits the cache tier.
	w = doJSON(t, handler, http.MethodPost, "/api/v1/releases/100/tracks/0/resolve", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second status = %d", w.Code)
	}
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decoding second response: %v", err)
	}
	if rec.Source != match.SourceCache {
		t.Errorf("second Source = %q, want cache", rec.Source)
	}
}

func TestHandleResolve_MissingInputs(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	w := doJSON(t, handler, http.MethodPost, "/api/v1/releases/100/tracks/0/resolve", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", w.Code, w.Body.String())
	}
}

func TestHandleResolve_BadPathParams(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	for _, path := range []string{
		"/api/v1/releases/abc/tracks/0/resolve",
		"/api/v1/releases/0/tracks/0/resolve",
		"/api/v1/releases/100/tracks/-1/resolve",
	} {
		w := doJSON(t, handler, http.MethodPost, path, resolveBody())
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, w.Code)
		}
	}
}

func TestHandleApproveRejectClear(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	w := doJSON(t, handler, http.MethodPost, "/api/v1/releases/100/tracks/0/approve", map[string]any{
		"platform":   "soundcloud",
		"url":        "https://soundcloud.com/x/manual",
		"confidence": 88,
		"admin_id":   "admin-2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body = %s", w.Code, w.Body.String())
	}

	var rec match.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decoding approve response: %v", err)
	}
	if rec.Platform != provider.PlatformSoundCloud || rec.VerifiedBy != "admin-2" {
		t.Errorf("record = %+v", rec)
	}

	w = doJSON(t, handler, http.MethodGet, "/api/v1/releases/100/matches", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listing struct {
		Matches []match.Record `json:"matches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if len(listing.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(listing.Matches))
	}

	w = doJSON(t, handler, http.MethodPost, "/api/v1/releases/100/tracks/0/reject", map[string]any{
		"admin_id": "admin-2",
		"replacement": map[string]any{
			"platform":   "youtube",
			"url":        "https://www.youtube.com/watch?v=better",
			"confidence": 97,
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decoding reject response: %v", err)
	}
	if rec.MatchURL != "https://www.youtube.com/watch?v=better" {
		t.Errorf("replacement record = %+v", rec)
	}

	w = doJSON(t, handler, http.MethodDelete, "/api/v1/releases/100/tracks/0/match", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}

	w = doJSON(t, handler, http.MethodGet, "/api/v1/releases/100/matches", nil)
	if err := json.NewDecoder(w.Body).Decode(&listing); err != nil {
		t.Fatalf("decoding listing after clear: %v", err)
	}
	if len(listing.Matches) != 0 {
		t.Errorf("expected no matches after clear, got %d", len(listing.Matches))
	}
}

func TestHandleApprove_Validation(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown platform", map[string]any{"platform": "spotify", "url": "x", "confidence": 50, "admin_id": "a"}},
		{"missing url", map[string]any{"platform": "youtube", "confidence": 50, "admin_id": "a"}},
		{"confidence out of range", map[string]any{"platform": "youtube", "url": "x", "confidence": 101, "admin_id": "a"}},
		{"missing admin", map[string]any{"platform": "youtube", "url": "x", "confidence": 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, handler, http.MethodPost, "/api/v1/releases/1/tracks/0/approve", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandlePreview(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	tracks := make([]map[string]any, 12)
	for i := range tracks {
		tracks[i] = map[string]any{
			"position": fmt.Sprintf("A%d", i+1),
			"title":    "Test Track",
			"duration": "3:45",
		}
	}

	w := doJSON(t, handler, http.MethodPost, "/api/v1/matches/preview", map[string]any{
		"release": map[string]any{"id": 100, "title": "Test Album", "artist": "Test Artist"},
		"tracks":  tracks,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Matches []match.TrackMatch `json:"matches"`
		Summary match.Summary      `json:"summary"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Matches) != match.MaxTracksPerRelease {
		t.Errorf("matches = %d, want cap %d", len(body.Matches), match.MaxTracksPerRelease)
	}
	if body.Summary.TotalTracks != 12 || body.Summary.ProcessedTracks != match.MaxTracksPerRelease {
		t.Errorf("summary = %+v", body.Summary)
	}

	// Preview never persists.
	w = doJSON(t, handler, http.MethodGet, "/api/v1/releases/100/matches", nil)
	var listing struct {
		Matches []match.Record `json:"matches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if len(listing.Matches) != 0 {
		t.Errorf("preview persisted %d matches", len(listing.Matches))
	}
}

func TestHandlePreview_Validation(t *testing.T) {
	handler := newTestHandler(t, exactStub())

	w := doJSON(t, handler, http.MethodPost, "/api/v1/matches/preview", map[string]any{
		"release": map[string]any{"id": 1, "title": "X"},
		"tracks":  []any{map[string]any{"title": "T"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing artist: status = %d, want 400", w.Code)
	}

	w = doJSON(t, handler, http.MethodPost, "/api/v1/matches/preview", map[string]any{
		"release": map[string]any{"id": 1, "title": "X", "artist": "A"},
		"tracks":  []any{},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty tracks: status = %d, want 400", w.Code)
	}
}
