package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/needledrop/needledrop/internal/catalog"
	"github.com/needledrop/needledrop/internal/match"
	"github.com/needledrop/needledrop/internal/provider"
)

// trackKey extracts and validates the {id} and {index} path parameters.
func trackKey(req *http.Request) (int64, int, error) {
	releaseID, err := strconv.ParseInt(req.PathValue("id"), 10, 64)
	if err != nil || releaseID < 1 {
		return 0, 0, errors.New("invalid release id")
	}
	trackIndex, err := strconv.Atoi(req.PathValue("index"))
	if err != nil || trackIndex < 0 {
		return 0, 0, errors.New("invalid track index")
	}
	return releaseID, trackIndex, nil
}

func parsePlatform(s string) (provider.Platform, bool) {
	p := provider.Platform(s)
	for _, known := range provider.AllPlatforms() {
		if p == known {
			return p, true
		}
	}
	return "", false
}

func (r *Router) handleListMatches(w http.ResponseWriter, req *http.Request) {
	releaseID, err := strconv.ParseInt(req.PathValue("id"), 10, 64)
	if err != nil || releaseID < 1 {
		writeError(w, http.StatusBadRequest, "invalid release id")
		return
	}

	records, err := r.orchestrator.ListForRelease(req.Context(), releaseID)
	if err != nil {
		r.logger.Error("failed to list matches", "release_id", releaseID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"release_id": releaseID,
		"matches":    records,
	})
}

func (r *Router) handleResolve(w http.ResponseWriter, req *http.Request) {
	releaseID, trackIndex, err := trackKey(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The body is optional: a cache or database hit needs nothing else.
	var body struct {
		AdminID       string         `json:"admin_id"`
		ReleaseTitle  string         `json:"release_title"`
		ReleaseArtist string         `json:"release_artist"`
		Track         *catalog.Track `json:"track"`
	}
	if req.Body != nil && req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	rec, err := r.orchestrator.Resolve(req.Context(), match.ResolveRequest{
		ReleaseID:     releaseID,
		TrackIndex:    trackIndex,
		AdminID:       body.AdminID,
		ReleaseTitle:  body.ReleaseTitle,
		ReleaseArtist: body.ReleaseArtist,
		Track:         body.Track,
	})
	if err != nil {
		var missing *match.MissingInputError
		if errors.As(err, &missing) {
			writeError(w, http.StatusUnprocessableEntity, missing.Error())
			return
		}
		r.logger.Error("resolve failed", "release_id", releaseID, "track_index", trackIndex, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (r *Router) handleApprove(w http.ResponseWriter, req *http.Request) {
	releaseID, trackIndex, err := trackKey(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Platform   string `json:"platform"`
		URL        string `json:"url"`
		Confidence int    `json:"confidence"`
		AdminID    string `json:"admin_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	platform, ok := parsePlatform(body.Platform)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown platform")
		return
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if body.Confidence < 0 || body.Confidence > 100 {
		writeError(w, http.StatusBadRequest, "confidence must be between 0 and 100")
		return
	}
	if body.AdminID == "" {
		writeError(w, http.StatusBadRequest, "admin_id is required")
		return
	}

	rec, err := r.orchestrator.Approve(req.Context(), releaseID, trackIndex,
		platform, body.URL, body.Confidence, body.AdminID)
	if err != nil {
		r.logger.Error("approve failed", "release_id", releaseID, "track_index", trackIndex, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (r *Router) handleReject(w http.ResponseWriter, req *http.Request) {
	releaseID, trackIndex, err := trackKey(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		AdminID     string `json:"admin_id"`
		Replacement *struct {
			Platform   string `json:"platform"`
			URL        string `json:"url"`
			Confidence int    `json:"confidence"`
		} `json:"replacement"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AdminID == "" {
		writeError(w, http.StatusBadRequest, "admin_id is required")
		return
	}

	var replacement *match.Replacement
	if body.Replacement != nil {
		platform, ok := parsePlatform(body.Replacement.Platform)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown replacement platform")
			return
		}
		if body.Replacement.URL == "" {
			writeError(w, http.StatusBadRequest, "replacement url is required")
			return
		}
		replacement = &match.Replacement{
			Platform:   platform,
			URL:        body.Replacement.URL,
			Confidence: body.Replacement.Confidence,
		}
	}

	rec, err := r.orchestrator.Reject(req.Context(), releaseID, trackIndex, body.AdminID, replacement)
	if err != nil {
		r.logger.Error("reject failed", "release_id", releaseID, "track_index", trackIndex, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (r *Router) handleClearMatch(w http.ResponseWriter, req *http.Request) {
	releaseID, trackIndex, err := trackKey(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.orchestrator.Clear(req.Context(), releaseID, trackIndex); err != nil {
		r.logger.Error("clear failed", "release_id", releaseID, "track_index", trackIndex, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handlePreview runs the resolution engine over a whole release payload
// without persisting anything. It backs the admin review panel.
func (r *Router) handlePreview(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Release catalog.Release `json:"release"`
		Tracks  []catalog.Track `json:"tracks"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Release.Artist == "" {
		writeError(w, http.StatusBadRequest, "release artist is required")
		return
	}
	if len(body.Tracks) == 0 {
		writeError(w, http.StatusBadRequest, "at least one track is required")
		return
	}

	matches, summary := r.engine.ResolveRelease(req.Context(), body.Release, body.Tracks)
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"summary": summary,
	})
}
