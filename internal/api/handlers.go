package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/needledrop/needledrop/internal/version"
)

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	tiers := r.orchestrator.HealthCheck(req.Context())

	status := "ok"
	code := http.StatusOK
	if !tiers.StoreUp {
		// The store is the source of truth; without it the service is
		// degraded even though cached reads still work.
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"tiers":   tiers,
	})
}

func (r *Router) handleListPlatforms(w http.ResponseWriter, req *http.Request) {
	type platformInfo struct {
		Name         string `json:"name"`
		DisplayName  string `json:"display_name"`
		RequiresAuth bool   `json:"requires_auth"`
	}

	adapters := r.registry.All()
	out := make([]platformInfo, 0, len(adapters))
	for _, a := range adapters {
		out = append(out, platformInfo{
			Name:         string(a.Name()),
			DisplayName:  a.Name().DisplayName(),
			RequiresAuth: a.RequiresAuth(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
