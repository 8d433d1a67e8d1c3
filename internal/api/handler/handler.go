// Package handler provides HTTP handlers for all API endpoints.
// Handlers read collected tables through the loader and cache the encoded
// JSON; there is no service layer.
package handler

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/api/respond"
	"github.com/albapepper/scoracle-events/internal/cache"
	"github.com/albapepper/scoracle-events/internal/config"
	"github.com/albapepper/scoracle-events/internal/loader"
	"github.com/albapepper/scoracle-events/internal/table"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	loader *loader.Loader
	cache  *cache.Cache
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a Handler with shared dependencies.
func New(ld *loader.Loader, c *cache.Cache, cfg *config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{loader: ld, cache: c, cfg: cfg, logger: logger}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Scoracle Events API",
		"version": "1.0.0",
		"status":  "running",
		"format":  string(h.loader.Format()),
		"endpoints": []string{
			"/api/v1/matches",
			"/api/v1/events",
			"/api/v1/frames",
			"/api/v1/merged",
		},
	}
	if !h.cfg.IsProduction() {
		info["docs"] = "/docs/"
	}
	respond.WriteJSONObject(w, http.StatusOK, info)
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckStorage verifies the storage root and match list are present.
func (h *Handler) HealthCheckStorage(w http.ResponseWriter, r *http.Request) {
	layout := h.cfg.Layout()
	if _, err := os.Stat(layout.Root); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"storage":   "missing",
			"root":      layout.Root,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	_, err := os.Stat(layout.MatchesPath(h.loader.Format()))
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"storage":     "present",
		"root":        layout.Root,
		"match_list":  err == nil,
		"read_format": string(h.loader.Format()),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// tablePayload is the response body for every table endpoint.
type tablePayload struct {
	Count    int              `json:"count"`
	Columns  []columnPayload  `json:"columns"`
	Coverage *coveragePayload `json:"coverage,omitempty"`
	Rows     *table.Table     `json:"rows"`
}

type columnPayload struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type coveragePayload struct {
	Events     int     `json:"events"`
	WithFrames int     `json:"with_frames"`
	Percent    float64 `json:"percent"`
}

func newTablePayload(t *table.Table) tablePayload {
	cols := t.Columns()
	out := tablePayload{Count: t.Len(), Columns: make([]columnPayload, len(cols)), Rows: t}
	for i, c := range cols {
		out.Columns[i] = columnPayload{Name: c.Name, Kind: c.Kind.String()}
	}
	return out
}
