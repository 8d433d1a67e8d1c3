package handler

import (
	"net/http"

	"github.com/albapepper/scoracle-events/internal/api/respond"
)

// matchIDParam is shared by every data route.
var matchIDParam = map[string]interface{}{
	"name":        "match_id",
	"in":          "query",
	"description": "Match to read; omit for every collected match",
	"schema":      map[string]interface{}{"type": "integer", "minimum": 1},
}

var filterParams = []interface{}{
	matchIDParam,
	map[string]interface{}{
		"name":        "type",
		"in":          "query",
		"description": "Event type name, case-insensitive",
		"schema":      map[string]interface{}{"type": "string"},
	},
	map[string]interface{}{
		"name":        "player",
		"in":          "query",
		"description": "Player name, case-insensitive",
		"schema":      map[string]interface{}{"type": "string"},
	},
}

func tableOperation(summary string, params []interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"summary": summary,
		"tags":    []string{"data"},
		"responses": map[string]interface{}{
			"200": map[string]interface{}{"description": "Table rows with their columns"},
			"304": map[string]interface{}{"description": "Not modified (ETag match)"},
			"400": map[string]interface{}{"description": "Invalid match_id"},
			"404": map[string]interface{}{"description": "Nothing collected for the request"},
			"422": map[string]interface{}{"description": "Collected files could not be read"},
		},
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return map[string]interface{}{"get": op}
}

// Docs serves the OpenAPI document rendered by the Swagger UI at /docs/.
func (h *Handler) Docs(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "Scoracle Events API",
			"version":     "1.0.0",
			"description": "Collected football events and 360 frames, read as " + string(h.loader.Format()),
		},
		"paths": map[string]interface{}{
			"/api/v1/matches": tableOperation("Collected match list", nil),
			"/api/v1/events":  tableOperation("Events, optionally filtered", filterParams),
			"/api/v1/frames":  tableOperation("Condensed 360 frames", []interface{}{matchIDParam}),
			"/api/v1/merged":  tableOperation("Events left-joined with 360 frames, with coverage", filterParams),
		},
	})
}
