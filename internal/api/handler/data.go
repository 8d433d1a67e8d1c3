package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/api/respond"
	"github.com/albapepper/scoracle-events/internal/cache"
	"github.com/albapepper/scoracle-events/internal/loader"
)

// GetMatches returns the stored match list.
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "matches", cache.TTLMatches, func() (interface{}, error) {
		t, err := h.loader.LoadMatches()
		if err != nil {
			return nil, err
		}
		return newTablePayload(t), nil
	})
}

// GetEvents returns events of one match (match_id) or of all matches,
// optionally filtered by type and player name.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	opts := filterOptions(r)

	key := fmt.Sprintf("events:%d:%s:%s", matchID, strings.ToLower(opts.EventType), strings.ToLower(opts.PlayerName))
	h.serveCached(w, r, key, cache.TTLTables, func() (interface{}, error) {
		t, err := h.loader.LoadEvents(matchID)
		if err != nil {
			return nil, err
		}
		return newTablePayload(loader.Filter(t, opts)), nil
	})
}

// GetFrames returns condensed 360 frames of one match or of all matches.
func (h *Handler) GetFrames(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("frames:%d", matchID)
	h.serveCached(w, r, key, cache.TTLTables, func() (interface{}, error) {
		t, err := h.loader.LoadFrames(matchID)
		if err != nil {
			return nil, err
		}
		return newTablePayload(t), nil
	})
}

// GetMerged returns events joined with their 360 frames, filtered like
// GetEvents, with the coverage of the unfiltered join.
func (h *Handler) GetMerged(w http.ResponseWriter, r *http.Request) {
	matchID, ok := parseMatchID(w, r)
	if !ok {
		return
	}
	opts := filterOptions(r)

	key := fmt.Sprintf("merged:%d:%s:%s", matchID, strings.ToLower(opts.EventType), strings.ToLower(opts.PlayerName))
	h.serveCached(w, r, key, cache.TTLTables, func() (interface{}, error) {
		t, cov, err := h.loader.LoadMerged(matchID)
		if err != nil {
			return nil, err
		}
		payload := newTablePayload(loader.Filter(t, opts))
		payload.Coverage = &coveragePayload{
			Events:     cov.Events,
			WithFrames: cov.WithFrames,
			Percent:    cov.Percent(),
		}
		return payload, nil
	})
}

// serveCached answers from the cache when possible, otherwise builds, encodes
// and stores the response.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, build func() (interface{}, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := build()
	if err != nil {
		h.logger.Warn("load failed", zap.String("key", key), zap.Error(err))
		respond.WriteLoadError(w, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode failed", zap.String("key", key), zap.Error(err))
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "Failed to encode response")
		return
	}

	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

func parseMatchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	s := r.URL.Query().Get("match_id")
	if s == "" {
		return loader.AllMatches, true
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MATCH_ID", "match_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func filterOptions(r *http.Request) loader.FilterOptions {
	q := r.URL.Query()
	return loader.FilterOptions{
		EventType:  strings.TrimSpace(q.Get("type")),
		PlayerName: strings.TrimSpace(q.Get("player")),
	}
}
