package statsbomb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/provider"
	"github.com/albapepper/scoracle-events/internal/table"
)

// FootballHandler fetches and normalizes football data from StatsBomb open data.
type FootballHandler struct {
	client *Client
	logger *zap.Logger
}

// NewFootballHandler creates a football handler on top of client.
func NewFootballHandler(client *Client, logger *zap.Logger) *FootballHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FootballHandler{client: client, logger: logger}
}

var _ provider.Provider = (*FootballHandler)(nil)

// --------------------------------------------------------------------------
// Matches
// --------------------------------------------------------------------------

type sbNamed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type sbMatch struct {
	MatchID     int64  `json:"match_id"`
	MatchDate   string `json:"match_date"`
	KickOff     string `json:"kick_off"`
	Competition struct {
		ID   int    `json:"competition_id"`
		Name string `json:"competition_name"`
	} `json:"competition"`
	Season struct {
		ID   int    `json:"season_id"`
		Name string `json:"season_name"`
	} `json:"season"`
	HomeTeam struct {
		Name string `json:"home_team_name"`
	} `json:"home_team"`
	AwayTeam struct {
		Name string `json:"away_team_name"`
	} `json:"away_team"`
	HomeScore        *int     `json:"home_score"`
	AwayScore        *int     `json:"away_score"`
	MatchStatus      string   `json:"match_status"`
	MatchStatus360   string   `json:"match_status_360"`
	MatchWeek        *int     `json:"match_week"`
	CompetitionStage *sbNamed `json:"competition_stage"`
	Stadium          *sbNamed `json:"stadium"`
	Referee          *sbNamed `json:"referee"`
}

// Matches returns every match of a competition season, flattened.
func (h *FootballHandler) Matches(ctx context.Context, competitionID, seasonID int) ([]provider.Match, error) {
	body, _, err := h.client.get(ctx, fmt.Sprintf("/matches/%d/%d.json", competitionID, seasonID))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch matches competition=%d season=%d", competitionID, seasonID)
	}

	var raw []sbMatch
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrapf(provider.ErrProviderFailure, "decode matches: %v", err)
	}

	matches := make([]provider.Match, 0, len(raw))
	for _, m := range raw {
		matches = append(matches, provider.Match{
			MatchID:          m.MatchID,
			MatchDate:        m.MatchDate,
			KickOff:          m.KickOff,
			CompetitionID:    m.Competition.ID,
			Competition:      m.Competition.Name,
			SeasonID:         m.Season.ID,
			Season:           m.Season.Name,
			HomeTeam:         m.HomeTeam.Name,
			AwayTeam:         m.AwayTeam.Name,
			HomeScore:        m.HomeScore,
			AwayScore:        m.AwayScore,
			MatchStatus:      m.MatchStatus,
			MatchStatus360:   m.MatchStatus360,
			MatchWeek:        m.MatchWeek,
			CompetitionStage: nameOf(m.CompetitionStage),
			Stadium:          nameOf(m.Stadium),
			Referee:          nameOf(m.Referee),
		})
	}

	h.logger.Debug("statsbomb: matches",
		zap.Int("competition_id", competitionID),
		zap.Int("season_id", seasonID),
		zap.Int("count", len(matches)),
	)
	return matches, nil
}

func nameOf(n *sbNamed) string {
	if n == nil {
		return ""
	}
	return n.Name
}

// --------------------------------------------------------------------------
// Events
// --------------------------------------------------------------------------

// Events returns the event stream of one match. Every top-level field is kept;
// sub-objects stay nested.
func (h *FootballHandler) Events(ctx context.Context, matchID int64) ([]provider.Event, error) {
	body, _, err := h.client.get(ctx, fmt.Sprintf("/events/%d.json", matchID))
	if err != nil {
		return nil, eris.Wrapf(err, "fetch events match=%d", matchID)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrapf(provider.ErrProviderFailure, "decode events match=%d: %v", matchID, err)
	}

	events := make([]provider.Event, 0, len(raw))
	for i, fields := range raw {
		ev := make(provider.Event, len(fields))
		for key, val := range fields {
			cell, err := table.DecodeValue(val)
			if err != nil {
				return nil, eris.Wrapf(provider.ErrProviderFailure,
					"decode event %d field %q match=%d: %v", i, key, matchID, err)
			}
			ev[key] = cell
		}
		events = append(events, ev)
	}
	return events, nil
}

// --------------------------------------------------------------------------
// 360 frames
// --------------------------------------------------------------------------

type sbFrame struct {
	EventUUID   string    `json:"event_uuid"`
	VisibleArea []float64 `json:"visible_area"`
	FreezeFrame []struct {
		Teammate bool            `json:"teammate"`
		Actor    bool            `json:"actor"`
		Keeper   bool            `json:"keeper"`
		Location json.RawMessage `json:"location"`
	} `json:"freeze_frame"`
}

// Frames returns the 360 data of a match flattened to one snapshot per visible
// player. Locations are handed back as JSON text. A match without a 360 file
// yields an empty result.
func (h *FootballHandler) Frames(ctx context.Context, matchID int64) ([]provider.TrackingSnapshot, error) {
	body, status, err := h.client.get(ctx, fmt.Sprintf("/three-sixty/%d.json", matchID))
	if status == http.StatusNotFound {
		h.logger.Debug("statsbomb: no 360 file", zap.Int64("match_id", matchID))
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetch 360 frames match=%d", matchID)
	}

	var raw []sbFrame
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrapf(provider.ErrProviderFailure, "decode 360 frames match=%d: %v", matchID, err)
	}

	var snapshots []provider.TrackingSnapshot
	for _, f := range raw {
		for _, p := range f.FreezeFrame {
			snapshots = append(snapshots, provider.TrackingSnapshot{
				EventID:     f.EventUUID,
				MatchID:     matchID,
				Location:    locationText(p.Location),
				Teammate:    p.Teammate,
				Actor:       p.Actor,
				Keeper:      p.Keeper,
				VisibleArea: f.VisibleArea,
			})
		}
	}
	return snapshots, nil
}

// locationText returns the raw location as JSON text, or nil when the entry has
// no location.
func locationText(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}
