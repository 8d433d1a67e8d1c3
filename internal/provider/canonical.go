// Package provider defines the canonical shapes every data provider normalizes
// into. These types are the contract between provider handlers and the
// collector: handlers output them, the collector turns them into tables.
//
// Adding a new provider means implementing Provider. The collector and the
// on-disk layout never change.
package provider

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrProviderFailure marks any failed call to a remote provider.
var ErrProviderFailure = eris.New("provider: request failed")

// Provider is the remote source of match, event and 360 data.
type Provider interface {
	// Matches returns every match of a competition season.
	Matches(ctx context.Context, competitionID, seasonID int) ([]Match, error)
	// Events returns the event stream of one match.
	Events(ctx context.Context, matchID int64) ([]Event, error)
	// Frames returns one snapshot per visible player per event with 360 data.
	// An empty result means the match has no 360 data.
	Frames(ctx context.Context, matchID int64) ([]TrackingSnapshot, error)
}

// Match is the canonical, flattened match row.
type Match struct {
	MatchID          int64  `json:"match_id"`
	MatchDate        string `json:"match_date"` // "YYYY-MM-DD"
	KickOff          string `json:"kick_off,omitempty"`
	CompetitionID    int    `json:"competition_id"`
	Competition      string `json:"competition"`
	SeasonID         int    `json:"season_id"`
	Season           string `json:"season"`
	HomeTeam         string `json:"home_team"`
	AwayTeam         string `json:"away_team"`
	HomeScore        *int   `json:"home_score,omitempty"`
	AwayScore        *int   `json:"away_score,omitempty"`
	MatchStatus      string `json:"match_status,omitempty"`
	MatchStatus360   string `json:"match_status_360,omitempty"`
	MatchWeek        *int   `json:"match_week,omitempty"`
	CompetitionStage string `json:"competition_stage,omitempty"`
	Stadium          string `json:"stadium,omitempty"`
	Referee          string `json:"referee,omitempty"`
}

// Involves reports whether team played in the match, home or away.
func (m Match) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// Event is one provider event with its fields decoded to table cells: scalars
// as string/int64/float64/bool, sub-payloads (type, player, location, pass,
// shot, ...) as generic maps and slices. Absent sub-payloads are absent keys.
type Event map[string]interface{}

// ID returns the event identifier, or "" when missing.
func (e Event) ID() string {
	id, _ := e["id"].(string)
	return id
}

// TrackingSnapshot is one player's position at the moment of an event.
//
// Location is left as the provider delivered it: JSON text such as "[61.2,
// 40.1]" or an already decoded sequence. VisibleArea is shared by every
// snapshot of the same event.
type TrackingSnapshot struct {
	EventID     string
	MatchID     int64
	Location    interface{}
	Teammate    bool
	Actor       bool
	Keeper      bool
	VisibleArea []float64
}
