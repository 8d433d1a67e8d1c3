package statsbomb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-events/internal/frames"
	"github.com/albapepper/scoracle-events/internal/provider"
)

const matchesJSON = `[
  {
    "match_id": 3895302,
    "match_date": "2024-04-14",
    "kick_off": "17:30:00.000",
    "competition": {"competition_id": 9, "country_name": "Germany", "competition_name": "1. Bundesliga"},
    "season": {"season_id": 281, "season_name": "2023/2024"},
    "home_team": {"home_team_id": 904, "home_team_name": "Bayer Leverkusen"},
    "away_team": {"away_team_id": 179, "away_team_name": "Werder Bremen"},
    "home_score": 5,
    "away_score": 0,
    "match_status": "available",
    "match_status_360": "available",
    "match_week": 29,
    "competition_stage": {"id": 1, "name": "Regular Season"},
    "stadium": {"id": 4, "name": "BayArena"},
    "referee": null
  }
]`

const eventsJSON = `[
  {"id": "a1", "index": 1, "minute": 0, "type": {"id": 35, "name": "Starting XI"}},
  {"id": "a2", "index": 2, "minute": 3, "type": {"id": 16, "name": "Shot"},
   "player": {"id": 8221, "name": "Florian Wirtz"}, "location": [102.5, 38.1], "under_pressure": true}
]`

const framesJSON = `[
  {"event_uuid": "a2", "visible_area": [0, 0, 120, 0, 120, 80],
   "freeze_frame": [
     {"teammate": true, "actor": true, "keeper": false, "location": [102.5, 38.1]},
     {"teammate": false, "actor": false, "keeper": true, "location": [118.0, 40.2]}
   ]}
]`

func newTestHandler(t *testing.T, routes map[string]string) *FootballHandler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, "404: Not Found", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewFootballHandler(NewClient(srv.URL, 6000, 5*time.Second, nil), nil)
}

func TestMatches_Flattened(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/matches/9/281.json": matchesJSON})

	matches, err := h.Matches(context.Background(), 9, 281)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, int64(3895302), m.MatchID)
	assert.Equal(t, "1. Bundesliga", m.Competition)
	assert.Equal(t, "2023/2024", m.Season)
	assert.Equal(t, "Bayer Leverkusen", m.HomeTeam)
	assert.Equal(t, "Werder Bremen", m.AwayTeam)
	require.NotNil(t, m.HomeScore)
	assert.Equal(t, 5, *m.HomeScore)
	assert.Equal(t, "Regular Season", m.CompetitionStage)
	assert.Equal(t, "BayArena", m.Stadium)
	assert.Empty(t, m.Referee)
	assert.True(t, m.Involves("Bayer Leverkusen"))
}

func TestMatches_ServerError(t *testing.T) {
	h := newTestHandler(t, map[string]string{})

	_, err := h.Matches(context.Background(), 9, 281)
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrProviderFailure))
}

func TestEvents_DecodedCells(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/events/3895302.json": eventsJSON})

	events, err := h.Events(context.Background(), 3895302)
	require.NoError(t, err)
	require.Len(t, events, 2)

	shot := events[1]
	assert.Equal(t, "a2", shot.ID())
	assert.Equal(t, int64(3), shot["minute"])
	assert.Equal(t, true, shot["under_pressure"])
	assert.Equal(t, map[string]interface{}{"id": 16.0, "name": "Shot"}, shot["type"])
	assert.Equal(t, []interface{}{102.5, 38.1}, shot["location"])

	name, ok := provider.ExtractName(shot["player"])
	require.True(t, ok)
	assert.Equal(t, "Florian Wirtz", name)
}

func TestEvents_BadPayload(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/events/1.json": `{"not": "a list"}`})

	_, err := h.Events(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrProviderFailure))
}

func TestFrames_Flattened(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/three-sixty/3895302.json": framesJSON})

	snaps, err := h.Frames(context.Background(), 3895302)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	assert.Equal(t, "a2", snaps[0].EventID)
	assert.Equal(t, int64(3895302), snaps[0].MatchID)
	assert.Equal(t, "[102.5, 38.1]", snaps[0].Location)
	assert.True(t, snaps[0].Actor)
	assert.True(t, snaps[1].Keeper)
	assert.Equal(t, []float64{0, 0, 120, 0, 120, 80}, snaps[1].VisibleArea)
}

func TestFrames_EntryWithoutLocation(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/three-sixty/7.json": `[
	  {"event_uuid": "e1", "visible_area": [0, 0, 120, 80],
	   "freeze_frame": [
	     {"teammate": true, "actor": true, "keeper": false},
	     {"teammate": false, "actor": false, "keeper": true, "location": null},
	     {"teammate": false, "actor": false, "keeper": false, "location": [60.0, 40.0]}
	   ]}
	]`})

	snaps, err := h.Frames(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Nil(t, snaps[0].Location)
	assert.Nil(t, snaps[1].Location)
	assert.Equal(t, "[60.0, 40.0]", snaps[2].Location)

	records, err := frames.Condense(snaps)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].FreezeFrame, 3)
	assert.Nil(t, records[0].FreezeFrame[0].Location)
	assert.Equal(t, []float64{60, 40}, records[0].FreezeFrame[2].Location)
}

func TestFrames_MissingFileIsEmpty(t *testing.T) {
	h := newTestHandler(t, map[string]string{})

	snaps, err := h.Frames(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestClient_ContextCancelled(t *testing.T) {
	h := newTestHandler(t, map[string]string{"/events/1.json": eventsJSON})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Events(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrProviderFailure))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc"), 5))
	assert.Equal(t, "ab...", truncate([]byte("abcdef"), 2))
}
