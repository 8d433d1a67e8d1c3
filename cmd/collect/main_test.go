package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-events/internal/store"
	"github.com/albapepper/scoracle-events/internal/table"
)

const matchesJSON = `[
  {"match_id": 101, "match_date": "2023-08-19",
   "competition": {"competition_id": 9, "competition_name": "1. Bundesliga"},
   "season": {"season_id": 281, "season_name": "2023/2024"},
   "home_team": {"home_team_name": "Bayer Leverkusen"},
   "away_team": {"away_team_name": "RB Leipzig"}},
  {"match_id": 102, "match_date": "2023-08-25",
   "competition": {"competition_id": 9, "competition_name": "1. Bundesliga"},
   "season": {"season_id": 281, "season_name": "2023/2024"},
   "home_team": {"home_team_name": "Bayern Munich"},
   "away_team": {"away_team_name": "Augsburg"}}
]`

const eventsJSON = `[
  {"id": "e1", "index": 1, "type": {"id": 30, "name": "Pass"}, "player": {"id": 1, "name": "Granit Xhaka"}},
  {"id": "e2", "index": 2, "type": {"id": 16, "name": "Shot"}, "player": {"id": 2, "name": "Florian Wirtz"}}
]`

const framesJSON = `[
  {"event_uuid": "e2", "visible_area": [0, 0, 120, 80],
   "freeze_frame": [{"teammate": true, "actor": true, "keeper": false, "location": [100.0, 40.0]}]}
]`

func statsBombStub(t *testing.T) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/matches/9/281.json":   matchesJSON,
		"/events/101.json":      eventsJSON,
		"/three-sixty/101.json": framesJSON,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(b))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCollectThenInspect(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := statsBombStub(t)
	t.Setenv("SCORACLE_PROVIDER_BASE_URL", srv.URL)
	t.Setenv("SCORACLE_PROVIDER_REQUESTS_PER_MINUTE", "6000")
	t.Setenv("SCORACLE_LOG_LEVEL", "error")
	root := filepath.Join(t.TempDir(), "data")

	out, err := run(t, "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "matches=2 kept=1 events=1 frames=1 skipped=0")

	layout := store.NewLayout(root, "")
	for _, f := range table.Formats {
		assert.FileExists(t, layout.MatchesPath(f))
		assert.FileExists(t, layout.EventPath(101, f))
		assert.FileExists(t, layout.FramePath(101, f))
	}

	out, err = run(t, "inspect", "--root", root, "--match", "101", "--type", "SHOT")
	require.NoError(t, err)
	assert.Contains(t, out, "matches:  1")
	assert.Contains(t, out, "events:   2")
	assert.Contains(t, out, "coverage: 1 events (50.0%) have 360 data")
	assert.Contains(t, out, "selected: 1")

	out, err = run(t, "inspect", "--root", root, "--format", "csv", "--player", "granit xhaka")
	require.NoError(t, err)
	assert.Contains(t, out, "selected: 1")
}

func TestCollect_SingleFormat(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := statsBombStub(t)
	t.Setenv("SCORACLE_PROVIDER_BASE_URL", srv.URL)
	t.Setenv("SCORACLE_PROVIDER_REQUESTS_PER_MINUTE", "6000")
	t.Setenv("SCORACLE_LOG_LEVEL", "error")
	root := filepath.Join(t.TempDir(), "data")

	_, err := run(t, "--root", root, "--format", "csv")
	require.NoError(t, err)

	layout := store.NewLayout(root, "")
	assert.FileExists(t, layout.EventPath(101, table.CSV))
	assert.NoFileExists(t, layout.EventPath(101, table.Parquet))
}

func TestCollect_ProviderDown(t *testing.T) {
	t.Chdir(t.TempDir())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("SCORACLE_PROVIDER_BASE_URL", srv.URL)
	t.Setenv("SCORACLE_LOG_LEVEL", "error")

	_, err := run(t, "--root", t.TempDir())
	assert.Error(t, err)
}

func TestInspect_NothingCollected(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCORACLE_LOG_LEVEL", "error")

	_, err := run(t, "inspect", "--root", t.TempDir())
	assert.Error(t, err)
}

func TestInspect_BadFormat(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "inspect", "--format", "xlsx")
	assert.Error(t, err)
}
