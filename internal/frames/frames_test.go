package frames

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-events/internal/provider"
	"github.com/albapepper/scoracle-events/internal/table"
)

func snap(event string, match int64, loc interface{}, area ...float64) provider.TrackingSnapshot {
	return provider.TrackingSnapshot{EventID: event, MatchID: match, Location: loc, VisibleArea: area}
}

func TestCondense_OneRecordPerGroup(t *testing.T) {
	in := []provider.TrackingSnapshot{
		snap("e1", 1, "[1, 2]", 0, 0, 10, 10),
		snap("e2", 1, "[3, 4]", 5, 5),
		snap("e1", 1, "[5, 6]", 0, 0, 10, 10),
		snap("e1", 2, "[7, 8]", 1, 1),
		snap("e2", 1, []interface{}{9.0, 10.0}, 5, 5),
	}

	got, err := Condense(in)
	require.NoError(t, err)

	distinct := map[groupKey]bool{}
	for _, s := range in {
		distinct[groupKey{s.EventID, s.MatchID}] = true
	}
	require.Len(t, got, len(distinct))

	assert.Equal(t, "e1", got[0].EventID)
	assert.Equal(t, int64(1), got[0].MatchID)
	assert.Equal(t, []Entry{{Location: []float64{1, 2}}, {Location: []float64{5, 6}}}, got[0].FreezeFrame)

	assert.Equal(t, "e2", got[1].EventID)
	assert.Equal(t, []Entry{{Location: []float64{3, 4}}, {Location: []float64{9, 10}}}, got[1].FreezeFrame)

	assert.Equal(t, int64(2), got[2].MatchID)
	assert.Len(t, got[2].FreezeFrame, 1)
}

func TestCondense_FirstVisibleAreaWins(t *testing.T) {
	in := []provider.TrackingSnapshot{
		snap("e1", 1, "[1, 2]", 0, 0, 10, 10),
		snap("e1", 1, "[3, 4]", 99, 99),
	}

	got, err := Condense(in)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []float64{0, 0, 10, 10}, got[0].VisibleArea)
}

func TestCondense_FlagsCarried(t *testing.T) {
	in := []provider.TrackingSnapshot{{
		EventID: "e1", MatchID: 1, Location: []float64{60, 40},
		Teammate: true, Actor: true, Keeper: false,
	}}

	got, err := Condense(in)
	require.NoError(t, err)
	assert.Equal(t, Entry{Location: []float64{60, 40}, Teammate: true, Actor: true}, got[0].FreezeFrame[0])
}

func TestCondense_BadLocation(t *testing.T) {
	cases := []interface{}{
		"not json",
		42,
		[]interface{}{"x", 1.0},
	}
	for _, loc := range cases {
		_, err := Condense([]provider.TrackingSnapshot{snap("e1", 1, loc)})
		require.Error(t, err, "location %v", loc)
		assert.True(t, errors.Is(err, ErrBadLocation))
	}
}

func TestCondense_Empty(t *testing.T) {
	got, err := Condense(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTableRoundTrip(t *testing.T) {
	records := []Record{
		{
			EventID:     "e1",
			MatchID:     3895302,
			VisibleArea: []float64{0, 0, 120, 80},
			FreezeFrame: []Entry{
				{Location: []float64{102.5, 38.1}, Teammate: true, Actor: true},
				{Location: []float64{118, 40.2}, Keeper: true},
			},
		},
		{EventID: "e2", MatchID: 3895302},
	}

	tbl := ToTable(records)
	assert.Equal(t, []string{ColID, ColMatchID, ColVisibleArea, ColFreezeFrame}, tbl.Names())

	for _, f := range table.Formats {
		path := filepath.Join(t.TempDir(), "frames"+f.Ext())
		require.NoError(t, table.Write(tbl, path, f))
		back, err := table.Read(path, f)
		require.NoError(t, err)

		got, err := FromTable(back)
		require.NoError(t, err, "format %s", f)
		assert.Equal(t, records, got, "format %s", f)
	}
}

func TestFromTable_LegacyKey(t *testing.T) {
	tbl := table.New()
	tbl.Append(table.Row{
		ColLegacyID:    "e9",
		ColMatchID:     "7",
		ColFreezeFrame: `[{"location":[1,2],"teammate":true,"actor":false,"keeper":false}]`,
	})

	got, err := FromTable(tbl)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e9", got[0].EventID)
	assert.Equal(t, int64(7), got[0].MatchID)
	assert.Equal(t, []Entry{{Location: []float64{1, 2}, Teammate: true}}, got[0].FreezeFrame)
}
