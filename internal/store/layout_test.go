package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-events/internal/table"
)

func TestLayout_Paths(t *testing.T) {
	l := NewLayout("/data", "")

	assert.Equal(t, filepath.Join("/data", "leverkusen_matches.csv"), l.MatchesPath(table.CSV))
	assert.Equal(t, filepath.Join("/data", "events", "3895302.parquet"), l.EventPath(3895302, table.Parquet))
	assert.Equal(t, filepath.Join("/data", "frames360", "3895302.csv"), l.FramePath(3895302, table.CSV))
}

func TestLayout_EnsureAndList(t *testing.T) {
	l := NewLayout(filepath.Join(t.TempDir(), "root"), "m")
	require.NoError(t, l.Ensure())

	for _, name := range []string{"3895320.parquet", "3895302.parquet", "3895302.csv", ".3895330.parquet.123.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(l.EventsDir(), name), []byte("x"), 0o644))
	}

	got, err := l.ListEvents(table.Parquet)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(l.EventsDir(), "3895302.parquet"),
		filepath.Join(l.EventsDir(), "3895320.parquet"),
	}, got)

	frames, err := l.ListFrames(table.CSV)
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestLayout_ListMissingDir(t *testing.T) {
	l := NewLayout(t.TempDir(), "m")

	_, err := l.ListFrames(table.Parquet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, table.ErrNotFound))
}

func TestLayout_EnsureUnwritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := NewLayout(filepath.Join(file, "root"), "").Ensure()
	require.Error(t, err)
	assert.True(t, errors.Is(err, table.ErrIOFailure))
}

func TestMatchIDFromPath(t *testing.T) {
	assert.Equal(t, int64(3895302), MatchIDFromPath("/x/events/3895302.parquet"))
	assert.Equal(t, "friendly-1", MatchIDFromPath("friendly-1.csv"))
}
