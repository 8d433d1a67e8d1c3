// Package store describes where collected tables live on disk.
//
//	<root>/<matches name>.{csv,parquet}
//	<root>/events/<match id>.{csv,parquet}
//	<root>/frames360/<match id>.{csv,parquet}
package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/albapepper/scoracle-events/internal/table"
)

const (
	// DefaultMatchesName is the base name of the match list file.
	DefaultMatchesName = "leverkusen_matches"

	eventsDir = "events"
	framesDir = "frames360"
)

// Layout is a storage root plus the naming rules below it.
type Layout struct {
	Root        string
	MatchesName string
}

// NewLayout returns a layout rooted at root. An empty matchesName selects
// DefaultMatchesName.
func NewLayout(root, matchesName string) Layout {
	if matchesName == "" {
		matchesName = DefaultMatchesName
	}
	return Layout{Root: root, MatchesName: matchesName}
}

// MatchesBase is the match list path without extension.
func (l Layout) MatchesBase() string {
	return filepath.Join(l.Root, l.MatchesName)
}

// MatchesPath is the match list path in format f.
func (l Layout) MatchesPath(f table.Format) string {
	return l.MatchesBase() + f.Ext()
}

// EventsDir holds one events file per match.
func (l Layout) EventsDir() string {
	return filepath.Join(l.Root, eventsDir)
}

// FramesDir holds one 360 frames file per match.
func (l Layout) FramesDir() string {
	return filepath.Join(l.Root, framesDir)
}

// EventBase is the events path of a match without extension.
func (l Layout) EventBase(matchID int64) string {
	return filepath.Join(l.EventsDir(), strconv.FormatInt(matchID, 10))
}

// FrameBase is the frames path of a match without extension.
func (l Layout) FrameBase(matchID int64) string {
	return filepath.Join(l.FramesDir(), strconv.FormatInt(matchID, 10))
}

// EventPath is the events path of a match in format f.
func (l Layout) EventPath(matchID int64, f table.Format) string {
	return l.EventBase(matchID) + f.Ext()
}

// FramePath is the frames path of a match in format f.
func (l Layout) FramePath(matchID int64, f table.Format) string {
	return l.FrameBase(matchID) + f.Ext()
}

// Ensure creates the root and both per-match directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.Root, l.EventsDir(), l.FramesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(table.ErrIOFailure, "create %s: %v", dir, err)
		}
	}
	return nil
}

// ListEvents returns the events files of format f in filename order.
func (l Layout) ListEvents(f table.Format) ([]string, error) {
	return list(l.EventsDir(), f)
}

// ListFrames returns the frames files of format f in filename order.
func (l Layout) ListFrames(f table.Format) ([]string, error) {
	return list(l.FramesDir(), f)
}

func list(dir string, f table.Format) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(table.ErrNotFound, "%s", dir)
		}
		return nil, eris.Wrapf(err, "list %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), f.Ext()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// MatchIDFromPath returns the match identifier encoded in a per-match file
// name: int64 when the stem is numeric, the stem itself otherwise.
func MatchIDFromPath(path string) interface{} {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if id, err := strconv.ParseInt(stem, 10, 64); err == nil {
		return id
	}
	return stem
}
