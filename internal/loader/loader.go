// Package loader reads collected tables back from disk and joins events with
// their 360 frames.
package loader

import (
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/frames"
	"github.com/albapepper/scoracle-events/internal/store"
	"github.com/albapepper/scoracle-events/internal/table"
)

var (
	// ErrNotFound is returned when a requested file or directory is absent.
	ErrNotFound = table.ErrNotFound
	// ErrEmptyResult is returned when files were found but none could be read.
	ErrEmptyResult = eris.New("loader: no usable files")
)

// AllMatches selects every stored match.
const AllMatches int64 = 0

// Loader reads tables from a storage layout in one format.
type Loader struct {
	layout store.Layout
	format table.Format
	logger *zap.Logger
}

// New creates a Loader. An empty format selects parquet.
func New(layout store.Layout, format table.Format, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if format == "" {
		format = table.Parquet
	}
	return &Loader{layout: layout, format: format, logger: logger}
}

// Format returns the format the loader reads.
func (l *Loader) Format() table.Format {
	return l.format
}

// LoadMatches reads the match list.
func (l *Loader) LoadMatches() (*table.Table, error) {
	t, err := table.Read(l.layout.MatchesPath(l.format), l.format)
	if err != nil {
		return nil, eris.Wrap(err, "load matches")
	}
	return t, nil
}

// LoadEvents reads the events of one match, or of every match when matchID is
// AllMatches. Rows are stamped with a match_id column.
func (l *Loader) LoadEvents(matchID int64) (*table.Table, error) {
	if matchID != AllMatches {
		return l.loadOne(l.layout.EventPath(matchID, l.format), matchID, nil)
	}
	paths, err := l.layout.ListEvents(l.format)
	if err != nil {
		return nil, eris.Wrap(err, "load events")
	}
	return l.loadAll("events", paths, nil)
}

// LoadFrames reads the condensed 360 frames of one match, or of every match
// when matchID is AllMatches. The legacy event_uuid key is renamed to id.
func (l *Loader) LoadFrames(matchID int64) (*table.Table, error) {
	if matchID != AllMatches {
		return l.loadOne(l.layout.FramePath(matchID, l.format), matchID, renameLegacyID)
	}
	paths, err := l.layout.ListFrames(l.format)
	if err != nil {
		return nil, eris.Wrap(err, "load frames")
	}
	return l.loadAll("frames", paths, renameLegacyID)
}

func renameLegacyID(t *table.Table) {
	if !t.Has(frames.ColID) {
		t.Rename(frames.ColLegacyID, frames.ColID)
	}
}

func (l *Loader) loadOne(path string, matchID int64, fix func(*table.Table)) (*table.Table, error) {
	t, err := table.Read(path, l.format)
	if err != nil {
		return nil, err
	}
	if fix != nil {
		fix(t)
	}
	t.Set(frames.ColMatchID, matchID)
	return t, nil
}

// loadAll reads every file in paths. Files that fail are logged and left out.
func (l *Loader) loadAll(what string, paths []string, fix func(*table.Table)) (*table.Table, error) {
	if len(paths) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "no %s files", what)
	}

	parts := make([]*table.Table, 0, len(paths))
	for _, path := range paths {
		t, err := table.Read(path, l.format)
		if err != nil {
			l.logger.Warn("Skipping unreadable file",
				zap.String("kind", what),
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		if fix != nil {
			fix(t)
		}
		t.Set(frames.ColMatchID, store.MatchIDFromPath(path))
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return nil, eris.Wrapf(ErrEmptyResult, "%d %s files, none readable", len(paths), what)
	}

	l.logger.Debug("Loaded files", zap.String("kind", what), zap.Int("files", len(parts)))
	return table.Concat(parts...), nil
}

// LoadMerged joins events with their 360 frames. Missing frames are not an
// error: the events come back unmerged.
func (l *Loader) LoadMerged(matchID int64) (*table.Table, Coverage, error) {
	events, err := l.LoadEvents(matchID)
	if err != nil {
		return nil, Coverage{}, err
	}

	fr, err := l.LoadFrames(matchID)
	if errors.Is(err, ErrNotFound) {
		l.logger.Info("No 360 data found, returning events only",
			zap.Int64("match_id", matchID),
			zap.Int("events", events.Len()),
		)
		return events, Coverage{Events: events.Len()}, nil
	}
	if err != nil {
		return nil, Coverage{}, err
	}

	merged, matched, err := leftJoin(events, fr, []string{frames.ColID, frames.ColMatchID})
	if err != nil {
		return nil, Coverage{}, err
	}
	cov := Coverage{Events: merged.Len(), WithFrames: matched}
	l.logger.Info(cov.String(), zap.Int64("match_id", matchID))
	return merged, cov, nil
}
