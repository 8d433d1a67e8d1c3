// Package collect downloads one team's season from a provider and writes the
// match list, per-match events and per-match condensed 360 frames to disk.
package collect

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/frames"
	"github.com/albapepper/scoracle-events/internal/provider"
	"github.com/albapepper/scoracle-events/internal/store"
	"github.com/albapepper/scoracle-events/internal/table"
)

// Options tune a Collector.
type Options struct {
	// Formats written for every table. Defaults to table.Formats.
	Formats []table.Format
	// CallTimeout bounds each provider call. Zero means no deadline beyond ctx.
	CallTimeout time.Duration
}

// Collector runs collection against a provider into a storage layout.
type Collector struct {
	provider provider.Provider
	layout   store.Layout
	opts     Options
	logger   *zap.Logger
}

// New creates a Collector.
func New(p provider.Provider, layout store.Layout, opts Options, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Formats) == 0 {
		opts.Formats = table.Formats
	}
	return &Collector{provider: p, layout: layout, opts: opts, logger: logger}
}

// Collect fetches every match of the competition season that team played in.
//
// Failing to fetch or write the match list or any match's events aborts the
// run. Problems with a match's 360 frames only skip that match's frames file;
// they are returned in Result.Skipped.
func (c *Collector) Collect(ctx context.Context, competitionID, seasonID int, team string) (Result, error) {
	var result Result

	if err := c.layout.Ensure(); err != nil {
		return result, err
	}

	c.logger.Info("Collecting season",
		zap.Int("competition_id", competitionID),
		zap.Int("season_id", seasonID),
		zap.String("team", team),
	)

	// 1. Match list
	var all []provider.Match
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		all, err = c.provider.Matches(ctx, competitionID, seasonID)
		return err
	})
	if err != nil {
		return result, eris.Wrap(err, "fetch matches")
	}
	result.MatchesFound = len(all)

	var kept []provider.Match
	for _, m := range all {
		if m.Involves(team) {
			kept = append(kept, m)
		}
	}
	result.MatchesKept = len(kept)

	if err := table.WriteAll(MatchesTable(kept), c.layout.MatchesBase(), c.opts.Formats...); err != nil {
		return result, eris.Wrap(err, "write match list")
	}
	c.logger.Info("Match list written",
		zap.Int("found", result.MatchesFound),
		zap.Int("kept", result.MatchesKept),
	)

	// 2. Per-match events and frames
	for i, m := range kept {
		c.logger.Info("Collecting match",
			zap.Int("n", i+1),
			zap.Int("total", len(kept)),
			zap.Int64("match_id", m.MatchID),
			zap.String("home", m.HomeTeam),
			zap.String("away", m.AwayTeam),
		)

		if err := c.collectEvents(ctx, m.MatchID); err != nil {
			return result, err
		}
		result.EventFiles++

		if reason, ok := c.collectFrames(ctx, m.MatchID); ok {
			result.FrameFiles++
		} else {
			result.AddSkip(m.MatchID, reason)
			c.logger.Warn("Skipped 360 frames",
				zap.Int64("match_id", m.MatchID),
				zap.String("reason", reason),
			)
		}
	}

	c.logger.Info("Collection done",
		zap.Int("events", result.EventFiles),
		zap.Int("frames", result.FrameFiles),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (c *Collector) collectEvents(ctx context.Context, matchID int64) error {
	var events []provider.Event
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		events, err = c.provider.Events(ctx, matchID)
		return err
	})
	if err != nil {
		return eris.Wrapf(err, "fetch events match=%d", matchID)
	}
	if err := table.WriteAll(EventsTable(events), c.layout.EventBase(matchID), c.opts.Formats...); err != nil {
		return eris.Wrapf(err, "write events match=%d", matchID)
	}
	return nil
}

// collectFrames writes the condensed frames of a match. On failure it returns
// the skip reason and false.
func (c *Collector) collectFrames(ctx context.Context, matchID int64) (string, bool) {
	var snapshots []provider.TrackingSnapshot
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		snapshots, err = c.provider.Frames(ctx, matchID)
		return err
	})
	if err != nil {
		return "fetch frames: " + err.Error(), false
	}
	if len(snapshots) == 0 {
		return ReasonNo360, false
	}

	records, err := frames.Condense(snapshots)
	if err != nil {
		return "condense frames: " + err.Error(), false
	}
	if err := c.writeFrames(frames.ToTable(records), matchID); err != nil {
		return "write frames: " + err.Error(), false
	}
	return "", true
}

// writeFrames writes every configured format of a match's frames. When one
// format fails the formats already written are removed, so a skipped match
// has no frames file at all.
func (c *Collector) writeFrames(t *table.Table, matchID int64) error {
	var written []string
	for _, f := range c.opts.Formats {
		path := c.layout.FramePath(matchID, f)
		if err := table.Write(t, path, f); err != nil {
			for _, w := range written {
				if rmErr := os.Remove(w); rmErr != nil && !os.IsNotExist(rmErr) {
					c.logger.Warn("Failed to remove partial frames file",
						zap.String("path", w),
						zap.Error(rmErr),
					)
				}
			}
			return err
		}
		written = append(written, path)
	}
	return nil
}

// call runs fn under the per-call deadline, if one is configured.
func (c *Collector) call(ctx context.Context, fn func(context.Context) error) error {
	if c.opts.CallTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()
	return fn(ctx)
}
