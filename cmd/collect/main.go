// Command collect downloads one team's season of StatsBomb events and 360
// frames to local CSV and Parquet files.
//
// Usage:
//
//	scoracle-collect
//	scoracle-collect --competition 9 --season 281 --team "Bayer Leverkusen"
//	scoracle-collect --root ./data --format parquet
//	scoracle-collect inspect --match 3895302 --type shot --player "florian wirtz"
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/albapepper/scoracle-events/internal/collect"
	"github.com/albapepper/scoracle-events/internal/config"
	"github.com/albapepper/scoracle-events/internal/loader"
	"github.com/albapepper/scoracle-events/internal/provider/statsbomb"
	"github.com/albapepper/scoracle-events/internal/table"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// storageFlags are shared by every command that touches the storage root.
type storageFlags struct {
	root   string
	format string
}

func (f *storageFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.root, "root", "", "Storage root (overrides storage.root)")
	cmd.PersistentFlags().StringVar(&f.format, "format", "", "Read format for inspect, or the only format written by collect (csv, parquet)")
}

func (f *storageFlags) apply(cfg *config.Config) error {
	if f.root != "" {
		cfg.Storage.Root = f.root
	}
	if f.format != "" {
		if _, err := table.ParseFormat(f.format); err != nil {
			return err
		}
		cfg.Storage.ReadFormat = f.format
	}
	return cfg.Validate()
}

func newRootCmd() *cobra.Command {
	var (
		storage       storageFlags
		competitionID int
		seasonID      int
		team          string
	)

	root := &cobra.Command{
		Use:           "scoracle-collect",
		Short:         "Collect a team's season of StatsBomb events and 360 frames",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithConfig(cmd, &storage, func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
				if cmd.Flags().Changed("competition") {
					cfg.Collect.CompetitionID = competitionID
				}
				if cmd.Flags().Changed("season") {
					cfg.Collect.SeasonID = seasonID
				}
				if cmd.Flags().Changed("team") {
					cfg.Collect.Team = team
				}
				formats := table.Formats
				if storage.format != "" {
					formats = []table.Format{cfg.ReadFormat()}
				}
				return runCollect(ctx, cfg, formats, cmd.OutOrStdout(), logger)
			})
		},
	}
	storage.register(root)
	root.Flags().IntVar(&competitionID, "competition", 9, "StatsBomb competition ID")
	root.Flags().IntVar(&seasonID, "season", 281, "StatsBomb season ID")
	root.Flags().StringVar(&team, "team", "Bayer Leverkusen", "Team name, exactly as the provider spells it")

	root.AddCommand(inspectCmd(&storage))
	return root
}

// runWithConfig loads configuration and a logger, then runs fn with an
// interrupt-aware context.
func runWithConfig(cmd *cobra.Command, storage *storageFlags, fn func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return reportErr(cmd, eris.Wrap(err, "load config"))
	}
	if err := storage.apply(cfg); err != nil {
		return reportErr(cmd, err)
	}

	logger, err := config.NewLogger(cfg.Log, "scoracle-collect")
	if err != nil {
		return reportErr(cmd, err)
	}
	defer logger.Sync()

	if err := fn(ctx, cfg, logger); err != nil {
		logger.Error("command failed", zap.Error(err))
		return reportErr(cmd, err)
	}
	return nil
}

func reportErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	return err
}

// --------------------------------------------------------------------------
// collect (root command)
// --------------------------------------------------------------------------

func runCollect(ctx context.Context, cfg *config.Config, formats []table.Format, out io.Writer, logger *zap.Logger) error {
	client := statsbomb.NewClient(cfg.Provider.BaseURL, cfg.Provider.RequestsPerMinute, cfg.ProviderTimeout(), logger)
	handler := statsbomb.NewFootballHandler(client, logger)
	collector := collect.New(handler, cfg.Layout(), collect.Options{
		Formats:     formats,
		CallTimeout: cfg.CallTimeout(),
	}, logger)

	start := time.Now()
	result, err := collector.Collect(ctx, cfg.Collect.CompetitionID, cfg.Collect.SeasonID, cfg.Collect.Team)
	if err != nil {
		return err
	}
	logger.Info("Collection finished",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.String("root", cfg.Storage.Root),
	)
	fmt.Fprintln(out, result.Summary())
	return nil
}

// --------------------------------------------------------------------------
// inspect command
// --------------------------------------------------------------------------

func inspectCmd(storage *storageFlags) *cobra.Command {
	var (
		matchID int64
		opts    loader.FilterOptions
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load merged events and 360 frames, filter, and print counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithConfig(cmd, storage, func(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
				ld := loader.New(cfg.Layout(), cfg.ReadFormat(), logger)
				return runInspect(ld, matchID, opts, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().Int64Var(&matchID, "match", loader.AllMatches, "Match ID (0 = all matches)")
	cmd.Flags().StringVar(&opts.EventType, "type", "", "Event type, case-insensitive")
	cmd.Flags().StringVar(&opts.PlayerName, "player", "", "Player name, case-insensitive")
	return cmd
}

func runInspect(ld *loader.Loader, matchID int64, opts loader.FilterOptions, out io.Writer) error {
	matches, err := ld.LoadMatches()
	if err != nil {
		return err
	}
	merged, cov, err := ld.LoadMerged(matchID)
	if err != nil {
		return err
	}
	filtered := loader.Filter(merged, opts)

	fmt.Fprintf(out, "matches:  %d\n", matches.Len())
	fmt.Fprintf(out, "events:   %d\n", merged.Len())
	fmt.Fprintf(out, "coverage: %s\n", cov)
	fmt.Fprintf(out, "selected: %d\n", filtered.Len())
	return nil
}
