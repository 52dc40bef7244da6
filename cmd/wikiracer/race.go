package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/wikiracer/internal/app"
	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/racer"
	"github.com/user/wikiracer/internal/usecase"
	"github.com/user/wikiracer/pkg/config"
	"github.com/user/wikiracer/pkg/logger"
	"go.uber.org/zap"
)

type raceOptions struct {
	maxDepth int
	workers  int
	fetcher  string
	verbose  bool
}

func newRaceCmd() *cobra.Command {
	var opts raceOptions

	cmd := &cobra.Command{
		Use:   "race <start> <end>",
		Short: "Search for a path from start to end",
		Long: `Search outward from the start article, level by level, until the end
article is linked or the depth limit is reached. The path printed has the
fewest hops possible within that limit.

Site settings (SITE_BASE_URL, ARTICLE_PREFIX, ...) are read from the
environment or a .env file; flags override the search settings.`,
		Example: `  wikiracer race https://en.wikipedia.org/wiki/Go_(programming_language) https://en.wikipedia.org/wiki/Unix

  # Render pages in headless Chrome and go deeper
  wikiracer race --fetcher chromedp --max-depth 6 <start> <end>`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runRace(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts.verbose, args[0], args[1])
		},
	}

	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum number of hops (default MAX_DEPTH)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent page fetches per level (default FETCH_WORKERS)")
	cmd.Flags().StringVar(&opts.fetcher, "fetcher", "", "page fetcher: http|chromedp (default FETCHER_MODE)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log search progress to stderr")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (o raceOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth = o.maxDepth
	}
	if cmd.Flags().Changed("workers") {
		cfg.FetchWorkers = o.workers
	}
	if cmd.Flags().Changed("fetcher") {
		cfg.FetcherMode = o.fetcher
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	} else {
		cfg.LogLevel = "warn"
	}
	return cfg.Validate()
}

func runRace(ctx context.Context, out, errOut io.Writer, cfg *config.Config, verbose bool, start, end string) error {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var hooks racer.Hooks
	if verbose {
		hooks.OnLevelStart = func(depth, queued int) {
			fmt.Fprintf(errOut, "depth %d: expanding %d pages\n", depth, queued)
		}
		hooks.OnLevelComplete = func(s entity.LevelStats) {
			fmt.Fprintf(errOut, "depth %d: %d new pages, %d failed, %s\n", s.Depth, s.Discovered, s.Failed, s.Elapsed.Round(time.Millisecond))
		}
	}

	pathFinder, closeFetcher, err := app.NewRacer(cfg, hooks, log, nil)
	if err != nil {
		return err
	}
	defer closeFetcher()

	// Only Run is used here, so the runner needs no repositories.
	runner := usecase.NewRaceRunner(pathFinder, nil, nil, nil, 0, nil, log)
	res, err := runner.Run(ctx, start, end, cfg.MaxDepth)
	if err != nil {
		return err
	}

	log.Debug("race finished",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("pages_expanded", res.PagesExpanded),
		zap.Int("failed_pages", len(res.FailedPages)),
		zap.Duration("duration", res.Duration),
	)
	printResult(out, res)
	return nil
}

func printResult(out io.Writer, res *entity.RaceResult) {
	if !res.Found() {
		fmt.Fprintln(out, "No path found between the given pages.")
		return
	}
	fmt.Fprintf(out, "Path found (%d hops):\n", res.Path.Hops())
	for i, page := range res.Path {
		fmt.Fprintf(out, "%d. %s\n", i+1, page)
	}
}
