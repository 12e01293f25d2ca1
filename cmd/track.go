package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/masmgr/stemhistory/internal/history"
	"github.com/masmgr/stemhistory/internal/store"
)

// TrackCmd creates the track command.
func TrackCmd() *cli.Command {
	flags := append(remoteFlags(),
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"j"},
			Usage:   "Concurrent snapshot fetches (default: from config or 1)",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Maximum snapshot fetches per second (0 = unlimited)",
		},
		&cli.StringFlag{
			Name:  "layout",
			Usage: "Layout for a new store file (map, list, single)",
		},
		&cli.StringFlag{
			Name:  "unique-on",
			Usage: "What makes lexc entries distinct (lemma+continuationLexicon, lemma+gloss, lemma+comment)",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "Store key for the series (default: entity)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Do not print progress",
		},
	)

	return &cli.Command{
		Name:      "track",
		Usage:     "Record the metric at every revision not yet in the store",
		ArgsUsage: "<base-location> <entity> <format|auto> [store-path]",
		Flags:     flags,
		Action:    trackAction,
	}
}

func trackAction(c *cli.Context) error {
	if c.NArg() < 3 {
		return fmt.Errorf("expected <base-location> <entity> <format> [store-path], got %d arguments", c.NArg())
	}
	location, entity, format := c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)
	start := time.Now()

	cc, err := NewCommandContext(c, location, entity, format)
	if err != nil {
		return err
	}
	defer cc.Close()

	key := c.String("key")
	if key == "" {
		key = entity
	}
	storePath := c.Args().Get(3)
	if storePath == "" {
		storePath = cc.Config.Store.PathFor(key)
	}
	layout, err := store.ParseLayout(cc.Config.Store.Layout)
	if err != nil {
		return err
	}

	pipeline := &history.Pipeline{
		Fetcher:   cc.Repo,
		Extractor: cc.Extractor,
		Workers:   cc.Config.Pipeline.Workers,
		Logger:    cc.Logger,
	}
	if rps := cc.Config.Pipeline.RequestsPerSecond; rps > 0 {
		pipeline.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	if !c.Bool("quiet") {
		pipeline.OnProgress = printProgress
	}

	color.Green("Tracking %v", cc.Primary)
	if cc.Fallback != nil {
		fmt.Printf("Fallback: %v\n", cc.Fallback)
	}

	aggregator := &history.Aggregator{
		Lister:   cc.Repo,
		Pipeline: pipeline,
		Store:    store.NewFileStore(afero.NewOsFs(), storePath, layout, key),
		Logger:   cc.Logger,
	}
	summary, err := aggregator.Run(runContext(c), history.Job{
		Entity:   key,
		Primary:  cc.Primary,
		Fallback: cc.Fallback,
	})
	if summary != nil {
		printTrackSummary(summary)
	}

	fmt.Fprintf(os.Stderr, "\nCompleted in %s\n", time.Since(start))

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted: %w", err)
	}
	return err
}

func printProgress(done, total int) {
	fmt.Fprintf(os.Stderr, "\r  %d/%d revisions", done, total)
	if done == total {
		fmt.Fprintln(os.Stderr)
	}
}

func printTrackSummary(s *history.Summary) {
	fmt.Print("\t")
	color.Yellow("%d revisions listed, %d already recorded", s.Total, s.Skipped)

	fmt.Print("\t")
	if s.Written {
		color.Green("Added %d records to %s", s.Added, s.StorePath)
	} else {
		fmt.Printf("No new records; %s unchanged\n", s.StorePath)
	}

	if len(s.Failures) > 0 {
		fmt.Print("\t")
		color.Red("%d revisions could not be measured:", len(s.Failures))
		for _, f := range s.Failures {
			fmt.Print("\t\t")
			color.Red("- %v", f)
		}
	}

	if s.Interrupted {
		fmt.Print("\t")
		color.Yellow("Interrupted; records measured so far were kept")
	}
}

func runContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
