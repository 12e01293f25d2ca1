package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/masmgr/stemhistory/internal/history"
	"github.com/masmgr/stemhistory/internal/output"
)

// AuthorsCmd creates the authors command.
func AuthorsCmd() *cli.Command {
	return &cli.Command{
		Name:      "authors",
		Usage:     "Tally revisions per contributor over a resource's history",
		ArgsUsage: "<base-location> <entity> <format|auto>",
		Flags:     append(remoteFlags(), outputFlags()...),
		Action:    authorsAction,
	}
}

func authorsAction(c *cli.Context) error {
	if c.NArg() < 3 {
		return fmt.Errorf("expected <base-location> <entity> <format>, got %d arguments", c.NArg())
	}

	opts, err := OutputOptions(c)
	if err != nil {
		return err
	}
	cc, err := NewCommandContext(c, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
	if err != nil {
		return err
	}
	defer cc.Close()

	ctx := runContext(c)
	loc := cc.Primary
	revisions, err := cc.Repo.List(ctx, loc)
	if err != nil && cc.Fallback != nil {
		cc.Logger.Info("primary history unavailable, trying fallback", zap.Error(err))
		loc = *cc.Fallback
		revisions, err = cc.Repo.List(ctx, loc)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", history.ErrHistoryUnavailable, loc, err)
	}

	if opts.Format == output.FormatConsole && opts.OutputPath == "" {
		color.Green("Listing contributors of %v", loc)
	}

	return writeAuthorReport(&output.AuthorReport{
		Resource:       loc.String(),
		GeneratedAt:    time.Now(),
		TotalRevisions: len(revisions),
		Items:          history.TallyAuthors(revisions),
	}, opts)
}
