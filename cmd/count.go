package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/stemhistory/internal/metric"
)

// CountCmd creates the count command.
func CountCmd() *cli.Command {
	return &cli.Command{
		Name:      "count",
		Usage:     "Measure a local dictionary file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Dictionary format (default: file extension)",
			},
			&cli.StringFlag{
				Name:  "unique-on",
				Usage: "What makes lexc entries distinct (lemma+continuationLexicon, lemma+gloss, lemma+comment)",
			},
		},
		Action: countAction,
	}
}

func countAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected <file>")
	}
	path := c.Args().Get(0)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}
	defer flushLogger(logger)

	registry, err := metric.NewRegistry(metric.Options{
		LexcUniqueOn: metric.UniqueOn(cfg.Metric.LexcUniqueOn),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	value, err := countFile(afero.NewOsFs(), registry, path, c.String("format"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, value)
	return nil
}

func countFile(fs afero.Fs, extractor metric.Extractor, path, format string) (int, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	value, err := extractor.Extract(content, format)
	if err != nil {
		return 0, fmt.Errorf("failed to measure %s: %w", path, err)
	}
	return value, nil
}
