package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/stemhistory/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "stemhistory",
		Usage:   "Per-revision stem count history for versioned dictionaries",
		Version: "1.0.0",
		Commands: []*cli.Command{
			TrackCmd(),
			ShowCmd(),
			AuthorsCmd(),
			CountCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (.json, .yaml)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Diagnostic log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Action: legacyAction,
	}
}

// Remote repository flags shared by commands that talk to a repository.
func remoteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Repository backend (svn, git)",
		},
		&cli.StringFlag{
			Name:  "root",
			Usage: "Repository root URL or path; {entity} is substituted",
		},
		&cli.StringFlag{
			Name:  "path-template",
			Usage: "Resource path inside the repository ({location}, {entity}, {format})",
		},
		&cli.StringFlag{
			Name:  "fallback-location",
			Usage: "Location tried when the resource is absent at the primary one",
		},
		&cli.StringSliceFlag{
			Name:  "alias",
			Usage: "Entity alias used at the fallback location, as entity=alias (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "no-pull",
			Usage: "Do not update an existing clone of a remote git root",
		},
	}
}

// Output flags shared by reporting commands.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Limit the number of rows shown (0 = all)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// parseAliases parses entity=alias pairs.
func parseAliases(pairs []string) (map[string]string, error) {
	aliases := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		entity, alias, ok := strings.Cut(pair, "=")
		entity, alias = strings.TrimSpace(entity), strings.TrimSpace(alias)
		if !ok || entity == "" || alias == "" {
			return nil, fmt.Errorf("invalid alias %q (expected entity=alias)", pair)
		}
		aliases[entity] = alias
	}
	return aliases, nil
}

// loadConfig loads configuration from file or defaults and applies CLI overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("backend"); v != "" {
		cfg.Remote.Backend = v
	}
	if v := c.String("root"); v != "" {
		cfg.Remote.Root = v
	}
	if v := c.String("path-template"); v != "" {
		cfg.Remote.PathTemplate = v
	}
	if c.IsSet("fallback-location") {
		cfg.Remote.FallbackLocation = c.String("fallback-location")
	}
	if c.IsSet("no-pull") {
		cfg.Remote.NoPull = c.Bool("no-pull")
	}
	if pairs := c.StringSlice("alias"); len(pairs) > 0 {
		aliases, err := parseAliases(pairs)
		if err != nil {
			return nil, err
		}
		if cfg.Remote.Aliases == nil {
			cfg.Remote.Aliases = map[string]string{}
		}
		for entity, alias := range aliases {
			cfg.Remote.Aliases[entity] = alias
		}
	}
	if c.IsSet("workers") {
		cfg.Pipeline.Workers = c.Int("workers")
	}
	if c.IsSet("rate") {
		cfg.Pipeline.RequestsPerSecond = c.Float64("rate")
	}
	if v := c.String("layout"); v != "" {
		cfg.Store.Layout = v
	}
	if v := c.String("unique-on"); v != "" {
		cfg.Metric.LexcUniqueOn = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// legacyAction handles the default (legacy) command behavior.
// Positional arguments run the track command.
func legacyAction(c *cli.Context) error {
	// If no args and no subcommand, show help
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}
	return trackAction(c)
}
