package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/masmgr/stemhistory/config"
	"github.com/masmgr/stemhistory/internal/metric"
	"github.com/masmgr/stemhistory/internal/output"
	"github.com/masmgr/stemhistory/internal/vcs"
)

// formatAuto asks for the resource format to be detected from the repository tree.
const formatAuto = "auto"

// repository is what commands need from a backend.
type repository interface {
	vcs.Backend
	vcs.FileLister
}

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across repository commands.
type CommandContext struct {
	Config    *config.Config
	Logger    *zap.Logger
	Extractor *metric.Registry
	Repo      repository
	Primary   vcs.Locator
	Fallback  *vcs.Locator
}

// NewCommandContext loads configuration, opens the repository backend and
// builds the locators for location/entity/format.
func NewCommandContext(c *cli.Context, location, entity, format string) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(c.String("log-level"))
	if err != nil {
		return nil, err
	}

	extractor, err := metric.NewRegistry(metric.Options{
		LexcUniqueOn: metric.UniqueOn(cfg.Metric.LexcUniqueOn),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := openRepository(ctx, cfg, entity)
	if err != nil {
		return nil, err
	}

	primary := vcs.Locator{
		Root:         cfg.Remote.RootFor(entity),
		Location:     location,
		Entity:       entity,
		Format:       format,
		PathTemplate: pathTemplate(cfg),
	}
	if format == formatAuto {
		detected, err := vcs.DetectFormat(ctx, repo, primary, extractor.Formats())
		if err != nil {
			return nil, fmt.Errorf("failed to detect format: %w", err)
		}
		logger.Info("detected resource format", zap.String("format", detected))
		primary.Format = detected
	}

	return &CommandContext{
		Config:    cfg,
		Logger:    logger,
		Extractor: extractor,
		Repo:      repo,
		Primary:   primary,
		Fallback:  primary.Fallback(cfg.Remote.FallbackLocation, cfg.Remote.Aliases),
	}, nil
}

// Close flushes the logger.
func (cc *CommandContext) Close() {
	flushLogger(cc.Logger)
}

func openRepository(ctx context.Context, cfg *config.Config, entity string) (repository, error) {
	root := cfg.Remote.RootFor(entity)
	switch cfg.Remote.Backend {
	case config.BackendGit:
		backend, err := vcs.OpenGitBackend(ctx, root, vcs.GitOptions{
			CloneDir: cfg.Remote.CloneDir,
			NoPull:   cfg.Remote.NoPull,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open repository %s: %w", root, err)
		}
		return backend, nil
	default:
		return vcs.NewSVNBackend(vcs.SVNOptions{
			Command: cfg.Remote.SVNCommand,
			TempDir: os.TempDir(),
			Timeout: cfg.Remote.FetchTimeout(),
		}), nil
	}
}

func pathTemplate(cfg *config.Config) string {
	if cfg.Remote.PathTemplate != "" {
		return cfg.Remote.PathTemplate
	}
	if cfg.Remote.Backend == config.BackendGit {
		return vcs.DefaultGitPathTemplate
	}
	return vcs.DefaultSVNPathTemplate
}

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) (output.OutputOptions, error) {
	format, err := output.ParseFormat(c.String("format"))
	if err != nil {
		return output.OutputOptions{}, err
	}
	return output.OutputOptions{
		Format:     format,
		Top:        c.Int("top"),
		OutputPath: c.String("output"),
	}, nil
}
