package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/stemhistory/config"
	"github.com/masmgr/stemhistory/internal/history"
	"github.com/masmgr/stemhistory/internal/output"
	"github.com/masmgr/stemhistory/internal/store"
)

const entityPlaceholder = "{entity}"

// ShowCmd creates the show command.
func ShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the recorded series of entities matching a glob",
		ArgsUsage: "<entity-glob> [store-path]",
		Flags:     outputFlags(),
		Action:    showAction,
	}
}

func showAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected <entity-glob> [store-path]")
	}
	pattern := c.Args().Get(0)
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid entity pattern: %s", pattern)
	}

	opts, err := OutputOptions(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	layout, err := store.ParseLayout(cfg.Store.Layout)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	var files []storeFile
	if p := c.Args().Get(1); p != "" {
		files = []storeFile{{path: p, entity: pattern}}
	} else if files, err = storeFiles(fs, cfg.Store, pattern); err != nil {
		return err
	}

	s, err := loadStores(fs, files, layout)
	if err != nil {
		return err
	}

	report, err := buildTimelineReport(s, pattern, describeStores(files, cfg.Store))
	if err != nil {
		return err
	}
	return writeTimelineReport(report, opts)
}

// storeFile is one store file and the entity its name stands for.
type storeFile struct {
	path   string
	entity string
}

// storeFiles finds the store files that can hold entities matching pattern.
// When the file template names the entity, every file it can produce in the
// store dir is globbed and kept if its entity matches pattern. Otherwise the
// one shared file is returned.
func storeFiles(fs afero.Fs, cfg config.StoreConfig, pattern string) ([]storeFile, error) {
	if !strings.Contains(cfg.FileTemplate, entityPlaceholder) {
		return []storeFile{{path: cfg.PathFor(pattern), entity: pattern}}, nil
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	template := filepath.ToSlash(cfg.FileTemplate)
	glob := strings.ReplaceAll(template, entityPlaceholder, "*")
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, dir)), glob)
	if err != nil {
		return nil, fmt.Errorf("failed to list store files %s: %w", glob, err)
	}

	var files []storeFile
	for _, m := range matches {
		entity, ok := entityFromPath(template, m)
		if !ok {
			continue
		}
		if match, _ := doublestar.Match(pattern, entity); !match {
			continue
		}
		files = append(files, storeFile{path: filepath.Join(dir, filepath.FromSlash(m)), entity: entity})
	}
	return files, nil
}

// entityFromPath recovers the entity a template rendered into p.
func entityFromPath(template, p string) (string, bool) {
	before, after, _ := strings.Cut(template, entityPlaceholder)
	rest, ok := strings.CutPrefix(p, before)
	if !ok {
		return "", false
	}
	var entity string
	if next := strings.Index(after, entityPlaceholder); next >= 0 {
		entity, _, ok = strings.Cut(rest, after[:next])
	} else {
		entity, ok = strings.CutSuffix(rest, after)
	}
	return entity, ok && entity != ""
}

// loadStores loads every file and combines their entities.
func loadStores(fs afero.Fs, files []storeFile, layout store.Layout) (store.Store, error) {
	combined := store.Store{}
	for _, f := range files {
		s, err := store.NewFileStore(fs, f.path, layout, f.entity).Load()
		if err != nil {
			return nil, err
		}
		for _, entity := range s.Entities() {
			combined, _ = history.Merge(combined, entity, s[entity])
		}
	}
	return combined, nil
}

func describeStores(files []storeFile, cfg config.StoreConfig) string {
	if len(files) == 1 {
		return files[0].path
	}
	return filepath.Join(cfg.Dir, cfg.FileTemplate)
}

func buildTimelineReport(s store.Store, pattern, storePath string) (*output.TimelineReport, error) {
	report := &output.TimelineReport{
		StorePath:   storePath,
		GeneratedAt: time.Now(),
	}
	for _, entity := range s.Entities() {
		ok, err := doublestar.Match(pattern, entity)
		if err != nil {
			return nil, fmt.Errorf("invalid entity pattern: %w", err)
		}
		if !ok {
			continue
		}
		records := s.Records(entity)
		store.SortByRevision(records)
		report.Series = append(report.Series, output.Series{Entity: entity, Records: records})
	}
	return report, nil
}
