package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Remote   RemoteConfig   `json:"remote" yaml:"remote"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Metric   MetricConfig   `json:"metric" yaml:"metric"`
}

// Backend names.
const (
	BackendSVN = "svn"
	BackendGit = "git"
)

// Default repository roots per backend. A git root may contain {entity}
// for per-resource repositories.
const (
	DefaultSVNRoot = "https://svn.code.sf.net/p/apertium/svn"
	DefaultGitRoot = "https://github.com/apertium/apertium-{entity}"
)

// RemoteConfig describes where resources live.
type RemoteConfig struct {
	Backend             string            `json:"backend" yaml:"backend"`                         // Default: "svn"
	Root                string            `json:"root" yaml:"root"`                               // Default depends on backend
	PathTemplate        string            `json:"pathTemplate" yaml:"pathTemplate"`               // Default depends on backend
	FallbackLocation    string            `json:"fallbackLocation" yaml:"fallbackLocation"`       // Default: "incubator"
	Aliases             map[string]string `json:"aliases" yaml:"aliases"`                         // Entity name tried at the fallback location
	SVNCommand          string            `json:"svnCommand" yaml:"svnCommand"`                   // Default: "svn"
	CloneDir            string            `json:"cloneDir" yaml:"cloneDir"`                       // Working copies for remote git roots
	NoPull              bool              `json:"noPull" yaml:"noPull"`                           // Reuse an existing clone as is
	FetchTimeoutSeconds int               `json:"fetchTimeoutSeconds" yaml:"fetchTimeoutSeconds"` // 0 disables
}

// RootFor returns the repository root for an entity.
func (r RemoteConfig) RootFor(entity string) string {
	root := r.Root
	if root == "" {
		root = DefaultSVNRoot
		if r.Backend == BackendGit {
			root = DefaultGitRoot
		}
	}
	return strings.ReplaceAll(root, "{entity}", entity)
}

// FetchTimeout returns the per-fetch timeout (zero means none).
func (r RemoteConfig) FetchTimeout() time.Duration {
	return time.Duration(r.FetchTimeoutSeconds) * time.Second
}

// StoreConfig locates the store file.
type StoreConfig struct {
	Dir          string `json:"dir" yaml:"dir"`                   // Default: "."
	FileTemplate string `json:"fileTemplate" yaml:"fileTemplate"` // Default: "{entity}.json"
	Layout       string `json:"layout" yaml:"layout"`             // map, list or single. Default: "map"
}

// PathFor renders the store path for an entity.
func (s StoreConfig) PathFor(entity string) string {
	name := strings.ReplaceAll(s.FileTemplate, "{entity}", entity)
	return filepath.Join(s.Dir, name)
}

// PipelineConfig tunes snapshot fetching.
type PipelineConfig struct {
	Workers           int     `json:"workers" yaml:"workers"`                     // Default: 1
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"` // 0 disables throttling
}

// MetricConfig tunes the metric extractors.
type MetricConfig struct {
	LexcUniqueOn string `json:"lexcUniqueOn" yaml:"lexcUniqueOn"` // lemma+continuationLexicon, lemma+gloss or lemma+comment
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Backend:          BackendSVN,
			FallbackLocation: "incubator",
			Aliases:          map[string]string{},
			SVNCommand:       "svn",
			CloneDir:         filepath.Join(os.TempDir(), "stemhistory"),
		},
		Store: StoreConfig{
			Dir:          ".",
			FileTemplate: "{entity}.json",
			Layout:       "map",
		},
		Pipeline: PipelineConfig{
			Workers: 1,
		},
		Metric: MetricConfig{
			LexcUniqueOn: "lemma+continuationLexicon",
		},
	}
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	switch c.Remote.Backend {
	case BackendSVN, BackendGit:
	default:
		return fmt.Errorf("invalid remote backend: %s (expected svn or git)", c.Remote.Backend)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.RequestsPerSecond < 0 {
		return fmt.Errorf("requestsPerSecond must not be negative, got %g", c.Pipeline.RequestsPerSecond)
	}
	if c.Remote.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("fetchTimeoutSeconds must not be negative, got %d", c.Remote.FetchTimeoutSeconds)
	}
	if !strings.Contains(c.Store.FileTemplate, "{entity}") && c.Store.Layout == "single" {
		return fmt.Errorf("single-entity layout needs {entity} in store fileTemplate")
	}
	return nil
}

var configNames = []string{".stemhistory.json", ".stemhistory.yaml", ".stemhistory.yml"}

// LoadConfig loads configuration from a file, or from the first default
// location that exists. Values absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		candidates := append([]string(nil), configNames...)
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			for _, name := range configNames {
				candidates = append(candidates, filepath.Join(home, name))
			}
		} else if envHome := os.Getenv("HOME"); envHome != "" {
			for _, name := range configNames {
				candidates = append(candidates, filepath.Join(envHome, name))
			}
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a file. The extension selects YAML or JSON.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
