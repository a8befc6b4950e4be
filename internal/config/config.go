// Package config loads doccheck settings from doccheck.toml or .doccheck.yaml,
// a .env file next to it, and DOCCHECK_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar"
	"gopkg.in/yaml.v3"

	"doccheck/internal/diag"
)

// File names searched in every directory, in order.
const (
	TomlName = "doccheck.toml"
	YamlName = ".doccheck.yaml"
	YmlName  = ".doccheck.yml"
	EnvName  = ".env"
)

// ErrNotFound is returned by Find when no config file exists up to the filesystem root.
var ErrNotFound = errors.New("no doccheck.toml or .doccheck.yaml found")

type Config struct {
	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-" yaml:"-"`
	// Root is the directory holding Path, or the start directory.
	Root string `toml:"-" yaml:"-"`

	Include        []string          `toml:"include" yaml:"include"`
	Exclude        []string          `toml:"exclude" yaml:"exclude"`
	Languages      []string          `toml:"languages" yaml:"languages"`
	Parser         string            `toml:"parser" yaml:"parser"`
	Jobs           int               `toml:"jobs" yaml:"jobs"`
	MaxDiagnostics int               `toml:"max_diagnostics" yaml:"max_diagnostics"`
	Engines        Engines           `toml:"engines" yaml:"engines"`
	Rules          map[string]string `toml:"rules" yaml:"rules"`
	Cache          Cache             `toml:"cache" yaml:"cache"`
	Run            Run               `toml:"run" yaml:"run"`
}

type Engines struct {
	Syntax bool `toml:"syntax" yaml:"syntax"`
	Lint   bool `toml:"lint" yaml:"lint"`
	Run    bool `toml:"run" yaml:"run"`
	// CheckHost also runs the syntax and lint engines on the real file.
	CheckHost bool `toml:"check_host" yaml:"check_host"`
}

type Cache struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Dir     string `toml:"dir" yaml:"dir"`
	Size    int    `toml:"size" yaml:"size"`
}

type Run struct {
	Timeout time.Duration     `toml:"timeout" yaml:"timeout"`
	Modules map[string]string `toml:"modules" yaml:"modules"`
}

// Default returns the settings used when no file is found.
func Default() Config {
	return Config{
		Include: []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"},
		Exclude: []string{"**/*.min.js", "dist/**", "build/**", "coverage/**"},
		Parser:  "auto",
		Engines: Engines{Syntax: true, Lint: true},
		Rules:   map[string]string{},
		Cache:   Cache{Enabled: true, Size: 1024},
		Run:     Run{Timeout: 2 * time.Second},
	}
}

// Find walks up from startDir looking for a config file.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range []string{TomlName, YamlName, YmlName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrNotFound
}

// Load finds and reads the config for startDir, then applies the .env file
// of its root and the process environment. A missing file yields Default.
func Load(startDir string) (Config, error) {
	cfg := Default()
	path, err := Find(startDir)
	switch {
	case errors.Is(err, ErrNotFound):
		root, absErr := filepath.Abs(startDir)
		if absErr != nil {
			return Config{}, absErr
		}
		cfg.Root = root
	case err != nil:
		return Config{}, err
	default:
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
		cfg.Path = path
		cfg.Root = filepath.Dir(path)
	}

	lookup, err := envLookup(filepath.Join(cfg.Root, EnvName))
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads one explicit config file over the defaults. The environment is not consulted.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := readFile(path, &cfg); err != nil {
		return Config{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, err
	}
	cfg.Path = abs
	cfg.Root = filepath.Dir(abs)
	return cfg, cfg.Validate()
}

func readFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%s: unknown key %s", path, undecoded[0])
		}
	}
	return nil
}

// Validate checks values that cannot be expressed by the file types alone.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Parser) {
	case "", "auto", "lexer", "treesitter", "tree-sitter":
	default:
		return fmt.Errorf("parser: unknown value %q (want auto, lexer or treesitter)", c.Parser)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs: must not be negative, got %d", c.Jobs)
	}
	if c.MaxDiagnostics < 0 {
		return fmt.Errorf("max_diagnostics: must not be negative, got %d", c.MaxDiagnostics)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size: must not be negative, got %d", c.Cache.Size)
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout: must not be negative, got %v", c.Run.Timeout)
	}
	for id, level := range c.Rules {
		if strings.EqualFold(strings.TrimSpace(level), "off") {
			continue
		}
		if _, err := diag.ParseSeverity(level); err != nil {
			return fmt.Errorf("rules.%s: %w", id, err)
		}
	}
	for _, pattern := range c.Exclude {
		if _, err := doublestar.Match(pattern, ""); err != nil {
			return fmt.Errorf("exclude: bad pattern %q: %w", pattern, err)
		}
	}
	return nil
}
