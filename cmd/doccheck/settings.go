package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"doccheck/internal/codeblock"
	"doccheck/internal/config"
	"doccheck/internal/driver"
	"doccheck/internal/engine"
	"doccheck/internal/engine/lint"
	"doccheck/internal/engine/run"
	"doccheck/internal/engine/syntax"
	"doccheck/internal/treesitter"
	"doccheck/internal/version"
)

const appName = "doccheck"

// addPipelineFlags registers the flags shared by check, fix and extract.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("parser", "", "comment parser (auto|lexer|treesitter)")
	cmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	cmd.Flags().StringSlice("lang", nil, "only extract blocks with these fence languages")
}

// addEngineFlags registers the flags that select check engines.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("run", false, "execute code blocks (trusted sources only)")
	cmd.Flags().Bool("no-syntax", false, "disable the syntax engine")
	cmd.Flags().Bool("no-lint", false, "disable the lint engine")
	cmd.Flags().Bool("check-host", false, "also check the real files, not only their code blocks")
	cmd.Flags().Bool("no-cache", false, "disable the result cache")
	cmd.Flags().Bool("keep-going", true, "report unreadable or unparsable files as diagnostics")
}

// loadConfig reads --config, or searches upwards from the first path.
// Command-line flags that were set override the file.
func loadConfig(cmd *cobra.Command, paths []string) (config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if explicit != "" {
		cfg, err = config.LoadFile(explicit)
	} else {
		cfg, err = config.Load(startDir(paths))
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}

	if f := cmd.Root().PersistentFlags().Lookup("max-diagnostics"); f != nil && f.Changed {
		cfg.MaxDiagnostics, _ = cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	}
	flags := cmd.Flags()
	if flags.Changed("parser") {
		cfg.Parser, _ = flags.GetString("parser")
	}
	if flags.Changed("jobs") {
		cfg.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("lang") {
		cfg.Languages, _ = flags.GetStringSlice("lang")
	}
	if flags.Changed("run") {
		cfg.Engines.Run, _ = flags.GetBool("run")
	}
	if flags.Changed("no-syntax") {
		off, _ := flags.GetBool("no-syntax")
		cfg.Engines.Syntax = !off
	}
	if flags.Changed("no-lint") {
		off, _ := flags.GetBool("no-lint")
		cfg.Engines.Lint = !off
	}
	if flags.Changed("check-host") {
		cfg.Engines.CheckHost, _ = flags.GetBool("check-host")
	}
	if flags.Changed("no-cache") {
		off, _ := flags.GetBool("no-cache")
		cfg.Cache.Enabled = !off
	}
	return cfg, cfg.Validate()
}

func startDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	st, err := os.Stat(paths[0])
	if err != nil || st.IsDir() {
		return paths[0]
	}
	return filepath.Dir(paths[0])
}

// discover expands paths into the files to check.
func discover(cfg config.Config, paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return driver.Discover(paths, driver.DiscoverOptions{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
		Root:    cfg.Root,
	})
}

func newExtractor(cfg config.Config) (*codeblock.Extractor, error) {
	parser, err := treesitter.ForName(cfg.Parser)
	if err != nil {
		return nil, err
	}
	return &codeblock.Extractor{Parser: parser, Languages: cfg.Languages}, nil
}

// newEngine chains the enabled engines in a fixed order: syntax, lint, run.
func newEngine(cfg config.Config, stdout io.Writer) (engine.Engine, error) {
	var chain engine.Chain
	if cfg.Engines.Syntax {
		e := syntax.New()
		e.SkipHost = !cfg.Engines.CheckHost
		chain = append(chain, e)
	}
	if cfg.Engines.Lint {
		e := lint.New(lint.Builtin()...)
		e.SkipHost = !cfg.Engines.CheckHost
		if err := e.Configure(cfg.Rules); err != nil {
			return nil, fmt.Errorf("rules: %w", err)
		}
		chain = append(chain, e)
	}
	if cfg.Engines.Run {
		e := run.New()
		if cfg.Run.Timeout > 0 {
			e.Timeout = cfg.Run.Timeout
		}
		e.Modules = cfg.Run.Modules
		e.Stdout = stdout
		chain = append(chain, e)
	}
	if len(chain) == 0 {
		return nil, nil
	}
	return chain, nil
}

func openCache(cfg config.Config) (*driver.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	disk, err := driver.OpenDiskCache(appName, cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return driver.NewCache(cfg.Cache.Size, disk)
}

// fingerprint covers every setting that changes the messages of a file, so
// cached results are never reused across them.
func fingerprint(cfg config.Config) string {
	payload := struct {
		Version   string
		Languages []string
		Parser    string
		Engines   config.Engines
		Rules     map[string]string
		Run       config.Run
	}{version.Fingerprint(), cfg.Languages, cfg.Parser, cfg.Engines, cfg.Rules, cfg.Run}
	data, err := json.Marshal(payload)
	if err != nil {
		return version.Fingerprint()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// pipelineOptions assembles driver options from cfg.
func pipelineOptions(cmd *cobra.Command, cfg config.Config, stdout io.Writer) (driver.Options, error) {
	extractor, err := newExtractor(cfg)
	if err != nil {
		return driver.Options{}, err
	}
	eng, err := newEngine(cfg, stdout)
	if err != nil {
		return driver.Options{}, err
	}
	opts := driver.Options{
		Jobs:           cfg.Jobs,
		MaxDiagnostics: cfg.MaxDiagnostics,
		BaseDir:        cfg.Root,
		Extractor:      extractor,
		Engine:         eng,
		KeepGoing:      true,
		Fingerprint:    fingerprint(cfg),
	}
	if f := cmd.Flags().Lookup("keep-going"); f != nil {
		opts.KeepGoing, _ = cmd.Flags().GetBool("keep-going")
	}
	if f := cmd.Flags().Lookup("no-cache"); f != nil {
		if opts.Cache, err = openCache(cfg); err != nil {
			return driver.Options{}, err
		}
	}
	return opts, nil
}
