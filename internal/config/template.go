package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Template is written by "doccheck init".
const Template = `# doccheck configuration
# File extensions scanned when a directory is given.
include = [".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"]
# Glob patterns, relative to this file, that are never scanned.
exclude = ["**/*.min.js", "dist/**", "build/**", "coverage/**"]
# Fence language ids to extract. Empty extracts every block.
languages = []
# Comment parser: auto, lexer or treesitter.
parser = "auto"
# Parallel workers; 0 uses the number of CPUs.
jobs = 0
# Stop collecting after this many diagnostics; 0 is unlimited.
max_diagnostics = 0

[engines]
syntax = true
lint = true
# Execute code blocks. Only enable for trusted sources.
run = false
check_host = false

[rules]
# array-type = "warning"
# no-var = "error"
# no-explicit-any = "off"
# no-debugger = "error"

[cache]
enabled = true
size = 1024

[run]
timeout = "2s"

[run.modules]
`

// WriteTemplate writes Template to dir/doccheck.toml. An existing file is
// kept unless force is set.
func WriteTemplate(dir string, force bool) (string, error) {
	path := filepath.Join(dir, TomlName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return path, err
		}
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil { //nolint:gosec // config file is meant to be readable
		return path, err
	}
	return path, nil
}
