package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "DOCCHECK_"

// envLookup returns a lookup that prefers the process environment over the
// .env file at path. A missing .env file is not an error.
func envLookup(path string) (func(string) (string, bool), error) {
	dotenv, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		dotenv = nil
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return strings.TrimSpace(v), ok
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"PARSER", &cfg.Parser},
		{"CACHE_DIR", &cfg.Cache.Dir},
	}
	for _, s := range strs {
		if v, ok := get(s.name); ok {
			*s.dst = v
		}
	}

	lists := []struct {
		name string
		dst  *[]string
	}{
		{"INCLUDE", &cfg.Include},
		{"EXCLUDE", &cfg.Exclude},
		{"LANGUAGES", &cfg.Languages},
	}
	for _, l := range lists {
		if v, ok := get(l.name); ok {
			*l.dst = splitList(v)
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"JOBS", &cfg.Jobs},
		{"MAX_DIAGNOSTICS", &cfg.MaxDiagnostics},
		{"CACHE_SIZE", &cfg.Cache.Size},
	}
	for _, n := range ints {
		if v, ok := get(n.name); ok {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, n.name, err)
			}
			*n.dst = parsed
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"CACHE", &cfg.Cache.Enabled},
		{"SYNTAX", &cfg.Engines.Syntax},
		{"LINT", &cfg.Engines.Lint},
		{"RUN", &cfg.Engines.Run},
		{"CHECK_HOST", &cfg.Engines.CheckHost},
	}
	for _, b := range bools {
		if v, ok := get(b.name); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, b.name, err)
			}
			*b.dst = parsed
		}
	}

	if v, ok := get("RUN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sRUN_TIMEOUT: %w", envPrefix, err)
		}
		cfg.Run.Timeout = d
	}
	return nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
