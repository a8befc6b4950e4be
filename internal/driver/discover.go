package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// skipDirs are never descended into.
var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
}

// DiscoverOptions selects the files Discover returns.
type DiscoverOptions struct {
	// Include lists accepted extensions, e.g. ".ts". Empty accepts every file.
	Include []string
	// Exclude holds doublestar patterns matched against slash paths relative to Root.
	Exclude []string
	Root    string
}

// Discover expands paths into a sorted, de-duplicated list of files. Files
// named explicitly are kept even when their extension is not included;
// directories are walked with the extension and exclude filters.
func Discover(paths []string, opts DiscoverOptions) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if _, skip := skipDirs[d.Name()]; skip && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !hasExtension(path, opts.Include) {
				return nil
			}
			excluded, err := isExcluded(path, opts)
			if err != nil {
				return err
			}
			if !excluded {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func hasExtension(path string, include []string) bool {
	if len(include) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, ext := range include {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func isExcluded(path string, opts DiscoverOptions) (bool, error) {
	if len(opts.Exclude) == 0 {
		return false, nil
	}
	rel := path
	if opts.Root != "" {
		if r, err := filepath.Rel(opts.Root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range opts.Exclude {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
