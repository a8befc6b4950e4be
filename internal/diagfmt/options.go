package diagfmt

import "doccheck/internal/source"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps short or relative paths and shortens long absolute ones.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode accepts auto, absolute, relative and basename.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "relative":
		return PathModeRelative, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

func (m PathMode) format(path, baseDir string) string {
	switch m {
	case PathModeAbsolute:
		return source.FormatPath(path, "absolute", baseDir)
	case PathModeRelative:
		return source.FormatPath(path, "relative", baseDir)
	case PathModeBasename:
		return source.FormatPath(path, "basename", baseDir)
	default:
		return source.FormatPath(path, "auto", baseDir)
	}
}

// SourceLookup returns the loaded file a diagnostic path refers to, or nil.
type SourceLookup func(path string) *source.File

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color bool
	// Context is the number of source lines shown above the reported one.
	Context  int
	PathMode PathMode
	BaseDir  string
	// ShowFixes prints the fix and suggestions under each diagnostic.
	ShowFixes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode        PathMode
	BaseDir         string
	Max             int // truncates the output, not the Bag
	IncludeFixes    bool
	IncludePreviews bool
}

// SarifRule describes one rule in the SARIF tool component.
type SarifRule struct {
	ID          string
	Description string
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	InvocationArgs []string
	Rules          []SarifRule
	BaseDir        string
	// Lookup supplies file contents for code point columns and disk byte
	// offsets; without it columns stay byte columns and offsets stay as
	// reported.
	Lookup SourceLookup
}
