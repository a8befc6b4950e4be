package diagfmt

import (
	"cmp"
	"encoding/json"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
	srcRoot      = "%SRCROOT%"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
	ColumnKind  string            `json:"columnKind,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string           `json:"name"`
	Version        string           `json:"version,omitempty"`
	InformationURI string           `json:"informationUri,omitempty"`
	Rules          []sarifRuleDescr `json:"rules,omitempty"`
}

type sarifRuleDescr struct {
	ID               string        `json:"id"`
	ShortDescription *sarifMessage `json:"shortDescription,omitempty"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId,omitempty"`
	RuleIndex *int            `json:"ruleIndex,omitempty"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifArtifact struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
	ByteOffset  *int `json:"byteOffset,omitempty"`
	ByteLength  *int `json:"byteLength,omitempty"`
}

type sarifFix struct {
	Description     *sarifMessage         `json:"description,omitempty"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifact      `json:"artifactLocation"`
	Replacements     []sarifReplacement `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion   `json:"deletedRegion"`
	InsertedContent *sarifMessage `json:"insertedContent,omitempty"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}

func sarifURI(path, baseDir string) sarifArtifact {
	if baseDir != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(baseDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return sarifArtifact{URI: filepath.ToSlash(rel), URIBaseID: srcRoot}
		}
	}
	return sarifArtifact{URI: filepath.ToSlash(path)}
}

func sarifFixOf(artifact sarifArtifact, desc string, fix diag.Fix) sarifFix {
	offset, length := fix.Range[0], fix.Range[1]-fix.Range[0]
	out := sarifFix{ArtifactChanges: []sarifArtifactChange{{
		ArtifactLocation: artifact,
		Replacements: []sarifReplacement{{
			DeletedRegion:   sarifRegion{ByteOffset: &offset, ByteLength: &length},
			InsertedContent: &sarifMessage{Text: fix.Text},
		}},
	}}}
	if desc != "" {
		out.Description = &sarifMessage{Text: desc}
	}
	return out
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0).
// Rules named in meta are listed first; rule ids seen only in the bag are
// appended in sorted order.
func Sarif(w io.Writer, bag *diag.Bag, meta SarifRunMeta) error {
	driver := sarifDriver{
		Name:           meta.ToolName,
		Version:        meta.ToolVersion,
		InformationURI: meta.InformationURI,
	}
	index := make(map[string]int)
	addRule := func(id, desc string) {
		if _, ok := index[id]; ok || id == "" {
			return
		}
		index[id] = len(driver.Rules)
		r := sarifRuleDescr{ID: id}
		if desc != "" {
			r.ShortDescription = &sarifMessage{Text: desc}
		}
		driver.Rules = append(driver.Rules, r)
	}
	for _, r := range meta.Rules {
		addRule(r.ID, r.Description)
	}
	var extra []string
	for _, d := range bag.Items() {
		if _, ok := index[d.RuleID]; !ok && d.RuleID != "" && !slices.Contains(extra, d.RuleID) {
			extra = append(extra, d.RuleID)
		}
	}
	slices.Sort(extra)
	for _, id := range extra {
		addRule(id, "")
	}

	results := make([]sarifResult, 0, bag.Len())
	for _, d := range bag.Items() {
		var file *source.File
		if meta.Lookup != nil {
			file = meta.Lookup(d.Path)
		}
		artifact := sarifURI(d.Path, meta.BaseDir)
		res := sarifResult{
			RuleID:  d.RuleID,
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Text},
			Locations: []sarifLocation{{PhysicalLocation: sarifPhysical{
				ArtifactLocation: artifact,
				Region: sarifRegion{
					StartLine:   d.Line,
					StartColumn: codePointColumn(file, d.Line, d.Column),
					EndLine:     d.EndLine,
					EndColumn:   codePointColumn(file, cmp.Or(d.EndLine, d.Line), d.EndColumn),
				},
			}}},
		}
		if i, ok := index[d.RuleID]; ok {
			res.RuleIndex = &i
		}
		if d.Fix != nil {
			res.Fixes = append(res.Fixes, sarifFixOf(artifact, "", diskFix(file, *d.Fix)))
		}
		for _, s := range d.Suggestions {
			res.Fixes = append(res.Fixes, sarifFixOf(artifact, s.Desc, diskFix(file, s.Fix)))
		}
		results = append(results, res)
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: driver},
			Invocations: []sarifInvocation{{
				Arguments:           meta.InvocationArgs,
				ExecutionSuccessful: !bag.HasErrors(),
			}},
			Results:    results,
			ColumnKind: "unicodeCodePoints",
		}},
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(log)
}
