package codeblock

import (
	"path"
	"strconv"
	"strings"

	"doccheck/internal/source"
	"doccheck/internal/token"
)

// Anchor places a virtual document inside its real file.
type Anchor struct {
	LineOffset      int `json:"lineOffset" msgpack:"line"`
	CharacterOffset int `json:"characterOffset" msgpack:"char"`
}

// Document is one unit handed to a check engine.
type Document struct {
	Index  int    // position in the document list, 0 for the real file
	Name   string // synthetic file name, e.g. "1.ts"; the real path for index 0
	Parent string // real file path
	Lang   string // fence language id, empty for the real file
	Text   string
}

// IsVirtual reports whether d was extracted from a comment.
func (d Document) IsVirtual() bool {
	return d.Index > 0
}

// Path returns a display path: the real path, or the synthetic name nested under it.
func (d Document) Path() string {
	if !d.IsVirtual() {
		return d.Parent
	}
	return d.Parent + "/" + d.Name
}

// File wraps the document text for position lookups.
func (d Document) File() *source.File {
	return source.NewVirtualFile(d.Path(), []byte(d.Text))
}

// Block describes one extracted code block for listing and debugging.
type Block struct {
	Index   int // document index, 1-based
	Comment token.Trivia
	Lang    string
	Code    string
	Span    source.Span // code bytes in the real file
	Anchor  Anchor
}

// Extraction is the result of extracting one real file.
type Extraction struct {
	Filename  string
	Documents []Document
	Anchors   []Anchor
	Blocks    []Block
}

// Virtual returns the extracted documents without the real file.
func (e *Extraction) Virtual() []Document {
	if len(e.Documents) == 0 {
		return nil
	}
	return e.Documents[1:]
}

// VirtualName builds the synthetic file name of document index for the host file.
func VirtualName(index int, host string) string {
	return strconv.Itoa(index) + HostExtension(host)
}

// HostExtension maps a real file name to the extension its code blocks get.
func HostExtension(host string) string {
	base := strings.ToLower(path.Base(host))
	switch {
	case strings.HasSuffix(base, ".tsx"):
		return ".tsx"
	case strings.HasSuffix(base, ".jsx"):
		return ".jsx"
	case strings.HasSuffix(base, ".js"), strings.HasSuffix(base, ".mjs"), strings.HasSuffix(base, ".cjs"):
		return ".js"
	default:
		return ".ts"
	}
}
