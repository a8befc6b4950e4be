package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"doccheck/internal/driver"
)

var extractCmd = &cobra.Command{
	Use:   "extract [flags] [file|directory]...",
	Short: "List the code blocks found in doc comments",
	Long: `Print every fenced code block extracted from doc comments together with its
synthetic document name and anchor in the real file. Nothing is checked.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("format", "text", "output format (text|json)")
	extractCmd.Flags().Bool("code", false, "print the code of each block (text)")
	addPipelineFlags(extractCmd)
}

type blockJSON struct {
	Path            string `json:"path"`
	Document        string `json:"document"`
	Lang            string `json:"lang,omitempty"`
	CommentLine     uint32 `json:"commentLine"`
	LineOffset      int    `json:"lineOffset"`
	CharacterOffset int    `json:"characterOffset"`
	Start           uint32 `json:"start"`
	End             uint32 `json:"end"`
	Code            string `json:"code"`
}

type fileJSON struct {
	Path   string      `json:"path"`
	Error  string      `json:"error,omitempty"`
	Blocks []blockJSON `json:"blocks"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	showCode, err := cmd.Flags().GetBool("code")
	if err != nil {
		return fmt.Errorf("failed to get code flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	files, err := discover(cfg, args)
	if err != nil {
		return err
	}
	opts, err := pipelineOptions(cmd, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	results, err := driver.Extract(cmd.Context(), files, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeExtractJSON(out, results)
	}
	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Path, r.Err)
			continue
		}
		if err := writeExtractText(out, r, showCode); err != nil {
			return err
		}
	}
	if failed {
		return errFindings
	}
	return nil
}

func writeExtractText(out io.Writer, r driver.ExtractResult, showCode bool) error {
	for _, b := range r.Extraction.Blocks {
		doc := r.Extraction.Documents[b.Index]
		lang := b.Lang
		if lang == "" {
			lang = "-"
		}
		char := b.Anchor.CharacterOffset
		if r.File != nil {
			char = int(r.File.DiskOffset(uint32(char))) //nolint:gosec // anchors are file offsets
		}
		if _, err := fmt.Fprintf(out, "%s:%d: %s lang=%s line+%d char+%d\n",
			r.Path, b.Comment.Line, doc.Path(), lang, b.Anchor.LineOffset, char); err != nil {
			return err
		}
		if showCode {
			for _, line := range strings.Split(strings.TrimSuffix(b.Code, "\n"), "\n") {
				if _, err := fmt.Fprintf(out, "    %s\n", line); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeExtractJSON(out io.Writer, results []driver.ExtractResult) error {
	payload := make([]fileJSON, 0, len(results))
	for _, r := range results {
		f := fileJSON{Path: r.Path, Blocks: []blockJSON{}}
		if r.Err != nil {
			f.Error = r.Err.Error()
		} else {
			f.Blocks = blocksOf(r)
		}
		payload = append(payload, f)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// blocksOf lists the blocks of r with byte offsets into the file as stored
// on disk, BOM and CRLF endings included.
func blocksOf(r driver.ExtractResult) []blockJSON {
	ex := r.Extraction
	disk := func(off uint32) uint32 { return off }
	if r.File != nil {
		disk = r.File.DiskOffset
	}
	blocks := make([]blockJSON, 0, len(ex.Blocks))
	for _, b := range ex.Blocks {
		blocks = append(blocks, blockJSON{
			Path:            r.Path,
			Document:        ex.Documents[b.Index].Path(),
			Lang:            b.Lang,
			CommentLine:     b.Comment.Line,
			LineOffset:      b.Anchor.LineOffset,
			CharacterOffset: int(disk(uint32(b.Anchor.CharacterOffset))), //nolint:gosec // anchors are file offsets
			Start:           disk(b.Span.Start),
			End:             disk(b.Span.End),
			Code:            b.Code,
		})
	}
	return blocks
}
