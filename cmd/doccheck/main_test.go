package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"doccheck/internal/config"
	"doccheck/internal/fix"
	"doccheck/internal/trace"
)

const sampleFile = "/**\nSum.\n\n```ts\nvar total: Array<number> = [1];\n```\n*/\nexport const a = 1;\n"

// newTestRoot builds a fresh command tree so flag state never leaks between tests.
func newTestRoot() *cobra.Command {
	root := &cobra.Command{Use: "doccheck", SilenceUsage: true, SilenceErrors: true}
	registerPersistentFlags(root)

	check := &cobra.Command{Use: "check", RunE: runCheck}
	addCheckFlags(check)
	addPipelineFlags(check)
	addEngineFlags(check)

	fixC := &cobra.Command{Use: "fix", RunE: runFix}
	addFixFlags(fixC)
	addPipelineFlags(fixC)
	addEngineFlags(fixC)

	extract := &cobra.Command{Use: "extract", RunE: runExtract}
	extract.Flags().String("format", "text", "")
	extract.Flags().Bool("code", false, "")
	addPipelineFlags(extract)

	cache := &cobra.Command{Use: "cache"}
	cache.AddCommand(
		&cobra.Command{Use: "dir", RunE: cacheDirCmd.RunE},
		&cobra.Command{Use: "clean", RunE: cacheCleanCmd.RunE},
	)

	root.AddCommand(check, fixC, extract, cache)
	return root
}

func writeProject(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	configPath = filepath.Join(dir, config.TomlName)
	if err := os.WriteFile(configPath, []byte("parser = \"lexer\"\n\n[cache]\nenabled = false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.ts"), []byte(sampleFile), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir, configPath
}

func execute(root *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckCommand_ShortOutput(t *testing.T) {
	dir, cfg := writeProject(t)
	out, err := execute(newTestRoot(), "check", "--config", cfg, "--format", "short", "--ui", "off", dir)
	if !errors.Is(err, errFindings) {
		t.Fatalf("expected findings error, got %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 findings, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "a.ts:5:1: error: ") || !strings.HasSuffix(lines[0], "[no-var]") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "a.ts:5:12: warning: ") || !strings.HasSuffix(lines[1], "[array-type]") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestCheckCommand_MinSeverity(t *testing.T) {
	dir, cfg := writeProject(t)
	out, err := execute(newTestRoot(), "check", "--config", cfg, "--format", "short", "--min-severity", "error", dir)
	if !errors.Is(err, errFindings) {
		t.Fatalf("expected findings error, got %v", err)
	}
	if strings.Count(out, "\n") != 1 || !strings.Contains(out, "[no-var]") {
		t.Fatalf("expected only the error finding, got:\n%s", out)
	}

	if _, err := execute(newTestRoot(), "check", "--config", cfg, "--min-severity", "fatal", dir); err == nil {
		t.Fatalf("expected an error for an unknown severity")
	}
}

func TestCheckCommand_RuleOffAndJSON(t *testing.T) {
	dir, cfg := writeProject(t)
	if err := os.WriteFile(cfg, []byte("parser = \"lexer\"\n\n[rules]\nno-var = \"off\"\n\n[cache]\nenabled = false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(newTestRoot(), "check", "--config", cfg, "--format", "json", "--suggest", dir)
	if err != nil {
		t.Fatalf("warnings alone must not fail the run: %v", err)
	}
	var payload struct {
		Count       int `json:"count"`
		Diagnostics []struct {
			RuleID string `json:"ruleId"`
			Fix    *struct {
				Range [2]int `json:"range"`
				Text  string `json:"text"`
			} `json:"fix"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if payload.Count != 1 || payload.Diagnostics[0].RuleID != "array-type" {
		t.Fatalf("unexpected diagnostics: %s", out)
	}
	f := payload.Diagnostics[0].Fix
	if f == nil || sampleFile[f.Range[0]:f.Range[1]] != "Array<number>" || f.Text != "number[]" {
		t.Fatalf("fix not remapped to the real file: %+v", f)
	}
}

func TestFixCommand_RewritesFile(t *testing.T) {
	dir, cfg := writeProject(t)
	out, err := execute(newTestRoot(), "fix", "--config", cfg, dir)
	if err != nil {
		t.Fatalf("fix: %v\n%s", err, out)
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.ts"))
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Replace(sampleFile, "var total: Array<number>", "let total: number[]", 1)
	if string(data) != want {
		t.Fatalf("file after fix:\n%s\nwant:\n%s", data, want)
	}
	if !strings.Contains(out, "Applied 2 fix(es):") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestFixCommand_DryRunKeepsFile(t *testing.T) {
	dir, cfg := writeProject(t)
	out, err := execute(newTestRoot(), "fix", "--config", cfg, "--dry-run", "--rule", "no-var", dir)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "a.ts"))
	if string(data) != sampleFile {
		t.Fatalf("dry run changed the file")
	}
	if !strings.Contains(out, "Would apply 1 fix(es):") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestExtractCommand(t *testing.T) {
	dir, cfg := writeProject(t)
	out, err := execute(newTestRoot(), "extract", "--config", cfg, dir)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(out, "a.ts:1: a.ts/1.ts lang=ts line+4 ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExtractCommand_CRLFOffsetsMatchDisk(t *testing.T) {
	dir, cfg := writeProject(t)
	raw := "\xEF\xBB\xBF/**\r\n * Sum.\r\n```ts\r\nlet x = 1;\r\n```\r\n*/\r\nexport const a = 1;\r\n"
	path := filepath.Join(dir, "crlf.ts")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(newTestRoot(), "extract", "--config", cfg, "--format", "json", path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var files []fileJSON
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(files) != 1 || len(files[0].Blocks) != 1 {
		t.Fatalf("unexpected listing: %+v", files)
	}
	b := files[0].Blocks[0]
	if !strings.HasPrefix(raw[b.CharacterOffset:], "let x = 1;\r\n") {
		t.Errorf("characterOffset %d points at %q", b.CharacterOffset, raw[b.CharacterOffset:])
	}
	if got := raw[b.Start:b.End]; got != "let x = 1;\r\n" {
		t.Errorf("block range covers %q on disk", got)
	}
	if b.Code != "let x = 1;\n" {
		t.Errorf("code = %q", b.Code)
	}
}

func TestFixOptions(t *testing.T) {
	tests := []struct {
		args    []string
		mode    fix.ApplyMode
		wantErr bool
	}{
		{nil, fix.ApplyModeAll, false},
		{[]string{"--once"}, fix.ApplyModeOnce, false},
		{[]string{"--rule", "no-var"}, fix.ApplyModeRule, false},
		{[]string{"--all", "--once"}, 0, true},
		{[]string{"--rule", "x", "--all"}, 0, true},
	}
	for _, tt := range tests {
		cmd := &cobra.Command{}
		addFixFlags(cmd)
		if err := cmd.ParseFlags(tt.args); err != nil {
			t.Fatal(err)
		}
		opts, err := fixOptions(cmd)
		if (err != nil) != tt.wantErr {
			t.Fatalf("%v: err = %v", tt.args, err)
		}
		if err == nil && opts.Mode != tt.mode {
			t.Errorf("%v: mode = %v, want %v", tt.args, opts.Mode, tt.mode)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestFingerprintTracksRules(t *testing.T) {
	a := config.Default()
	b := config.Default()
	b.Rules = map[string]string{"no-var": "off"}
	if fingerprint(a) == fingerprint(b) {
		t.Fatal("rule levels must change the fingerprint")
	}
	if fingerprint(a) != fingerprint(config.Default()) {
		t.Fatal("fingerprint must be stable")
	}
}

func TestNewEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Engines = config.Engines{}
	eng, err := newEngine(cfg, nil)
	if err != nil || eng != nil {
		t.Fatalf("no engines enabled: got %v, %v", eng, err)
	}
	cfg.Engines = config.Engines{Syntax: true, Lint: true, Run: true}
	cfg.Rules = map[string]string{"no-such-rule": "error"}
	if _, err := newEngine(cfg, nil); err == nil {
		t.Fatal("unknown rule ids must be rejected")
	}
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	cfg := filepath.Join(dir, config.TomlName)
	if err := os.WriteFile(cfg, []byte("[cache]\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cacheDir, "files", "ab", "stale.mp")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(newTestRoot(), "--config", cfg, "cache", "dir")
	if err != nil || strings.TrimSpace(out) != filepath.ToSlash(cacheDir) && strings.TrimSpace(out) != cacheDir {
		t.Fatalf("cache dir = %q, %v", out, err)
	}
	out, err = execute(newTestRoot(), "--config", cfg, "cache", "clean")
	if err != nil || !strings.HasPrefix(out, "Cleared ") {
		t.Fatalf("cache clean = %q, %v", out, err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale entry survived: %v", err)
	}
	if _, err := os.Stat(cacheDir); err != nil {
		t.Fatalf("cache dir must be recreated: %v", err)
	}
}

func TestReadTraceFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  trace.Level
		mode   trace.StorageMode
		format trace.Format
	}{
		{"defaults", nil, trace.LevelOff, trace.ModeStream, trace.FormatText},
		{"output promotes off", []string{"--trace", "run.ndjson"}, trace.LevelPhase, trace.ModeStream, trace.FormatNDJSON},
		{"explicit", []string{"--trace-level", "debug", "--trace-mode", "ring", "--trace-format", "ndjson"}, trace.LevelDebug, trace.ModeRing, trace.FormatNDJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &cobra.Command{Use: "doccheck"}
			registerPersistentFlags(root)
			if err := root.PersistentFlags().Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			tf, err := readTraceFlags(root.PersistentFlags())
			if err != nil {
				t.Fatal(err)
			}
			if tf.level != tt.level || tf.mode != tt.mode || tf.format != tt.format {
				t.Fatalf("got level=%v mode=%v format=%v", tf.level, tf.mode, tf.format)
			}
		})
	}

	root := &cobra.Command{Use: "doccheck"}
	registerPersistentFlags(root)
	if err := root.PersistentFlags().Parse([]string{"--trace-level", "loud"}); err != nil {
		t.Fatal(err)
	}
	if _, err := readTraceFlags(root.PersistentFlags()); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
