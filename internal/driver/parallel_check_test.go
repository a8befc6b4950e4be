package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"doccheck/internal/codeblock"
	"doccheck/internal/diag"
	"doccheck/internal/driver"
	"doccheck/internal/engine"
)

const exampleFile = "/**\nAdds numbers.\n\n```ts\nconst total: Array<number> = [1];\n```\n*/\nexport const a = 1;\n"

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// identEngine reports "total" in every extracted document with a rename fix.
func identEngine(calls *atomic.Int64) engine.Engine {
	return engine.Func{
		ID:   "ident",
		Skip: engine.SkipHost,
		Fn: func(_ context.Context, doc codeblock.Document) ([]diag.Message, error) {
			calls.Add(1)
			i := strings.Index(doc.Text, "total")
			if i < 0 {
				return nil, nil
			}
			return []diag.Message{{
				RuleID:    "ident",
				Severity:  diag.SevWarning,
				Text:      "rename total",
				Line:      1,
				Column:    i + 1,
				EndLine:   1,
				EndColumn: i + 6,
				Fix:       &diag.Fix{Range: [2]int{i, i + 5}, Text: "sum"},
			}}, nil
		},
	}
}

func TestCheck_RemapsToRealFile(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.ts": exampleFile})
	var calls atomic.Int64
	res, err := driver.Check(context.Background(), []string{filepath.Join(dir, "a.ts")}, driver.Options{
		BaseDir: dir,
		Engine:  identEngine(&calls),
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected 1 file result, got %d", len(res.Files))
	}
	fr := res.Files[0]
	if fr.Path != "a.ts" || fr.Documents != 1 || fr.Skipped != 0 {
		t.Fatalf("unexpected file result %+v", fr)
	}
	if len(fr.Messages) != 1 {
		t.Fatalf("expected 1 message, got %+v", fr.Messages)
	}
	m := fr.Messages[0]
	if m.Line != 5 || m.Column != 7 || m.EndLine != 5 || m.EndColumn != 12 {
		t.Errorf("position %d:%d-%d:%d, want 5:7-5:12", m.Line, m.Column, m.EndLine, m.EndColumn)
	}
	if m.Fix == nil || m.Fix.Range != [2]int{31, 36} {
		t.Fatalf("fix = %+v, want range 31..36", m.Fix)
	}
	if got := exampleFile[m.Fix.Range[0]:m.Fix.Range[1]]; got != "total" {
		t.Errorf("fix range covers %q in the real file", got)
	}
	if res.Bag.Len() != 1 || res.Bag.Items()[0].Path != "a.ts" {
		t.Errorf("bag = %+v", res.Bag.Items())
	}
	if res.Remap.Files != 1 || res.Remap.SkippedDocuments != 0 {
		t.Errorf("remap stats = %+v", res.Remap)
	}
	if f := res.Lookup("a.ts"); f == nil || string(f.Content) != exampleFile {
		t.Errorf("Lookup(a.ts) = %v", f)
	}
	if f := res.Lookup(filepath.Join(dir, "a.ts")); f == nil || string(f.Content) != exampleFile {
		t.Errorf("Lookup by loaded path = %v", f)
	}
	if _, ok := res.FileIDs()["a.ts"]; !ok {
		t.Errorf("FileIDs misses a.ts: %v", res.FileIDs())
	}
}

func TestCheck_ParseErrors(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.ts": exampleFile,
		"b.ts": "const x = 1;\n/** never closed\n",
	})
	files := []string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "b.ts")}
	var calls atomic.Int64

	if _, err := driver.Check(context.Background(), files, driver.Options{
		BaseDir: dir,
		Engine:  identEngine(&calls),
	}); err == nil {
		t.Fatal("expected an error without KeepGoing")
	}

	res, err := driver.Check(context.Background(), files, driver.Options{
		BaseDir:   dir,
		Engine:    identEngine(&calls),
		KeepGoing: true,
	})
	if err != nil {
		t.Fatalf("Check with KeepGoing: %v", err)
	}
	b := res.Files[1]
	if b.Err == nil || len(b.Messages) != 1 {
		t.Fatalf("expected one parse diagnostic for b.ts, got %+v", b)
	}
	m := b.Messages[0]
	if m.RuleID != diag.RuleParse || m.Line != 2 || m.Column != 1 || m.Severity != diag.SevError {
		t.Errorf("parse diagnostic = %+v", m)
	}
	if m.Text != "unterminated block comment" {
		t.Errorf("parse text = %q", m.Text)
	}
	if len(res.Files[0].Messages) != 1 {
		t.Errorf("a.ts should still be checked, got %+v", res.Files[0].Messages)
	}
}

func TestCheck_MissingFile(t *testing.T) {
	dir := t.TempDir()
	res, err := driver.Check(context.Background(), []string{filepath.Join(dir, "gone.ts")}, driver.Options{KeepGoing: true})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(res.Files[0].Messages) != 1 || res.Files[0].Messages[0].RuleID != diag.RuleIO {
		t.Fatalf("expected an io diagnostic, got %+v", res.Files[0].Messages)
	}
	if res.Lookup(res.Files[0].Path) != nil || len(res.FileIDs()) != 0 {
		t.Fatalf("a file that failed to load must not be looked up")
	}
}

func TestCheck_CacheSkipsEngine(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.ts": exampleFile})
	disk, err := driver.OpenDiskCache("doccheck", filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	cache, err := driver.NewCache(16, disk)
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int64
	opts := driver.Options{
		BaseDir:     dir,
		Engine:      identEngine(&calls),
		Cache:       cache,
		Fingerprint: "v1",
	}
	files := []string{filepath.Join(dir, "a.ts")}

	first, err := driver.Check(context.Background(), files, opts)
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Fatalf("engine calls = %d, want 1", calls.Load())
	}

	second, err := driver.Check(context.Background(), files, opts)
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Fatalf("engine ran again on a cache hit")
	}
	if !second.Files[0].Cached || len(second.Files[0].Messages) != len(first.Files[0].Messages) {
		t.Fatalf("unexpected cached result %+v", second.Files[0])
	}

	// a fresh memory cache over the same directory still hits on disk
	cold, err := driver.NewCache(16, disk)
	if err != nil {
		t.Fatal(err)
	}
	opts.Cache = cold
	third, err := driver.Check(context.Background(), files, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.Files[0].Cached || third.Hits != 1 {
		t.Fatalf("expected a disk hit, got cached=%v hits=%d", third.Files[0].Cached, third.Hits)
	}

	opts.Fingerprint = "v2"
	if _, err := driver.Check(context.Background(), files, opts); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("a new fingerprint must miss the cache")
	}
}

func TestCheck_Progress(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.ts": exampleFile, "b.ts": "export {};\n"})
	var mu sync.Mutex
	done := map[string]bool{}
	sink := driver.SinkFunc(func(ev driver.Event) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Status == driver.StatusDone {
			done[filepath.Base(ev.File)] = true
		}
	})
	var calls atomic.Int64
	files := []string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "b.ts")}
	if _, err := driver.Check(context.Background(), files, driver.Options{
		Engine:   identEngine(&calls),
		Progress: sink,
		Jobs:     2,
	}); err != nil {
		t.Fatal(err)
	}
	if !done["a.ts"] || !done["b.ts"] {
		t.Fatalf("missing done events: %v", done)
	}
}

func TestCheck_MaxDiagnostics(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.ts": exampleFile, "b.ts": exampleFile})
	var calls atomic.Int64
	res, err := driver.Check(context.Background(),
		[]string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "b.ts")},
		driver.Options{Engine: identEngine(&calls), MaxDiagnostics: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 1 {
		t.Fatalf("bag holds %d diagnostics, want 1", res.Bag.Len())
	}
}

func TestExtract(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.ts": exampleFile, "b.ts": "/** open"})
	res, err := driver.Extract(context.Background(),
		[]string{filepath.Join(dir, "a.ts"), filepath.Join(dir, "b.ts")},
		driver.Options{BaseDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if res[0].Err != nil || len(res[0].Extraction.Blocks) != 1 {
		t.Fatalf("a.ts: %+v", res[0])
	}
	if res[0].Extraction.Blocks[0].Anchor != (codeblock.Anchor{LineOffset: 4, CharacterOffset: 25}) {
		t.Errorf("anchor = %+v", res[0].Extraction.Blocks[0].Anchor)
	}
	if res[1].Err == nil {
		t.Fatal("b.ts: expected a parse error")
	}
}
