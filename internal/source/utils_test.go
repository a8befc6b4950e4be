package source

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestRelativePath(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "base")
	for _, dir := range []string{filepath.Join(base, "nested"), filepath.Join(tmp, "other")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name, path, want string
	}{
		{"inside", filepath.Join(base, "nested", "sum.ts"), "nested/sum.ts"},
		{"base itself", base, "."},
		{"sibling escapes", filepath.Join(tmp, "other", "sum.ts"), normalizePath(filepath.Join(tmp, "other", "sum.ts"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativePath(tt.path, base)
			if err != nil {
				t.Fatalf("RelativePath: %v", err)
			}
			if got != tt.want {
				t.Fatalf("RelativePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeCRLF(t *testing.T) {
	tests := []struct {
		in, want string
		crlf     []uint32
	}{
		{"a\nb", "a\nb", nil},
		{"a\r\nb\r\n", "a\nb\n", []uint32{1, 3}},
		{"lone\rcr", "lone\rcr", nil},
		{"\r\r\n", "\r\n", []uint32{1}},
		{"x\r\ny\nz\r\n", "x\ny\nz\n", []uint32{1, 5}},
	}
	for _, tt := range tests {
		got, crlf := normalizeCRLF([]byte(tt.in))
		if string(got) != tt.want || !slices.Equal(crlf, tt.crlf) {
			t.Errorf("normalizeCRLF(%q) = %q, %v; want %q, %v", tt.in, got, crlf, tt.want, tt.crlf)
		}
	}
}

func TestRemoveBOM(t *testing.T) {
	got, had := removeBOM([]byte("\xEF\xBB\xBF/** x */"))
	if !had || string(got) != "/** x */" {
		t.Fatalf("removeBOM = %q, %v", got, had)
	}
	if _, had := removeBOM([]byte("\xEF\xBB")); had {
		t.Fatalf("short input reported a BOM")
	}
}

func TestToLineColAndLineStart(t *testing.T) {
	content := []byte("ab\n\ncd")
	idx := buildLineIndex(content)

	positions := map[uint32]LineCol{
		0: {1, 1},
		2: {1, 3}, // the newline belongs to line 1
		3: {2, 1},
		4: {3, 1},
		6: {3, 3}, // EOF
	}
	for off, want := range positions {
		if got := toLineCol(idx, off); got != want {
			t.Errorf("toLineCol(%d) = %+v, want %+v", off, got, want)
		}
	}

	for line, want := range map[uint32]uint32{1: 0, 2: 3, 3: 4} {
		if got, ok := lineStart(idx, line); !ok || got != want {
			t.Errorf("lineStart(%d) = %d, %v; want %d", line, got, ok, want)
		}
	}
	if _, ok := lineStart(idx, 0); ok {
		t.Errorf("line 0 must be rejected")
	}
	if _, ok := lineStart(idx, 4); ok {
		t.Errorf("line past EOF must be rejected")
	}
}

func TestNormalizePathComposesUnicode(t *testing.T) {
	decomposed := "docs/cafe\u0301.ts"
	if got := normalizePath(decomposed); got != "docs/caf\u00e9.ts" {
		t.Fatalf("normalizePath = %q", got)
	}
	if got := normalizePath("a/./b/../c.ts"); got != "a/c.ts" {
		t.Fatalf("normalizePath = %q", got)
	}
}

func TestFileFlagsHas(t *testing.T) {
	flags := FileHadBOM | FileNormalizedCRLF
	if !flags.Has(FileHadBOM) || flags.Has(FileVirtual) || !flags.Has(FileHadBOM|FileNormalizedCRLF) {
		t.Fatalf("Has mismatch for %b", flags)
	}
}
