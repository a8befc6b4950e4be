package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("a.ts", []byte("hello world"), 0)
	id2 := fs.Add("a.ts", []byte("hello universe"), 0)
	if id1 == id2 {
		t.Fatalf("expected a new FileID for the second Add")
	}

	latest, ok := fs.GetByPath("a.ts")
	if !ok || latest.ID != id2 {
		t.Fatalf("GetByPath = %+v, %v; want ID %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Fatalf("old version content = %q", got)
	}
	if fs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", fs.Len())
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.ts", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("LineIdx = %v, want %v", file.LineIdx, expected)
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("LineIdx[%d] = %d, want %d", i, file.LineIdx[i], val)
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag")
	}
	if file.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", file.LineCount())
	}
}

func TestLoadNormalizesBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.ts")
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb\r\n")...)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "a\nb\n" {
		t.Fatalf("content = %q", file.Content)
	}
	if file.Flags&FileHadBOM == 0 || file.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b, want BOM and CRLF set", file.Flags)
	}
	if !bytes.Equal(file.Raw(), data) {
		t.Fatalf("Raw() = %q, want %q", file.Raw(), data)
	}
}

func TestDiskOffset(t *testing.T) {
	raw := "\xEF\xBB\xBF/**\r\nlet x;\nlet y;\r\n*/\r\n"
	file := Normalize([]byte(raw)).File("a.ts")
	if string(file.Content) != "/**\nlet x;\nlet y;\n*/\n" {
		t.Fatalf("content = %q", file.Content)
	}
	for _, needle := range []string{"/**", "let x", "let y", "*/"} {
		off := strings.Index(string(file.Content), needle)
		disk := file.DiskOffset(uint32(off))
		if !strings.HasPrefix(raw[disk:], needle) {
			t.Errorf("%q: disk offset %d points at %q", needle, disk, raw[disk:])
		}
	}
	// a folded newline maps to its carriage return
	if disk := file.DiskOffset(3); raw[disk:disk+2] != "\r\n" {
		t.Errorf("newline maps to %q", raw[disk:disk+2])
	}
	if got := file.DiskOffset(file.Len()); int(got) != len(raw) {
		t.Errorf("end of content maps to %d, want %d", got, len(raw))
	}
	if string(file.Raw()) != raw {
		t.Errorf("Raw() = %q", file.Raw())
	}
	if file.LineEnding() != "\n" {
		t.Errorf("mixed file line ending = %q", file.LineEnding())
	}
	if got := Normalize([]byte("a\r\nb\r\n")).File("b.ts").LineEnding(); got != "\r\n" {
		t.Errorf("CRLF file line ending = %q", got)
	}
}

func TestResolve(t *testing.T) {
	file := NewVirtualFile("a.ts", []byte("ab\ncd\n\nα"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // the newline itself
		{3, LineCol{2, 1}},
		{4, LineCol{2, 2}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{8, LineCol{4, 2}}, // second byte of α
		{100, LineCol{4, 3}},
	}

	for _, tt := range tests {
		if got := file.Resolve(tt.off); got != tt.want {
			t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, got, tt.want)
		}
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	file := NewVirtualFile("a.ts", []byte("const a = 1;\nlet b = 2;\n"))

	for off := uint32(0); off <= file.Len(); off++ {
		pos := file.Resolve(off)
		got, ok := file.Offset(pos)
		if !ok {
			t.Fatalf("Offset(%+v) not found", pos)
		}
		if got != off {
			t.Fatalf("Offset(Resolve(%d)) = %d", off, got)
		}
	}

	if _, ok := file.Offset(LineCol{Line: 9, Col: 1}); ok {
		t.Fatalf("expected line 9 to be out of range")
	}
	if got, _ := file.Offset(LineCol{Line: 1, Col: 99}); got != 12 {
		t.Fatalf("column past line end should clamp to 12, got %d", got)
	}
}

func TestGetLine(t *testing.T) {
	file := NewVirtualFile("a.ts", []byte("first\nsecond\nthird"))
	tests := []struct {
		line uint32
		want string
	}{
		{0, ""},
		{1, "first"},
		{2, "second"},
		{3, "third"},
		{4, ""},
	}
	for _, tt := range tests {
		if got := file.GetLine(tt.line); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestGetByPathNormalizes(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("src/./a.ts", []byte("x"))
	if _, ok := fs.GetByPath("src/a.ts"); !ok {
		t.Fatalf("expected cleaned path lookup to succeed")
	}
	// NFD "é" must find the NFC spelling
	fs.AddVirtual("cafe\u0301.ts", []byte("y"))
	if _, ok := fs.GetByPath("caf\u00e9.ts"); !ok {
		t.Fatalf("expected NFD path to match NFC lookup")
	}
}
