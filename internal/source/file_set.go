package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"fortio.org/safecast"
)

// FileSet manages a collection of source files and provides offset resolution.
// Loading is not synchronised: callers load every file first and share the
// set read-only afterwards.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return NewFileSetWithBase("")
}

// NewFileSetWithBase creates a FileSet whose relative paths are shown against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{
		files:   make([]File, 0),
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// BaseDir returns the base directory, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Len returns the number of stored file versions.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	file := newFile(FileID(lenFiles), path, content, flags)
	fileSet.files = append(fileSet.files, *file)
	fileSet.index[file.Path] = file.ID
	return file.ID
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	n, err := ReadNormalized(path)
	if err != nil {
		return 0, err
	}
	id := fileSet.Add(path, n.Content, n.Flags)
	fileSet.files[id].CRLF = n.CRLF
	return id, nil
}

// AddVirtual adds a virtual file (stdin, test, or generated) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// GetByPath returns the latest version of a file loaded under path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fileSet.files[span.File]
	return f.Resolve(span.Start), f.Resolve(span.End)
}

// Normalized is file content with the BOM and CRLF endings removed, plus
// what is needed to find the original bytes again.
type Normalized struct {
	Content []byte
	Flags   FileFlags
	CRLF    []uint32
}

// Normalize strips a UTF-8 BOM and folds \r\n into \n.
func Normalize(raw []byte) Normalized {
	content, hadBOM := removeBOM(raw)
	content, crlf := normalizeCRLF(content)

	n := Normalized{Content: content, CRLF: crlf}
	if hadBOM {
		n.Flags |= FileHadBOM
	}
	if len(crlf) > 0 {
		n.Flags |= FileNormalizedCRLF
	}
	return n
}

// ReadNormalized reads path and normalizes it.
func ReadNormalized(path string) (Normalized, error) {
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	if err != nil {
		return Normalized{}, err
	}
	return Normalize(raw), nil
}

// File builds a standalone file outside of any FileSet.
func (n Normalized) File(path string) *File {
	f := newFile(0, path, n.Content, n.Flags)
	f.CRLF = n.CRLF
	return f
}

// NewVirtualFile builds a standalone file outside of any FileSet. Code blocks
// extracted from comments use it so engines can resolve their own positions.
func NewVirtualFile(path string, content []byte) *File {
	return newFile(0, path, content, FileVirtual)
}

func newFile(id FileID, path string, content []byte, flags FileFlags) *File {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s too large: %w", path, err))
	}
	return &File{
		ID:      id,
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
}

// Len returns the content length in bytes.
func (f *File) Len() uint32 {
	return uint32(len(f.Content)) //nolint:gosec // checked in newFile
}

// LineCount returns the number of lines; an empty file has one.
func (f *File) LineCount() uint32 {
	return uint32(len(f.LineIdx)) + 1 //nolint:gosec // bounded by Len
}

// DiskOffset maps an offset in Content to the same position in the bytes
// the file was read from, counting the BOM and the folded carriage returns
// back in. An offset at a folded newline maps to its '\r'.
func (f *File) DiskOffset(off uint32) uint32 {
	folded, _ := slices.BinarySearch(f.CRLF, off)
	off += uint32(folded) //nolint:gosec // folded <= len(CRLF) <= Len
	if f.Flags.Has(FileHadBOM) {
		off += uint32(len(bom))
	}
	return off
}

// Raw rebuilds the bytes the file was read from.
func (f *File) Raw() []byte {
	out := make([]byte, 0, len(f.Content)+len(f.CRLF)+len(bom))
	if f.Flags.Has(FileHadBOM) {
		out = append(out, bom...)
	}
	prev := uint32(0)
	for _, off := range f.CRLF {
		out = append(out, f.Content[prev:off]...)
		out = append(out, '\r')
		prev = off
	}
	return append(out, f.Content[prev:]...)
}

// LineEnding returns "\r\n" when every line of the file ended with it on
// disk and "\n" otherwise.
func (f *File) LineEnding() string {
	if len(f.CRLF) > 0 && len(f.CRLF) == len(f.LineIdx) {
		return "\r\n"
	}
	return "\n"
}

// Resolve converts a byte offset into a 1-based line and column.
func (f *File) Resolve(off uint32) LineCol {
	if off > f.Len() {
		off = f.Len()
	}
	return toLineCol(f.LineIdx, off)
}

// Offset converts a 1-based line and column back into a byte offset.
// Columns past the end of the line are clamped to the line end.
func (f *File) Offset(pos LineCol) (uint32, bool) {
	start, ok := lineStart(f.LineIdx, pos.Line)
	if !ok {
		return 0, false
	}
	end := f.Len()
	if int(pos.Line-1) < len(f.LineIdx) {
		end = f.LineIdx[pos.Line-1]
	}
	col := pos.Col
	if col == 0 {
		col = 1
	}
	off := start + col - 1
	if off > end {
		off = end
	}
	return off, true
}

// GetLine returns the text of a 1-based line without its newline.
// Out of range lines yield an empty string.
func (f *File) GetLine(lineNum uint32) string {
	start, ok := lineStart(f.LineIdx, lineNum)
	if !ok || start > f.Len() {
		return ""
	}
	end := f.Len()
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	return string(f.Content[start:end])
}

// FormatPath formats the file path for display.
// mode: "absolute", "relative", "basename", "auto".
func (f *File) FormatPath(mode, baseDir string) string {
	return FormatPath(f.Path, mode, baseDir)
}

// FormatPath formats path for display; see File.FormatPath.
func FormatPath(path, mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(path); err == nil {
			return abs
		}
		return path

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if rel, err := RelativePath(path, baseDir); err == nil {
			return rel
		}
		return path

	case "basename":
		return BaseName(path)

	case "auto":
		// short or relative paths stay as is
		if len(path) < 40 || !filepath.IsAbs(path) {
			return path
		}
		return BaseName(path)

	default:
		return path
	}
}
