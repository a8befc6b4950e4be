package source

// FileID indexes a File in its FileSet. 0 is a valid id.
type FileID uint32

// FileFlags records how a file entered the set and what loading changed.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // added from memory: stdin, tests, a code block
	FileHadBOM                               // a UTF-8 BOM was stripped on load
	FileNormalizedCRLF                       // \r\n line endings were folded to \n
)

// Has reports whether every bit of mask is set.
func (f FileFlags) Has(mask FileFlags) bool { return f&mask == mask }

// File is a loaded source file. Content is normalized: no BOM, \n endings.
// Offsets into Content are what every position in doccheck refers to;
// DiskOffset and Raw translate back to the bytes the file was read from.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // byte offset of each '\n'
	CRLF    []uint32 // offsets of the '\n's that were "\r\n" on disk, ascending
	Hash    [32]byte // sha256 of Content
	Flags   FileFlags
}

// LineCol is a 1-based line and a 1-based byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}
