package source

import (
	"crypto/sha256"
	"strings"
)

// FileFlags encodes how a source file was normalized on load.
type FileFlags uint8

const (
	// FileHadBOM means a UTF-8 BOM was stripped and must be restored on render.
	FileHadBOM FileFlags = 1 << iota
	// FileNormalizedCRLF means every line ended in \r\n.
	FileNormalizedCRLF
	// FileTrailingNewline means the last line was terminated.
	FileTrailingNewline
	// FileMixedEndings means CRLF and LF lines are mixed; such files are never rewritten.
	FileMixedEndings
)

// File is an immutable snapshot of one source file split into lines.
type File struct {
	Path  string // tree-relative, slash separated
	Lines []string
	Hash  [32]byte // sha256 of the raw bytes as read
	Flags FileFlags
	Size  int
}

// LineCount returns the number of lines.
func (f *File) LineCount() int { return len(f.Lines) }

// Line returns the 1-based line n.
func (f *File) Line(n int) (string, bool) {
	if n < 1 || n > len(f.Lines) {
		return "", false
	}
	return f.Lines[n-1], true
}

// Render joins lines back into bytes with the file's original BOM,
// line endings and trailing newline.
func (f *File) Render(lines []string) []byte {
	eol := "\n"
	if f.Flags&FileNormalizedCRLF != 0 {
		eol = "\r\n"
	}
	var sb strings.Builder
	if f.Flags&FileHadBOM != 0 {
		sb.WriteString("\uFEFF")
	}
	sb.WriteString(strings.Join(lines, eol))
	if f.Flags&FileTrailingNewline != 0 && len(lines) > 0 {
		sb.WriteString(eol)
	}
	return []byte(sb.String())
}

// Unchanged reports whether raw still has the bytes this snapshot was made from.
func (f *File) Unchanged(raw []byte) bool {
	return sha256.Sum256(raw) == f.Hash
}
