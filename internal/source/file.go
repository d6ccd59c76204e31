package source

import (
	"crypto/sha256"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNotUTF8 is returned for source files that are not valid UTF-8.
// Lossy decoding is fine for logs but would corrupt a file we write back.
var ErrNotUTF8 = errors.New("file is not valid UTF-8")

// NewFile snapshots raw file content under path.
func NewFile(path string, raw []byte) (*File, error) {
	f := &File{
		Path: normalizePath(path),
		Hash: sha256.Sum256(raw),
		Size: len(raw),
	}

	content, hadBOM := removeBOM(raw)
	if hadBOM {
		f.Flags |= FileHadBOM
	}
	if !utf8.Valid(content) {
		return nil, ErrNotUTF8
	}

	crlf, lf := lineEndings(content)
	switch {
	case crlf > 0 && lf > 0:
		f.Flags |= FileMixedEndings
	case crlf > 0:
		f.Flags |= FileNormalizedCRLF
	}
	content, _ = normalizeCRLF(content)

	text := string(content)
	if strings.HasSuffix(text, "\n") {
		f.Flags |= FileTrailingNewline
		text = text[:len(text)-1]
	}
	if text == "" && f.Flags&FileTrailingNewline == 0 {
		f.Lines = []string{}
		return f, nil
	}
	f.Lines = strings.Split(text, "\n")
	return f, nil
}
