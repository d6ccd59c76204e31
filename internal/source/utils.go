package source

import (
	"bytes"
	"path/filepath"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
	crlfSeq = []byte("\r\n")
)

// normalizeCRLF turns every \r\n into \n; a lone \r stays. The flag reports
// whether anything changed.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, crlfSeq) {
		return content, false
	}
	return bytes.ReplaceAll(content, crlfSeq, []byte{'\n'}), true
}

func removeBOM(content []byte) ([]byte, bool) {
	return bytes.CutPrefix(content, utf8BOM)
}

// lineEndings counts \r\n and bare \n terminators.
func lineEndings(content []byte) (crlf, lf int) {
	total := bytes.Count(content, []byte{'\n'})
	crlf = bytes.Count(content, crlfSeq)
	return crlf, total - crlf
}

// normalizePath gives tree and log paths one slash-separated, cleaned form.
func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
