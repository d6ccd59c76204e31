package source

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ansiEscape matches CSI colour and cursor sequences emitted by CI runners.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// DecodeLog turns raw log bytes into normalized text: BOM-aware (UTF-8 or
// UTF-16) decoding with U+FFFD for invalid bytes, LF line endings, bare \r
// progress rewrites turned into line breaks, ANSI escapes removed, NFC.
func DecodeLog(raw []byte) string {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(dec, raw)
	if err != nil {
		// the UTF-8 decoder replaces instead of failing; keep the raw bytes just in case
		decoded = raw
	}
	decoded, _ = normalizeCRLF(decoded)

	text := string(decoded)
	text = strings.ReplaceAll(text, "\r", "\n")
	text = ansiEscape.ReplaceAllString(text, "")
	return norm.NFC.String(text)
}
