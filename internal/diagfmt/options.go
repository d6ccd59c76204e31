package diagfmt

import (
	"fmt"
	"strings"
)

// Format is one rendering of a report.
type Format uint8

const (
	FormatText Format = iota
	FormatHTML
	FormatJSON
	FormatMsgpack
)

var formatNames = [...]string{
	FormatText:    "text",
	FormatHTML:    "html",
	FormatJSON:    "json",
	FormatMsgpack: "msgpack",
}

var formatFiles = [...]string{
	FormatText:    "build-report.txt",
	FormatHTML:    "build-report.html",
	FormatJSON:    "build-report.json",
	FormatMsgpack: "build-report.msgpack",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

// FileName is the sink entry a format is written to.
func (f Format) FileName() string {
	if int(f) < len(formatFiles) {
		return formatFiles[f]
	}
	return "build-report"
}

// AllFormats lists every format in rendering order.
func AllFormats() []Format {
	return []Format{FormatText, FormatHTML, FormatJSON, FormatMsgpack}
}

// ParseFormat accepts names like "text", "html", "json", "msgpack".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	}
	return 0, fmt.Errorf("unknown report format %q", s)
}

// ParseFormats parses a list and drops duplicates, keeping the first position.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// TextOpts configures the plain-text rendering.
type TextOpts struct {
	Color bool
	// MessageWidth caps message cells in tables, in display columns; 0 means 72.
	MessageWidth int
}
