package diag

import "fmt"

// Shape is the textual form a diagnostic had in the log.
type Shape uint8

const (
	// ShapeLocated is "<path>:<line>:<column>: <severity>: <message>".
	ShapeLocated Shape = iota
	// ShapeLinker starts with a linker marker phrase and has no location.
	ShapeLinker
	// ShapeBuildSystem summarizes a failed command.
	ShapeBuildSystem
)

func (s Shape) String() string {
	switch s {
	case ShapeLocated:
		return "located"
	case ShapeLinker:
		return "linker"
	case ShapeBuildSystem:
		return "build-system"
	}
	return "unknown"
}

// Location is a 1-based position inside a normalized source path.
// The zero value means "no location".
type Location struct {
	File   string
	Line   int
	Column int
}

// IsZero reports whether the location is absent.
func (l Location) IsZero() bool { return l.File == "" }

func (l Location) String() string {
	if l.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Issue is one diagnostic extracted from a log.
// Values are never modified after the parser creates them; the classifier
// returns a copy carrying the category.
type Issue struct {
	ID       string
	Loc      Location
	Severity Severity
	Shape    Shape
	Message  string
	Category Category
	// Snippets are the backtick-quoted code fragments of the message.
	Snippets []string
	// Excerpt is the source line the compiler echoed under the header, if any.
	Excerpt string
	// Source names the first log source that reported the issue.
	Source string
}

// Located reports whether the issue points into a source file.
func (i Issue) Located() bool { return !i.Loc.IsZero() }

// WithCategory returns a copy of i classified as c.
func (i Issue) WithCategory(c Category) Issue {
	i.Category = c
	return i
}

// Key identifies byte-identical diagnostics across log sources.
type Key struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Key returns the deduplication key of the issue.
func (i Issue) Key() Key {
	return Key{File: i.Loc.File, Line: i.Loc.Line, Column: i.Loc.Column, Message: i.Message}
}
