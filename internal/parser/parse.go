package parser

import (
	"strings"

	"buildlens/internal/diag"
	"buildlens/internal/source"
)

// Parse extracts issues from one decoded log. Text that matches no
// diagnostic shape is skipped silently; a clean log yields an empty bag.
// Duplicates inside the log are removed.
func Parse(text, sourceName string, norm *source.PathNormalizer) *diag.Bag {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = stripTimestamp(lines[i])
	}

	bag := diag.NewBag(0)
	for i := 0; i < len(lines); {
		h, ok := parseHeader(lines[i])
		if !ok {
			i++
			continue
		}

		// continuation runs until a blank line, the next diagnostic or a
		// build-tool record line
		j := i + 1
		for j < len(lines) && !isBoundary(lines[j]) {
			j++
		}
		cont := lines[i+1 : j]
		bag.Add(build(h, cont, sourceName, norm))
		i = j
	}
	bag.Dedup()
	return bag
}

func build(h header, cont []string, sourceName string, norm *source.PathNormalizer) diag.Issue {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(h.message))
	for _, c := range cont {
		sb.WriteByte('\n')
		sb.WriteString(strings.TrimRight(c, " \t"))
	}
	msg := strings.TrimSpace(sb.String())

	is := diag.Issue{
		Severity: h.severity,
		Shape:    h.shape,
		Message:  msg,
		Snippets: snippets(msg),
		Source:   sourceName,
	}
	if h.shape == diag.ShapeLocated {
		file := h.path
		if norm != nil {
			file = norm.Normalize(h.path)
		}
		if file != "" {
			is.Loc = diag.Location{File: file, Line: h.line, Column: h.column}
			is.Excerpt = strings.TrimRight(excerpt(cont, h.line), " \t")
		}
	}
	return is
}

// buildLogHints are the markers of something that at least looks like
// compiler output.
var buildLogHints = []string{
	"error:", "warning:", "build failed", "compile", "swift", "xcodebuild",
	"linker command failed", "clang", "compilation failed", "ld:",
}

// LooksLikeBuildLog reports whether text resembles toolchain output at all.
// It is informational only and never filters input.
func LooksLikeBuildLog(text string) bool {
	lower := strings.ToLower(text)
	for _, h := range buildLogHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
