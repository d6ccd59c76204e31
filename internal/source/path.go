package source

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPathPrefixes strip machine-specific checkout locations from log paths.
// They are applied in order, each at most once.
var DefaultPathPrefixes = []string{
	`^/Users/[^/]+/work/[^/]+/[^/]+/`, // self-hosted macOS runners
	`^/Users/runner/\w+/\w+/`,         // hosted macOS runners
	`^/home/runner/work/[^/]+/[^/]+/`, // hosted Linux runners
	`^/github/workspace/`,
	`^workspace/`,
}

// PathNormalizer maps log paths to machine-independent file names.
type PathNormalizer struct {
	prefixes []*regexp.Regexp
}

// NewPathNormalizer compiles DefaultPathPrefixes followed by extra.
func NewPathNormalizer(extra []string) (*PathNormalizer, error) {
	n := &PathNormalizer{}
	for _, expr := range append(append([]string(nil), DefaultPathPrefixes...), extra...) {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("path prefix %q: %w", expr, err)
		}
		n.prefixes = append(n.prefixes, re)
	}
	return n, nil
}

// Normalize strips known prefixes and returns a clean slash-separated path.
func (n *PathNormalizer) Normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	for _, re := range n.prefixes {
		p = re.ReplaceAllString(p, "")
	}
	if p == "" {
		return ""
	}
	return normalizePath(p)
}
