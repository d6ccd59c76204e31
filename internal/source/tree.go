package source

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned when neither the reported path nor its basename
// exists in the tree.
var ErrNotFound = errors.New("file not found in source tree")

// DefaultExcludeDirs are never searched by the basename fallback.
var DefaultExcludeDirs = []string{".git", ".build", "DerivedData", "Pods", "node_modules"}

// Tree gives read-only access to a source tree.
// It is safe for concurrent use.
type Tree struct {
	fsys    fs.FS
	root    string // absolute root, used to relativize absolute log paths
	exclude map[string]struct{}

	once    sync.Once
	byBase  map[string][]string
	walkErr error
}

// NewTree wraps fsys. root is the absolute path fsys is rooted at (may be empty).
func NewTree(fsys fs.FS, root string, exclude []string) *Tree {
	t := &Tree{
		fsys:    fsys,
		exclude: make(map[string]struct{}, len(exclude)),
	}
	if root != "" {
		t.root = strings.TrimSuffix(normalizePath(root), "/")
	}
	for _, d := range exclude {
		t.exclude[d] = struct{}{}
	}
	return t
}

// Locate resolves a normalized log path to a path inside the tree.
// The verbatim path is tried first, then every file with the same basename;
// the shortest candidate wins and ties break lexicographically.
func (t *Tree) Locate(p string) (string, error) {
	if rel, ok := t.relative(p); ok {
		if info, err := fs.Stat(t.fsys, rel); err == nil && !info.IsDir() {
			return rel, nil
		}
	}

	t.once.Do(t.index)
	if t.walkErr != nil {
		return "", fmt.Errorf("index source tree: %w", t.walkErr)
	}
	candidates := t.byBase[path.Base(p)]
	if len(candidates) == 0 {
		return "", fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return candidates[0], nil
}

// Load reads and snapshots the file at a tree path returned by Locate.
func (t *Tree) Load(rel string) (*File, error) {
	raw, err := fs.ReadFile(t.fsys, rel)
	if err != nil {
		return nil, err
	}
	return NewFile(rel, raw)
}

func (t *Tree) relative(p string) (string, bool) {
	p = normalizePath(p)
	if t.root != "" {
		if p == t.root {
			return "", false
		}
		if strings.HasPrefix(p, t.root+"/") {
			p = strings.TrimPrefix(p, t.root+"/")
		}
	}
	p = strings.TrimPrefix(p, "./")
	if !fs.ValidPath(p) {
		return "", false
	}
	return p, true
}

func (t *Tree) index() {
	t.byBase = make(map[string][]string)
	t.walkErr = fs.WalkDir(t.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped, not fatal
			if p == "." {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := t.exclude[d.Name()]; skip && p != "." {
				return fs.SkipDir
			}
			return nil
		}
		base := path.Base(p)
		t.byBase[base] = append(t.byBase[base], p)
		return nil
	})
	for base, paths := range t.byBase {
		slices.SortFunc(paths, func(a, b string) int {
			if len(a) != len(b) {
				return len(a) - len(b)
			}
			return strings.Compare(a, b)
		})
		t.byBase[base] = paths
	}
}
