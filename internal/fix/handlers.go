package fix

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"buildlens/internal/classify"
	"buildlens/internal/diag"
	"buildlens/internal/source"
)

var (
	errNoMatch    = errors.New("no pattern match")
	errSatisfied  = errors.New("already satisfied")
	errOutOfRange = errors.New("line out of range")
)

// fileState is the per-file scratch state shared by the handlers of one pass.
type fileState struct {
	file       *source.File
	lookaround int
	// deficit is the number of '}' still missing; computed lazily.
	deficit    int
	deficitSet bool
}

func (fs *fileState) line(n int) (string, error) {
	l, ok := fs.file.Line(n)
	if !ok {
		return "", fmt.Errorf("%s:%d: %w", fs.file.Path, n, errOutOfRange)
	}
	return l, nil
}

// replaceLine builds an operation that rewrites line n.
func (fs *fileState) replaceLine(n int, old, repl, rationale string) EditOperation {
	return EditOperation{
		File:      fs.file.Path,
		Range:     LineRange{Start: n, End: n},
		OldText:   old,
		NewText:   repl,
		Rationale: rationale,
	}
}

// commit records an accepted operation.
func (fs *fileState) commit(op EditOperation) {
	if op.Category == diag.CatUnbalancedBlockDelimiter {
		fs.deficit--
	}
}

type handler func(fs *fileState, is diag.Issue, p classify.Params) (EditOperation, error)

// handlers has an entry for every category with an automatic fix.
var handlers = [diag.CategoryCount]handler{
	diag.CatUnbalancedBlockDelimiter:      fixBlockDelimiter,
	diag.CatVisibilityConflict:            fixVisibility,
	diag.CatMissingModuleImport:           fixMissingImport,
	diag.CatConcurrencyAnnotationRequired: fixConcurrencyImport,
	diag.CatUninitializedRequiredField:    fixUninitializedField,
}

// Supported reports whether cat has an automatic fix.
func Supported(cat diag.Category) bool {
	return int(cat) < len(handlers) && handlers[cat] != nil
}

// SupportedCategories lists the categories with an automatic fix in taxonomy order.
func SupportedCategories() []diag.Category {
	var out []diag.Category
	for _, c := range diag.Categories() {
		if Supported(c) {
			out = append(out, c)
		}
	}
	return out
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func fixBlockDelimiter(fs *fileState, is diag.Issue, _ classify.Params) (EditOperation, error) {
	if !fs.deficitSet {
		fs.deficit = braceBalance(fs.file.Lines)
		fs.deficitSet = true
	}
	if fs.deficit <= 0 {
		return EditOperation{}, errSatisfied
	}
	line, err := fs.line(is.Loc.Line)
	if err != nil {
		return EditOperation{}, err
	}
	op := fs.replaceLine(is.Loc.Line, line, line+"\n"+leadingSpace(line)+"}",
		fmt.Sprintf("Inserted missing '}' after line %d", is.Loc.Line))
	return op, nil
}

func fixVisibility(fs *fileState, is diag.Issue, p classify.Params) (EditOperation, error) {
	if p.Qualifier == "" {
		return EditOperation{}, errNoMatch
	}
	line, err := fs.line(is.Loc.Line)
	if err != nil {
		return EditOperation{}, err
	}
	qualRe := regexp.MustCompile(`(^|\s)` + regexp.QuoteMeta(p.Qualifier) + `\s+`)
	loc := qualRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return EditOperation{}, errNoMatch
	}
	// loc[3] is the end of the leading whitespace group
	updated := line[:loc[3]] + line[loc[1]:]
	op := fs.replaceLine(is.Loc.Line, line, updated,
		fmt.Sprintf("Removed '%s' from the extension declaration", p.Qualifier))
	return op, nil
}

var importRe = regexp.MustCompile(`^\s*((?:@\w+\s+)*)import\s+(?:(?:typealias|struct|class|enum|protocol|let|var|func)\s+)?([\w]+)`)

// importLines returns the 1-based line numbers of import statements and the
// module each one imports.
func importLines(lines []string) ([]int, []string) {
	var nums []int
	var mods []string
	for i, l := range lines {
		if m := importRe.FindStringSubmatch(l); m != nil {
			nums = append(nums, i+1)
			mods = append(mods, m[2])
		}
	}
	return nums, mods
}

func isCommentOrBlank(l string) bool {
	t := strings.TrimSpace(l)
	return t == "" || strings.HasPrefix(t, "//")
}

func fixMissingImport(fs *fileState, _ diag.Issue, p classify.Params) (EditOperation, error) {
	if p.Module == "" {
		return EditOperation{}, errNoMatch
	}
	nums, mods := importLines(fs.file.Lines)
	for _, m := range mods {
		if m == p.Module {
			return EditOperation{}, errSatisfied
		}
	}
	stmt := "import " + p.Module
	rationale := fmt.Sprintf("Added 'import %s'", p.Module)

	if len(nums) > 0 {
		last := nums[len(nums)-1]
		line, _ := fs.line(last)
		return fs.replaceLine(last, line, line+"\n"+stmt, rationale), nil
	}

	lines := fs.file.Lines
	if len(lines) == 0 {
		return EditOperation{}, errNoMatch
	}
	for i, l := range lines {
		if !isCommentOrBlank(l) {
			return fs.replaceLine(i+1, l, stmt+"\n"+l, rationale), nil
		}
	}
	// only comments: append after them
	n := len(lines)
	return fs.replaceLine(n, lines[n-1], lines[n-1]+"\n"+stmt, rationale), nil
}

func fixConcurrencyImport(fs *fileState, is diag.Issue, p classify.Params) (EditOperation, error) {
	attr := p.Attribute
	if attr == "" {
		attr = "@preconcurrency"
	}

	target := 0
	if line, err := fs.line(is.Loc.Line); err == nil {
		if m := importRe.FindStringSubmatch(line); m != nil && (p.Module == "" || m[2] == p.Module) {
			target = is.Loc.Line
		}
	}
	if target == 0 && p.Module != "" {
		nums, mods := importLines(fs.file.Lines)
		for i, m := range mods {
			if m == p.Module {
				target = nums[i]
				break
			}
		}
	}
	if target == 0 {
		return EditOperation{}, errNoMatch
	}

	line, _ := fs.line(target)
	m := importRe.FindStringSubmatch(line)
	if strings.Contains(m[1], attr) {
		return EditOperation{}, errSatisfied
	}
	indent := leadingSpace(line)
	updated := indent + attr + " " + strings.TrimLeft(line, " \t")
	return fs.replaceLine(target, line, updated,
		fmt.Sprintf("Marked 'import %s' with %s", m[2], attr)), nil
}

// declRe matches "<modifiers> name: Type // comment" for a given name.
func declRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`^(\s*(?:(?:@\w+(?:\([^)]*\))?|[a-z]+(?:\([^)]*\))?)\s+)*` +
		regexp.QuoteMeta(name) + `\s*:\s*)(.*)$`)
}

var typeTailRe = regexp.MustCompile(`^([^=/{}]*[^=/{}\s])(\s*(?://.*)?)$`)

func fixUninitializedField(fs *fileState, is diag.Issue, p classify.Params) (EditOperation, error) {
	if p.Property == "" {
		return EditOperation{}, errNoMatch
	}
	if _, err := fs.line(is.Loc.Line); err != nil {
		return EditOperation{}, err
	}
	re := declRe(p.Property)

	look := fs.lookaround
	for d := 0; d <= look; d++ {
		for _, n := range nearby(is.Loc.Line, d) {
			line, ok := fs.file.Line(n)
			if !ok {
				continue
			}
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			rest := m[2]
			if strings.Contains(stripComment(rest), "=") {
				return EditOperation{}, errSatisfied
			}
			tm := typeTailRe.FindStringSubmatch(rest)
			if tm == nil {
				return EditOperation{}, errNoMatch
			}
			def, ok := defaultValue(tm[1])
			if !ok {
				return EditOperation{}, errNoMatch
			}
			updated := m[1] + tm[1] + " = " + def + tm[2]
			return fs.replaceLine(n, line, updated,
				fmt.Sprintf("Initialized '%s' with %s", p.Property, def)), nil
		}
	}
	return EditOperation{}, errNoMatch
}

// nearby returns the lines at distance d from line, upper one first.
func nearby(line, d int) []int {
	if d == 0 {
		return []int{line}
	}
	return []int{line - d, line + d}
}

func stripComment(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		return s[:i]
	}
	return s
}

var (
	stringTypes = map[string]bool{"String": true, "Substring": true, "Character": true}
	numberTypes = map[string]bool{
		"Int": true, "Int8": true, "Int16": true, "Int32": true, "Int64": true,
		"UInt": true, "UInt8": true, "UInt16": true, "UInt32": true, "UInt64": true,
		"Float": true, "Float16": true, "Float32": true, "Float64": true, "Float80": true,
		"Double": true, "CGFloat": true, "Decimal": true, "TimeInterval": true,
	}
)

// defaultValue returns the literal that initializes a value of type typ.
func defaultValue(typ string) (string, bool) {
	t := strings.TrimSpace(typ)
	switch {
	case t == "":
		return "", false
	case strings.HasSuffix(t, "?"), strings.HasSuffix(t, "!"), strings.HasPrefix(t, "Optional<"):
		return "nil", true
	case strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]"):
		if topLevelColon(t[1 : len(t)-1]) {
			return "[:]", true
		}
		return "[]", true
	case strings.HasPrefix(t, "Dictionary<"):
		return "[:]", true
	case strings.HasPrefix(t, "Array<"), strings.HasPrefix(t, "Set<"):
		return "[]", true
	case t == "Bool":
		return "false", true
	case stringTypes[t]:
		return `""`, true
	case numberTypes[t]:
		return "0", true
	}
	return "", false
}

func topLevelColon(s string) bool {
	depth := 0
	for _, c := range s {
		switch c {
		case '[', '<', '(':
			depth++
		case ']', '>', ')':
			depth--
		case ':':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}
