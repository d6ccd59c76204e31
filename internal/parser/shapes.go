package parser

import (
	"regexp"
	"strings"

	"buildlens/internal/diag"
)

var (
	// path:line[:column]: severity: message
	locatedRe = regexp.MustCompile(`^\s*((?:[A-Za-z]:)?[^:\s][^:]*?):(\d+):(?:(\d+):)?\s*(fatal error|error|warning|note|remark):\s?(.*)$`)

	// CI runner timestamps, e.g. "2024-05-01T10:00:00.1234567Z "
	timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z\s`)

	snippetRe = regexp.MustCompile("`([^`]+)`")

	// classic caret line under an echoed source line
	caretRe = regexp.MustCompile(`^\s*[\^~][\s\^~]*$`)
	// "  10 |     x = 1" (swift 6 style excerpt)
	gutterRe = regexp.MustCompile(`^\s*(\d+) \| ?(.*)$`)
)

// linkerMarkers start a linker-style diagnostic. Checked before the
// generic build-system shapes, since "clang: error: linker command failed"
// is both.
var linkerMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^Undefined symbols? for architecture \S+:`),
	regexp.MustCompile(`^(?:ld|ld64|ld64\.lld|ld\.lld|lld|ld\.gold|ld\.bfd)(?:\.exe)?: `),
	regexp.MustCompile(`^(?i:undefined (?:symbol|reference to))\b`),
	regexp.MustCompile(`^duplicate symbols? `),
	regexp.MustCompile(`^(?:clang|clang\+\+|swiftc|cc|c\+\+|gcc|g\+\+|collect2)(?:\.exe)?: (?:fatal )?error: (?:linker command failed|ld returned)`),
}

var linkerWarningRe = regexp.MustCompile(`^(?:ld|ld64|ld64\.lld|ld\.lld|lld|ld\.gold|ld\.bfd)(?:\.exe)?: warning:`)

// buildMarkers start a build-system summary.
var buildMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^The following build commands failed:`),
	regexp.MustCompile(`(?:EmitSwiftModule|SwiftEmitModule)\b.*\bfailed`),
	regexp.MustCompile(`^(?:error: )?Command \S+ failed with a nonzero exit code`),
	regexp.MustCompile(`^\*\* (?:BUILD|ARCHIVE|TEST|ANALYZE) FAILED \*\*`),
	regexp.MustCompile(`^(?:g?make|gmake)(?:\[\d+\])?: \*\*\* .*Error \d+`),
	regexp.MustCompile(`^ninja: build stopped: `),
	regexp.MustCompile(`^FAILED: `),
}

// unlocated "error: ..." or "<tool>: error: ..."
var genericRe = regexp.MustCompile(`^(?:[\w.+-]+: )?(?:fatal )?(error|warning): \S`)

// recordRe matches lines that open a new build-tool record. They end a
// message without being diagnostics themselves.
var recordRe = regexp.MustCompile(`^(?:` +
	`(?:CompileSwift|SwiftCompile|CompileSwiftSources|CompileC|Ld|Libtool|SwiftDriver|SwiftDriverJobDiscovery|` +
	`SwiftMergeGeneratedHeaders|MergeSwiftModule|EmitSwiftModule|SwiftEmitModule|ProcessInfoPlistFile|CodeSign|` +
	`PhaseScriptExecution|Touch|CopySwiftLibs|CompileAssetCatalog|CompileStoryboard|CompileXIB|LinkStoryboards|` +
	`CpResource|CpHeader|CreateBuildDirectory|WriteAuxiliaryFile|ProcessProductPackaging|GenerateDSYMFile|` +
	`RegisterExecutionPolicyException|Validate|ExtractAppIntentsMetadata|ScanDependencies|PrecompileModule) \S` +
	`|=== .+ ===$` +
	`|\*\* .+ \*\*$` +
	`|\d+ (?:errors?|warnings?)(?: and \d+ warnings?)? generated\.$` +
	`|\[\d+/\d+\] ` +
	`|(?:Compiling|Linking|Building|Emitting module|Build complete|Build succeeded|Planning build)\b` +
	`)`)

// header describes a line that starts a diagnostic.
type header struct {
	shape    diag.Shape
	severity diag.Severity
	// located only
	path    string
	line    int
	column  int
	message string
}

// stripTimestamp removes a CI timestamp prefix.
func stripTimestamp(line string) string {
	if loc := timestampRe.FindStringIndex(line); loc != nil {
		return line[loc[1]:]
	}
	return line
}

// parseHeader reports whether line starts a diagnostic of any shape.
func parseHeader(line string) (header, bool) {
	if m := locatedRe.FindStringSubmatch(line); m != nil {
		ln, ok := atoi(m[2])
		if !ok || ln == 0 {
			return header{}, false
		}
		col := 0
		if m[3] != "" {
			col, _ = atoi(m[3])
		}
		sev, _ := diag.ParseSeverity(m[4])
		return header{
			shape:    diag.ShapeLocated,
			severity: sev,
			path:     m[1],
			line:     ln,
			column:   col,
			message:  m[5],
		}, true
	}

	text := strings.TrimRight(line, " \t")
	for _, re := range linkerMarkers {
		if re.MatchString(text) {
			sev := diag.SevError
			if linkerWarningRe.MatchString(text) {
				sev = diag.SevWarning
			}
			return header{shape: diag.ShapeLinker, severity: sev, message: text}, true
		}
	}
	for _, re := range buildMarkers {
		if re.MatchString(text) {
			return header{shape: diag.ShapeBuildSystem, severity: diag.SevError, message: text}, true
		}
	}
	if m := genericRe.FindStringSubmatch(text); m != nil {
		sev, _ := diag.ParseSeverity(m[1])
		return header{shape: diag.ShapeBuildSystem, severity: sev, message: text}, true
	}
	return header{}, false
}

// isBoundary reports whether line ends the message collected so far.
func isBoundary(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	if _, ok := parseHeader(line); ok {
		return true
	}
	return recordRe.MatchString(line)
}

// atoi parses a non-negative decimal without allocating.
func atoi(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// snippets returns the distinct backtick-quoted fragments of msg in order.
func snippets(msg string) []string {
	matches := snippetRe.FindAllStringSubmatch(msg, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// excerpt finds the source line the compiler echoed for line ln.
func excerpt(cont []string, ln int) string {
	for i, c := range cont {
		if m := gutterRe.FindStringSubmatch(c); m != nil {
			if n, ok := atoi(m[1]); ok && n == ln {
				return m[2]
			}
			continue
		}
		if i+1 < len(cont) && caretRe.MatchString(cont[i+1]) && !caretRe.MatchString(c) {
			return c
		}
	}
	return ""
}
