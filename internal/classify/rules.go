package classify

import (
	"regexp"

	"buildlens/internal/diag"
)

type rule struct {
	cat      diag.Category
	patterns []*regexp.Regexp
}

func re(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// rules are evaluated top to bottom, first match wins. The order follows
// diag.Category declaration order; TestRulesFollowCategoryOrder keeps the two
// in sync.
var rules = []rule{
	{diag.CatUnresolvedSymbol, re(
		`(?i)use of (?:undeclared|unresolved) (?:type|identifier)`,
		`cannot find (?:type )?'[^']+' in scope`,
	)},
	{diag.CatMissingModuleImport, re(
		`(?i)no such module '[^']+'`,
		`module '[^']+' not found`,
	)},
	{diag.CatProtocolConformance, re(
		`does not conform to protocol`,
	)},
	{diag.CatMissingRequiredOverride, re(
		`does not implement required`,
		`must be overridden`,
		`requires an 'override' keyword`,
	)},
	{diag.CatConflictingExtensionConformance, re(
		`conformance of .*to protocol`,
		`redundant conformance`,
	)},
	{diag.CatInvalidOverride, re(
		`'override' can only be specified on class members`,
	)},
	{diag.CatTypeIncompatibility, re(
		`cannot (?:convert|assign) value of type`,
	)},
	{diag.CatUnnecessaryNilCoalescing, re(
		`nil coalescing operator`,
	)},
	{diag.CatUninitializedRequiredField, re(
		`property ['"].*['"] not initialized`,
	)},
	{diag.CatUnbalancedBlockDelimiter, re(
		`expected '\}'`,
	)},
	{diag.CatInvalidDeclaration, re(
		`expected declaration`,
	)},
	{diag.CatVisibilityConflict, re(
		`extension of (?:private|fileprivate|internal) .*cannot be declared (?:fileprivate|internal|public|open)`,
	)},
	{diag.CatConcurrencyAnnotationRequired, re(
		`'Sendable'-related warnings`,
		`@preconcurrency`,
	)},
	{diag.CatLinkerFailure, re(
		`^Undefined symbols? for architecture`,
		`^(?:ld|ld64|ld64\.lld|ld\.lld|lld|ld\.gold|ld\.bfd)(?:\.exe)?: `,
		`(?i)\bundefined (?:symbol|reference to)\b`,
		`^duplicate symbols? `,
		`linker command failed`,
		`library not found for`,
		`framework not found`,
	)},
	{diag.CatBuildCommandFailure, re(
		`^The following build commands failed:`,
		`(?:EmitSwiftModule|SwiftEmitModule)\b.*\bfailed`,
		`Command \S+ failed with a nonzero exit code`,
		`^\*\* (?:BUILD|ARCHIVE|TEST|ANALYZE) FAILED \*\*`,
		`^g?make(?:\[\d+\])?: \*\*\* `,
		`^ninja: build stopped`,
		`^FAILED: `,
	)},
}

// Classify returns the category of a diagnostic message. It is a pure
// function: unmatched text is CatOther, never an error.
func Classify(message string) diag.Category {
	for _, r := range rules {
		for _, p := range r.patterns {
			if p.MatchString(message) {
				return r.cat
			}
		}
	}
	return diag.CatOther
}

// ClassifyAll returns classified copies of issues; the input is not modified.
func ClassifyAll(issues []diag.Issue) []diag.Issue {
	out := make([]diag.Issue, len(issues))
	for i, is := range issues {
		out[i] = is.WithCategory(Classify(is.Message))
	}
	return out
}
