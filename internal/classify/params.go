package classify

import (
	"regexp"
	"strings"

	"buildlens/internal/diag"
)

// Params are the identifiers named by a diagnostic message.
// Unused fields stay empty.
type Params struct {
	Symbol    string `json:"symbol,omitempty" msgpack:"symbol,omitempty"`
	Module    string `json:"module,omitempty" msgpack:"module,omitempty"`
	Protocol  string `json:"protocol,omitempty" msgpack:"protocol,omitempty"`
	Type      string `json:"type,omitempty" msgpack:"type,omitempty"`
	Property  string `json:"property,omitempty" msgpack:"property,omitempty"`
	Member    string `json:"member,omitempty" msgpack:"member,omitempty"`
	FromType  string `json:"from_type,omitempty" msgpack:"from_type,omitempty"`
	ToType    string `json:"to_type,omitempty" msgpack:"to_type,omitempty"`
	Base      string `json:"base,omitempty" msgpack:"base,omitempty"`           // narrower visibility of the extended type
	Qualifier string `json:"qualifier,omitempty" msgpack:"qualifier,omitempty"` // broader visibility that was written
	Attribute string `json:"attribute,omitempty" msgpack:"attribute,omitempty"`
	Library   string `json:"library,omitempty" msgpack:"library,omitempty"`
	Command   string `json:"command,omitempty" msgpack:"command,omitempty"`
}

var (
	symbolRes = re(
		`use of (?:undeclared|unresolved) (?:type|identifier) '([^']+)'`,
		`cannot find (?:type )?'([^']+)' in scope`,
	)
	moduleRes = re(
		`(?i)no such module '([^']+)'`,
		`module '([^']+)' not found`,
	)
	conformanceRe      = regexp.MustCompile(`type '([^']+)' does not conform to protocol '([^']+)'`)
	protocolRe         = regexp.MustCompile(`protocol '([^']+)'`)
	memberRes          = re(`does not implement required[^']*'([^']+)'`, `'([^']+)' must be overridden`)
	extConformanceRe   = regexp.MustCompile(`conformance of '([^']+)' to protocol '([^']+)'`)
	convertRe          = regexp.MustCompile(`cannot (?:convert|assign) value of type '([^']+)' to (?:\w+ )*type '([^']+)'`)
	nilCoalescingRe    = regexp.MustCompile(`non-optional type '([^']+)'`)
	propertyRe         = regexp.MustCompile(`property ['"]([^'"]+)['"] not initialized`)
	visibilityRe       = regexp.MustCompile(`extension of (private|fileprivate|internal) .*cannot be declared (fileprivate|internal|public|open)`)
	attributeRe        = regexp.MustCompile(`'?(@\w+)'?`)
	fromModuleRe       = regexp.MustCompile(`module '([^']+)'`)
	referencedRe       = regexp.MustCompile(`"([^"]+)", referenced from`)
	undefinedSymbolRe  = regexp.MustCompile(`(?i)undefined (?:symbol|reference to)[: ]+['"` + "`" + `]?([^'"` + "`" + `\s]+)`)
	libraryRes         = re(`library not found for -l(\S+)`, `library '([^']+)' not found`, `framework not found (\S+)`, `framework '([^']+)' not found`)
	failedCommandRe    = regexp.MustCompile(`Command (\S+) failed`)
	failedCommandLine  = regexp.MustCompile(`(?m)^\s+(\w+)\s`)
	emitModuleFailedRe = regexp.MustCompile(`(EmitSwiftModule|SwiftEmitModule)\b.*\bfailed`)
)

func first(res []*regexp.Regexp, msg string) string {
	for _, r := range res {
		if m := r.FindStringSubmatch(msg); m != nil {
			return m[1]
		}
	}
	return ""
}

// Extract pulls the identifiers relevant to cat out of message.
func Extract(cat diag.Category, message string) Params {
	var p Params
	switch cat {
	case diag.CatUnresolvedSymbol:
		p.Symbol = first(symbolRes, message)
	case diag.CatMissingModuleImport:
		p.Module = first(moduleRes, message)
	case diag.CatProtocolConformance:
		if m := conformanceRe.FindStringSubmatch(message); m != nil {
			p.Type, p.Protocol = m[1], m[2]
		} else if m := protocolRe.FindStringSubmatch(message); m != nil {
			p.Protocol = m[1]
		}
	case diag.CatMissingRequiredOverride:
		p.Member = first(memberRes, message)
		if m := protocolRe.FindStringSubmatch(message); m != nil {
			p.Protocol = m[1]
		}
	case diag.CatConflictingExtensionConformance:
		if m := extConformanceRe.FindStringSubmatch(message); m != nil {
			p.Type, p.Protocol = m[1], m[2]
		}
	case diag.CatTypeIncompatibility:
		if m := convertRe.FindStringSubmatch(message); m != nil {
			p.FromType, p.ToType = m[1], m[2]
		}
	case diag.CatUnnecessaryNilCoalescing:
		if m := nilCoalescingRe.FindStringSubmatch(message); m != nil {
			p.Type = m[1]
		}
	case diag.CatUninitializedRequiredField:
		if m := propertyRe.FindStringSubmatch(message); m != nil {
			p.Property = strings.TrimPrefix(m[1], "self.")
		}
	case diag.CatVisibilityConflict:
		if m := visibilityRe.FindStringSubmatch(message); m != nil {
			p.Base, p.Qualifier = m[1], m[2]
		}
	case diag.CatConcurrencyAnnotationRequired:
		p.Attribute = "@preconcurrency"
		if m := attributeRe.FindStringSubmatch(message); m != nil {
			p.Attribute = m[1]
		}
		if m := fromModuleRe.FindStringSubmatch(message); m != nil {
			p.Module = m[1]
		}
	case diag.CatLinkerFailure:
		if m := referencedRe.FindStringSubmatch(message); m != nil {
			p.Symbol = m[1]
		} else if m := undefinedSymbolRe.FindStringSubmatch(message); m != nil {
			p.Symbol = m[1]
		}
		p.Library = first(libraryRes, message)
	case diag.CatBuildCommandFailure:
		switch {
		case emitModuleFailedRe.MatchString(message):
			p.Command = emitModuleFailedRe.FindStringSubmatch(message)[1]
		case failedCommandRe.MatchString(message):
			p.Command = failedCommandRe.FindStringSubmatch(message)[1]
		default:
			if m := failedCommandLine.FindStringSubmatch(message); m != nil {
				p.Command = m[1]
			}
		}
	case diag.CatInvalidOverride, diag.CatUnbalancedBlockDelimiter, diag.CatInvalidDeclaration, diag.CatOther:
		// nothing to extract
	}
	return p
}
