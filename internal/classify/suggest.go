package classify

import (
	"fmt"

	"buildlens/internal/diag"
)

type suggester func(Params) string

// suggesters has one entry per category, indexed by category.
var suggesters = [...]suggester{
	diag.CatUnresolvedSymbol: func(p Params) string {
		if p.Symbol == "" {
			return "Declare the missing symbol or import the module that defines it."
		}
		return fmt.Sprintf("Declare '%s' or import the module that defines it; check spelling and target membership.", p.Symbol)
	},
	diag.CatMissingModuleImport: func(p Params) string {
		if p.Module == "" {
			return "Add the missing import and make sure the module is linked to this target."
		}
		return fmt.Sprintf("Add 'import %s' and make sure the %s module is a dependency of this target.", p.Module, p.Module)
	},
	diag.CatProtocolConformance: func(p Params) string {
		switch {
		case p.Protocol == "":
			return "Implement the missing protocol requirements or remove the conformance."
		case p.Type == "":
			return fmt.Sprintf("Implement the requirements of protocol '%s' or remove the conformance.", p.Protocol)
		}
		return fmt.Sprintf("Implement the requirements of protocol '%s' in '%s' or remove the conformance.", p.Protocol, p.Type)
	},
	diag.CatMissingRequiredOverride: func(p Params) string {
		if p.Member == "" {
			return "Implement the required member in the subclass or conforming type."
		}
		return fmt.Sprintf("Implement the required member '%s' in the subclass or conforming type.", p.Member)
	},
	diag.CatConflictingExtensionConformance: func(p Params) string {
		if p.Type == "" || p.Protocol == "" {
			return "Remove the duplicate protocol conformance; it is already declared elsewhere."
		}
		return fmt.Sprintf("Remove the duplicate conformance of '%s' to '%s'; it is already declared elsewhere.", p.Type, p.Protocol)
	},
	diag.CatInvalidOverride: func(Params) string {
		return "Remove 'override': it is only valid on class members that override a superclass member."
	},
	diag.CatTypeIncompatibility: func(p Params) string {
		if p.FromType == "" || p.ToType == "" {
			return "Convert the value explicitly or change the declared type."
		}
		return fmt.Sprintf("Convert the value from '%s' to '%s' explicitly or change the declared type.", p.FromType, p.ToType)
	},
	diag.CatUnnecessaryNilCoalescing: func(p Params) string {
		if p.Type == "" {
			return "Remove the '??' fallback: the left side is not optional."
		}
		return fmt.Sprintf("Remove the '??' fallback: the left side has non-optional type '%s'.", p.Type)
	},
	diag.CatUninitializedRequiredField: func(p Params) string {
		if p.Property == "" {
			return "Give the stored property a default value or assign it in every initializer."
		}
		return fmt.Sprintf("Give property '%s' a default value or assign it in every initializer.", p.Property)
	},
	diag.CatUnbalancedBlockDelimiter: func(Params) string {
		return "Add the missing closing '}' for the open block."
	},
	diag.CatInvalidDeclaration: func(Params) string {
		return "Check for a stray statement or an unbalanced brace at declaration level."
	},
	diag.CatVisibilityConflict: func(p Params) string {
		if p.Qualifier == "" {
			return "Remove the access modifier: an extension cannot be more visible than its base type."
		}
		return fmt.Sprintf("Remove the '%s' modifier: the extension cannot be more visible than its %s base type.", p.Qualifier, p.Base)
	},
	diag.CatConcurrencyAnnotationRequired: func(p Params) string {
		if p.Module == "" {
			return fmt.Sprintf("Mark the import with %s or make the affected types Sendable.", p.Attribute)
		}
		return fmt.Sprintf("Prefix 'import %s' with %s or make the affected types Sendable.", p.Module, p.Attribute)
	},
	diag.CatLinkerFailure: func(p Params) string {
		switch {
		case p.Library != "":
			return fmt.Sprintf("Make sure '%s' is built and its search path is set for the linking target.", p.Library)
		case p.Symbol != "":
			return fmt.Sprintf("Link the library or framework that defines '%s', or add the missing implementation.", p.Symbol)
		}
		return "Check the linked libraries and frameworks of the target."
	},
	diag.CatBuildCommandFailure: func(p Params) string {
		if p.Command == "" {
			return "Fix the compiler errors reported above; this line only summarizes the failure."
		}
		return fmt.Sprintf("Fix the errors reported for the failing %s step above; this line only summarizes the failure.", p.Command)
	},
	diag.CatOther: func(Params) string {
		return "Review the full diagnostic; no specific guidance is available for this message."
	},
}

// a missing trailing category fails to compile here
var _ = [1]struct{}{}[len(suggesters)-diag.CategoryCount]

// Suggest returns the one-line suggestion for an issue of category cat.
// It depends only on its arguments.
func Suggest(cat diag.Category, p Params) string {
	if int(cat) >= len(suggesters) || suggesters[cat] == nil {
		return suggesters[diag.CatOther](p)
	}
	return suggesters[cat](p)
}
