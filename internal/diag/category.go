package diag

// Category is the closed issue taxonomy. The declaration order is the
// classification precedence: when a message matches several rules, the
// category declared first wins.
type Category uint8

const (
	CatUnresolvedSymbol Category = iota
	CatMissingModuleImport
	CatProtocolConformance
	CatMissingRequiredOverride
	CatConflictingExtensionConformance
	CatInvalidOverride
	CatTypeIncompatibility
	CatUnnecessaryNilCoalescing
	CatUninitializedRequiredField
	CatUnbalancedBlockDelimiter
	CatInvalidDeclaration
	CatVisibilityConflict
	CatConcurrencyAnnotationRequired
	CatLinkerFailure
	CatBuildCommandFailure
	CatOther

	// CategoryCount is the number of categories; not a category itself.
	CategoryCount int = iota
)

var categoryNames = [CategoryCount]string{
	CatUnresolvedSymbol:                "unresolved-symbol",
	CatMissingModuleImport:             "missing-module-import",
	CatProtocolConformance:             "protocol-conformance",
	CatMissingRequiredOverride:         "missing-required-override",
	CatConflictingExtensionConformance: "conflicting-extension-conformance",
	CatInvalidOverride:                 "invalid-override",
	CatTypeIncompatibility:             "type-incompatibility",
	CatUnnecessaryNilCoalescing:        "unnecessary-nil-coalescing",
	CatUninitializedRequiredField:      "uninitialized-required-field",
	CatUnbalancedBlockDelimiter:        "unbalanced-block-delimiter",
	CatInvalidDeclaration:              "invalid-declaration",
	CatVisibilityConflict:              "visibility-conflict",
	CatConcurrencyAnnotationRequired:   "concurrency-annotation-required",
	CatLinkerFailure:                   "linker-failure",
	CatBuildCommandFailure:             "build-command-failure",
	CatOther:                           "other",
}

func (c Category) String() string {
	if int(c) < CategoryCount {
		return categoryNames[c]
	}
	return "unknown"
}

// Categories returns all categories in precedence order.
func Categories() []Category {
	out := make([]Category, CategoryCount)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// ParseCategory returns the category with the given name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return CatOther, false
}
