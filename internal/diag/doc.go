// Package diag defines the issue model shared by all pipeline stages.
//
// Issue is the central record: an optional Location, a Severity, the full
// message text, the Category assigned by the classifier and the code
// snippets quoted in the message. Issues are values; stages derive new
// values instead of changing the ones they receive.
//
// Category is a closed enumeration whose declaration order doubles as the
// classification precedence. Every consumer that dispatches on a category
// uses a table sized by CategoryCount so a new category cannot be added
// without a handler.
//
// Bag collects issues for one run and provides the deterministic ordering
// (Sort, Less) and cross-source deduplication (Dedup) the reports rely on.
//
// Package diag performs no IO and no formatting; parsing lives in
// internal/parser, rendering in internal/diagfmt.
package diag
