// Package fix computes conservative, file-local source edits for the few
// issue categories that have a well-known narrow repair.
//
// Every file is snapshotted once; edits are computed against that snapshot
// as line-range replacements, checked for overlap and applied bottom to top
// in a single batch. Issues that cannot be fixed get a suggestion with the
// reason instead. Nothing in this package writes to disk.
package fix
