// Package source handles text on the way in: decoding of log blobs,
// snapshots of source files split into lines, path normalisation and the
// read-only source tree used by remediation.
//
// Snapshots remember how the file was normalized (BOM, CRLF, trailing
// newline) so File.Render can return bytes that differ from the original only
// where an edit was applied.
package source
