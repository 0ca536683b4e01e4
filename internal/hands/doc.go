// Package hands parses and stores hero hand-history records.
//
// Hand histories arrive as JSON-lines files exported by the tracker. The
// parser skips malformed lines (counting them) rather than failing the whole
// file, and the store deduplicates by a content fingerprint so re-importing
// an export is idempotent.
package hands
