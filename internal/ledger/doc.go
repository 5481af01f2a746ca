// Package ledger tracks which source files have been fully transcribed.
//
// Records are keyed by the SHA-256 of a file's contents, so a renamed or
// moved file with identical bytes is still recognized. The whole record set
// lives in one JSON file that is rewritten atomically after every mutation.
// Mutations hold an in-process mutex plus an advisory file lock and re-read
// the file first, so concurrent murmur processes do not lose each other's
// updates. A missing, empty, or malformed ledger loads as an empty one.
//
// IsProcessed can also adopt a transcript that already sits next to a source
// when the transcript records the same content hash (or, optionally, when it
// predates hash recording).
package ledger
