// Package history persists per-file transcription outcomes in SQLite.
//
// Every file a batch run touches produces one Outcome row: completed,
// skipped, failed, or interrupted, along with segment counts and the failure
// class when there was one. The ledger answers "is this content done"; the
// history store answers "what happened on each run" for the CLI.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package history
