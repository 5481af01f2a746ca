// Package pipeline runs sources through probe, segmentation, dispatch,
// recombination, and output.
//
// A Pipeline owns one dispatch.Engine, so every file in a batch shares the
// same concurrency cap and rate limiter. ProcessBatch runs files on a bounded
// worker pool and never stops early on a file failure: each file ends as a
// FileResult with a history status, which is also recorded in the history
// store when one is configured. Only a completed write marks a source in the
// ledger.
package pipeline
