// Package logs locates and tails the per-run log files written by murmur.
//
// Run logs are named murmur-<UTC timestamp>.log, so the newest file sorts
// last. Last reads the final N lines with bounded memory; Follow polls from
// an offset and hands each new line to a callback until the context ends.
package logs
