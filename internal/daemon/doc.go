// Package daemon runs murmur in watch mode.
//
// A Daemon polls one directory, waits until each new media file's size has
// been stable across two polls, and hands the ready files to the pipeline as
// a batch. A flock on the watch lock file keeps a second watcher from running
// against the same state directory. The ledger makes rework impossible even
// when the watcher restarts, so the daemon keeps only in-memory bookkeeping.
package daemon
