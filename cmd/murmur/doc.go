// Package main hosts the murmur CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, builds
// the structured logger, and hands work to the internal packages: pipeline
// for transcribe, daemon for watch, ledger and history for inspection, and
// preflight for status. Keep commands thin; behaviour belongs in internal/.
package main
