// Package preflight provides readiness checks for the tools, credentials,
// and directories murmur depends on.
//
// The CLI "murmur status" command renders RunAll's results. Transcribe and
// watch call Require before touching any file, so a missing binary or API key
// fails the process up front instead of failing every file in the batch.
package preflight
