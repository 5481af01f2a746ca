// Package output persists recombined transcripts and finishes a source.
//
// Write renders the plain and speaker transcripts, stages both in temp files
// beside the source, and renames them into place. If any step fails every
// file written by the call is removed, so no partial transcript can later be
// mistaken for a finished one. Finalize then marks the source processed and
// deletes the segment artifacts and any extracted intermediate audio.
package output
