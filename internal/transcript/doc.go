// Package transcript holds the typed provider response, the ordered
// recombination of per-segment results, and the markdown formats murmur
// writes to disk.
//
// Combine folds SegmentResults strictly by index: the first successful
// segment is the base and later successful segments append their text (and
// speaker paragraphs when both sides carry them). Failed segments are skipped
// and reported. Render and RenderSpeakers produce the two sibling files, and
// ParseSourceHash reads back the content hash a transcript was written for.
package transcript
