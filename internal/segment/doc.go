// Package segment plans and materializes the time-bounded audio segments a
// source is transcribed in.
//
// Plan turns a probed duration into contiguous windows of a fixed length.
// Probe asks ffprobe for that duration. Adapter cuts each window with ffmpeg
// into a "<stem>_chunk_<index>.wav" file beside the source and re-validates
// the result, because container metadata can be wrong. Invalid windows are
// discarded and, after a run of consecutive invalid windows, generation stops
// early while keeping every valid segment produced so far.
package segment
