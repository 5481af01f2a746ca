package transcript

// Paragraph is a speaker-attributed span of a transcript.
type Paragraph struct {
	Speaker int
	Start   float64
	End     float64
	Text    string
}

// Response is one provider answer for a single segment.
type Response struct {
	Text       string
	Paragraphs []Paragraph
	// Duration is the audio length the provider reports, in seconds.
	Duration float64
	Channels int
	Model    string
	Language string
}

// HasParagraphs reports whether the response carries speaker data.
func (r Response) HasParagraphs() bool {
	return len(r.Paragraphs) > 0
}

// SegmentResult is the terminal outcome of transcribing one segment.
type SegmentResult struct {
	Index int
	// Offset is the segment start within the source, in seconds.
	Offset   float64
	Response Response
	Err      error
	Attempts int
}

// OK reports whether the segment produced a response.
func (r SegmentResult) OK() bool {
	return r.Err == nil
}
