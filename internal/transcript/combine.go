package transcript

import (
	"errors"
	"sort"

	"murmur/internal/textutil"
)

// ErrNoSegments is returned when no segment result succeeded.
var ErrNoSegments = errors.New("no successful segments")

// Transcript is the recombined output for one source.
type Transcript struct {
	Text       string
	Paragraphs []Paragraph
	// Duration sums the provider-reported duration of successful segments.
	Duration float64
	Channels int
	Model    string
	// Segments is the number of results folded in; Failed lists skipped indexes.
	Segments  int
	Succeeded int
	Failed    []int
}

// HasSpeakers reports whether speaker paragraphs are available.
func (t Transcript) HasSpeakers() bool {
	return len(t.Paragraphs) > 0
}

// Complete reports whether every segment succeeded.
func (t Transcript) Complete() bool {
	return len(t.Failed) == 0
}

// Combine folds results into a Transcript in Index order, regardless of the
// order results were produced in.
func Combine(results []SegmentResult) (Transcript, error) {
	ordered := append([]SegmentResult(nil), results...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	out := Transcript{Segments: len(ordered)}
	haveBase := false
	for _, res := range ordered {
		if !res.OK() {
			out.Failed = append(out.Failed, res.Index)
			continue
		}
		resp := res.Response
		text := textutil.RepairEncoding(resp.Text)
		paragraphs := repairParagraphs(resp.Paragraphs, res.Offset)
		out.Succeeded++
		out.Duration += resp.Duration

		if !haveBase {
			haveBase = true
			out.Text = text
			out.Paragraphs = paragraphs
			out.Channels = resp.Channels
			out.Model = resp.Model
			continue
		}
		out.Text = textutil.AppendSpaced(out.Text, text)
		if out.HasSpeakers() && resp.HasParagraphs() {
			out.Paragraphs = append(out.Paragraphs, paragraphs...)
		}
	}
	if !haveBase {
		return out, ErrNoSegments
	}
	return out, nil
}

func repairParagraphs(in []Paragraph, offset float64) []Paragraph {
	if len(in) == 0 {
		return nil
	}
	out := make([]Paragraph, len(in))
	for i, p := range in {
		p.Text = textutil.RepairEncoding(p.Text)
		p.Start += offset
		p.End += offset
		out[i] = p
	}
	return out
}
