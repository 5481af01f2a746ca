package segment

import (
	"fmt"
	"math"
)

// Spec is one planned window of a source. Index defines recombination order.
type Spec struct {
	Index  int
	Start  float64
	Length float64
}

// End returns the exclusive end offset of the window in seconds.
func (s Spec) End() float64 {
	return s.Start + s.Length
}

// Plan splits duration seconds into ceil(duration/length) contiguous windows.
// Every window except the last is exactly length seconds long; the last
// carries the remainder so the plan covers [0, duration) exactly.
func Plan(duration, length float64) ([]Spec, error) {
	if math.IsNaN(duration) || duration <= 0 {
		return nil, fmt.Errorf("plan segments: invalid duration %v", duration)
	}
	if math.IsNaN(length) || length <= 0 {
		return nil, fmt.Errorf("plan segments: invalid segment length %v", length)
	}
	count := int(math.Ceil(duration / length))
	if count < 1 {
		count = 1
	}
	plan := make([]Spec, count)
	for i := range plan {
		start := float64(i) * length
		plan[i] = Spec{Index: i, Start: start, Length: length}
	}
	last := &plan[count-1]
	last.Length = duration - last.Start
	return plan, nil
}
