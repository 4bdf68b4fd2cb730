package schedule

import (
	"math"
	"time"
)

// MinWidth keeps zero-length bars visible.
const MinWidth = 0.5

// Position maps t to a percentage offset inside the range, clamped to [0, 100].
func (r Range) Position(t time.Time) float64 {
	pos := float64(t.Sub(r.Start).Milliseconds()) / float64(r.duration()) * 100
	return math.Max(0, math.Min(100, pos))
}

// Width is the percentage a bar from start to end occupies. It is floored at MinWidth
// and not clamped above, so a bar that leaves the range overflows.
func (r Range) Width(start, end time.Time) float64 {
	w := float64(end.Sub(start).Milliseconds()) / float64(r.duration()) * 100
	return math.Max(MinWidth, w)
}

func (r Range) duration() int64 {
	if r.DurationMs < 1 {
		return 1
	}
	return r.DurationMs
}
