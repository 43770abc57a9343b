package route

import (
	"errors"
	"fmt"
	"time"
)

// SegmentDuration is the fixed length of every segment of a route.
const SegmentDuration = 60 * time.Second

const segmentSeconds = int(SegmentDuration / time.Second)

// ErrInvalidWindow is returned for windows with negative fields.
var ErrInvalidWindow = errors.New("route: invalid window")

// Window is a span of a route, in whole seconds from the route start.
type Window struct {
	// Smear pulls the start of the window earlier so decoders get some
	// pre-roll before the interesting part.
	Smear int

	// Start is the offset of the interesting part.
	Start int

	// Length is the duration of the interesting part.
	Length int
}

// Segments returns the segment indices covering w, inclusive of both
// boundary segments since each may hold part of the window.
//
//	Start: 0,   Length: 60 -> [0 1]
//	Start: 10,  Length: 60 -> [0 1]
//	Start: 400, Length: 60 -> [6 7]
func Segments(w Window) ([]int, error) {
	if w.Smear < 0 || w.Start < 0 || w.Length < 0 {
		return nil, fmt.Errorf("%w: smear=%d start=%d length=%d", ErrInvalidWindow, w.Smear, w.Start, w.Length)
	}

	actualStart := max(0, w.Start-w.Smear)
	first := actualStart / segmentSeconds
	last := (w.Start + w.Length) / segmentSeconds

	segments := make([]int, 0, last-first+1)
	for s := first; s <= last; s++ {
		segments = append(segments, s)
	}
	return segments, nil
}
