package manifest

import (
	"fmt"

	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// RouteInfo holds the per-segment times of a route, in epoch milliseconds.
// It only feeds viewing links and diagnostics.
type RouteInfo struct {
	SegmentStartTimes []int64 `json:"segment_start_times"`
	SegmentEndTimes   []int64 `json:"segment_end_times"`

	route route.Route
}

// Segments returns the number of segments with both a start and an end time.
func (ri *RouteInfo) Segments() int {
	return min(len(ri.SegmentStartTimes), len(ri.SegmentEndTimes))
}

// Span returns the start time of segment first and the end time of segment last.
func (ri *RouteInfo) Span(first, last int) (start, end int64, err error) {
	n := ri.Segments()
	for _, s := range []int{first, last} {
		if s < 0 || s >= n {
			return 0, 0, &RouteInfoUnavailableError{
				Route:  ri.route,
				Reason: fmt.Sprintf("segment %d is outside the route (%d segments)", s, n),
			}
		}
	}
	return ri.SegmentStartTimes[first], ri.SegmentEndTimes[last], nil
}
