package route

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Separator joins the dongle ID and the route timestamp.
const Separator = "|"

// ErrMalformedRoute is returned when a route string has no dongle ID or no
// timestamp component.
var ErrMalformedRoute = errors.New("route: malformed route")

var segmentSuffix = regexp.MustCompile(`--\d+$`)

// Route identifies a single drive: "<dongle>|<timestamp>".
type Route struct {
	dongle    string
	timestamp string
}

// Parse normalizes a route or segment name into a Route.
//
//	a2a0ccea32023010|2023-07-27--13-01-19    -> a2a0ccea32023010|2023-07-27--13-01-19
//	a2a0ccea32023010|2023-07-27--13-01-19--5 -> a2a0ccea32023010|2023-07-27--13-01-19
func Parse(s string) (Route, error) {
	canonical := segmentSuffix.ReplaceAllString(strings.TrimSpace(s), "")

	dongle, timestamp, ok := strings.Cut(canonical, Separator)
	if !ok {
		return Route{}, fmt.Errorf("%w: %q has no %q separator", ErrMalformedRoute, s, Separator)
	}
	if dongle == "" {
		return Route{}, fmt.Errorf("%w: %q has an empty dongle ID", ErrMalformedRoute, s)
	}
	if timestamp == "" {
		return Route{}, fmt.Errorf("%w: %q has an empty timestamp", ErrMalformedRoute, s)
	}

	return Route{dongle: dongle, timestamp: timestamp}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Route {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// DongleID returns the device part of the route.
func (r Route) DongleID() string {
	return r.dongle
}

// Date returns the route with the dongle prefix removed, e.g.
// "2023-07-27--13-01-19". It names the local segment directories.
func (r Route) Date() string {
	return r.timestamp
}

// String returns the canonical "<dongle>|<timestamp>" form.
func (r Route) String() string {
	return r.dongle + Separator + r.timestamp
}

// IsZero reports whether r is the zero Route.
func (r Route) IsZero() bool {
	return r.dongle == "" && r.timestamp == ""
}
