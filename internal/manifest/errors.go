package manifest

import (
	"fmt"

	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// RouteInaccessibleError is returned when the file list of a route cannot be
// fetched, usually because the route is not public.
type RouteInaccessibleError struct {
	Route      route.Route
	ConnectURL string
	Status     int // HTTP status, 0 if no response was received
	Err        error
}

func (e *RouteInaccessibleError) Error() string {
	return fmt.Sprintf("Route %s is not accessible. You may need to set the route to be public. "+
		"Visit %s/%s, view the route, dropdown the \"More Info\" button, and toggle \"Public\". "+
		"You can set \"Public\" back to off after using this tool. (%v)",
		e.Route, e.ConnectURL, e.Route.DongleID(), e.Err)
}

func (e *RouteInaccessibleError) Unwrap() error {
	return e.Err
}

// RouteInfoUnavailableError is returned when the segment times of a route
// cannot be fetched or do not cover the requested segments.
type RouteInfoUnavailableError struct {
	Route  route.Route
	Reason string
	Err    error
}

func (e *RouteInfoUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("route info for %s unavailable: %s: %v", e.Route, e.Reason, e.Err)
	}
	return fmt.Sprintf("route info for %s unavailable: %s", e.Route, e.Reason)
}

func (e *RouteInfoUnavailableError) Unwrap() error {
	return e.Err
}
