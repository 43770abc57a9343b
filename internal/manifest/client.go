package manifest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	rfhttp "github.com/tylermilner/op-replay-clipper/internal/http"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

const (
	// DefaultAPIURL is the base URL of the route index.
	DefaultAPIURL = "https://api.commadotai.com"

	// DefaultConnectURL is the base URL of the route viewer.
	DefaultConnectURL = "https://connect.comma.ai"
)

// Options configures the manifest client.
type Options struct {
	// APIURL is the base URL of the route index.
	// Default: DefaultAPIURL
	APIURL string

	// ConnectURL is the base URL used in viewing links.
	// Default: DefaultConnectURL
	ConnectURL string

	// Logger receives request logs. Default: discard.
	Logger *slog.Logger
}

// Client fetches file lists and route metadata from the route index.
type Client struct {
	http *rfhttp.Client
	opts Options
	log  *slog.Logger
}

// NewClient creates a manifest client that issues requests through client.
func NewClient(client *rfhttp.Client, opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.ConnectURL == "" {
		opts.ConnectURL = DefaultConnectURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.ConnectURL = strings.TrimRight(opts.ConnectURL, "/")

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Client{http: client, opts: opts, log: log}
}

// FilesURL returns the file list endpoint of r.
func (c *Client) FilesURL(r route.Route) string {
	return c.RouteURL(r) + "/files"
}

// RouteURL returns the metadata endpoint of r. The separator is escaped.
func (c *Client) RouteURL(r route.Route) string {
	return c.opts.APIURL + "/v1/route/" + url.PathEscape(r.String())
}

// Files fetches the file list of r.
func (c *Client) Files(ctx context.Context, r route.Route) (*Manifest, error) {
	endpoint := c.FilesURL(r)
	c.log.Debug("fetching file list", "route", r.String(), "url", endpoint)

	var files FileList
	if err := c.http.GetJSON(ctx, endpoint, &files); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RouteInaccessibleError{
			Route:      r,
			ConnectURL: c.opts.ConnectURL,
			Status:     statusOf(err),
			Err:        err,
		}
	}

	m := New(files)
	c.log.Debug("file list fetched", "route", r.String(), "files", m.Count())
	return m, nil
}

// RouteInfo fetches the segment times of r.
func (c *Client) RouteInfo(ctx context.Context, r route.Route) (*RouteInfo, error) {
	endpoint := c.RouteURL(r)
	c.log.Debug("fetching route info", "route", r.String(), "url", endpoint)

	var info RouteInfo
	if err := c.http.GetJSON(ctx, endpoint, &info); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RouteInfoUnavailableError{Route: r, Reason: "request failed", Err: err}
	}

	if info.SegmentStartTimes == nil || info.SegmentEndTimes == nil {
		return nil, &RouteInfoUnavailableError{Route: r, Reason: "response has no segment times"}
	}
	info.route = r
	return &info, nil
}

// ViewURL returns the viewer link of a span of r. start and end are the
// millisecond timestamps from RouteInfo.Span.
func (c *Client) ViewURL(r route.Route, start, end int64) string {
	return fmt.Sprintf("%s/%s/%d/%d", c.opts.ConnectURL, r.DongleID(), start, end)
}

func statusOf(err error) int {
	var statusErr *rfhttp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}
