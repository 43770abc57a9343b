// Package manifest fetches and indexes the remote file list of a route.
//
// Two endpoints are read once per run:
//
//	GET /v1/route/<dongle>%7C<date>/files  -> {cameras, dcameras, ecameras, logs}
//	GET /v1/route/<dongle>%7C<date>        -> {segment_start_times, segment_end_times}
//
// File list URLs are opaque signed links. The only structure relied on is the
// "/<segment>/<filename>" pair in their path, which New turns into a
// (segment, kind) index.
package manifest
