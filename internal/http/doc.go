// Package http provides the HTTP client used for index requests and file
// transfers.
//
// This package handles:
//   - Connection pooling for parallel transfers
//   - JSON requests against the route index
//   - Downloads to a local path via a ".part" file and rename
//   - Retry with exponential backoff on network and 5xx errors
//
// Non-success statuses other than 5xx are returned as *StatusError, which
// matches ErrNotFound, ErrForbidden and ErrUnauthorized with errors.Is.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	var files FileList
//	err := client.GetJSON(ctx, indexURL, &files)
//
//	n, err := client.Download(ctx, signedURL, "/data/2023-07-27--13-01-19--0/fcamera.hevc")
package http
