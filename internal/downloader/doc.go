// Package downloader executes batches of file transfers with bounded
// concurrency.
//
// A Scheduler is created by the caller and owns no global state. Run takes
// the complete task list of a batch, applies the worker cap across all of
// it, and returns once every task has terminated.
//
// # Usage
//
//	s := downloader.NewScheduler(client, downloader.Options{
//	    Workers:  20,
//	    Progress: reporter,
//	})
//
//	results := s.Run(ctx, tasks)
//	if err := downloader.Check(results); err != nil {
//	    // *DownloadFailedError listing every failed URL
//	}
//
// # Partial failure
//
// A failing transfer does not stop the batch. Files that completed stay on
// disk and are skipped on the next run; a failed transfer leaves nothing
// under its destination name.
//
// # Cancellation
//
// When the context is cancelled no new transfers start. In-flight transfers
// observe the context and report its error.
package downloader
