// Package progress provides progress reporting for download batches.
//
// This package outputs human-readable progress information to stderr,
// including completed, skipped and failed file counts and transfer speed.
//
// # Usage
//
//	reporter := progress.NewReporter(Options{
//	    TotalFiles: len(tasks),
//	    Workers:    20,
//	    Route:      "a2a0ccea32023010|2023-07-27--13-01-19",
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as files complete
//	reporter.FileCompleted(n)
//
// # Output Format
//
//	[routefetch] Downloading: a2a0ccea32023010|2023-07-27--13-01-19
//	[routefetch] Files: 6 | Workers: 20
//	[routefetch] Progress: 50.0% | 212 MiB | Speed: 41 MiB/s | Files: 2 done, 1 skipped, 0 failed, 3 in-progress, 0 pending
package progress
