package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tylermilner/op-replay-clipper/internal/progress"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// DefaultWorkers is the default number of concurrent transfers.
const DefaultWorkers = 20

// Transferer copies a remote URL to a local path. *http.Client from
// internal/http implements it.
type Transferer interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Task is a single file transfer.
type Task struct {
	URL       string
	Dir       string
	Filename  string
	Overwrite bool // replace an existing file at Path

	// Segment and Kind identify the task in logs and errors.
	Segment int
	Kind    route.FileKind
}

// Path returns the destination path of the task.
func (t Task) Path() string {
	return filepath.Join(t.Dir, t.Filename)
}

// Result is the outcome of a Task.
type Result struct {
	Task    Task
	Bytes   int64
	Skipped bool // destination existed and Overwrite was false
	Err     error
}

// Options configures the scheduler.
type Options struct {
	// Workers is the maximum number of concurrent transfers across the
	// whole batch. Default: DefaultWorkers
	Workers int

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// Logger receives per-transfer logs. Default: discard.
	Logger *slog.Logger
}

// Scheduler runs batches of transfers with bounded concurrency. It holds no
// state between batches.
type Scheduler struct {
	transfer Transferer
	opts     Options
	log      *slog.Logger
}

// NewScheduler creates a scheduler that moves bytes with t.
func NewScheduler(t Transferer, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{transfer: t, opts: opts, log: log}
}

// Workers returns the concurrency cap.
func (s *Scheduler) Workers() int {
	return s.opts.Workers
}

// Run executes every task and blocks until all of them terminated. It returns
// one Result per task, in task order. A failed task does not stop the others.
// Once ctx is done no further tasks are started; they report ctx.Err().
func (s *Scheduler) Run(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)

	for i, task := range tasks {
		results[i].Task = task
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		g.Go(func() error {
			results[i] = s.runTask(ctx, task)
			return nil
		})
	}

	// Tasks never return errors to the group; failures live in results.
	_ = g.Wait()
	return results
}

func (s *Scheduler) runTask(ctx context.Context, task Task) Result {
	r := Result{Task: task}
	dest := task.Path()

	if !task.Overwrite {
		if _, err := os.Stat(dest); err == nil {
			s.log.Debug("skipping existing file", "path", dest)
			r.Skipped = true
			if s.opts.Progress != nil {
				s.opts.Progress.FileSkipped()
			}
			return r
		}
	}

	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}

	if s.opts.Progress != nil {
		s.opts.Progress.FileStarted()
	}
	s.log.Debug("downloading", "segment", task.Segment, "kind", task.Kind.String(), "path", dest)

	n, err := s.transfer.Download(ctx, task.URL, dest)
	if err != nil {
		if s.opts.Progress != nil {
			s.opts.Progress.FileFailed()
		}
		s.log.Warn("download failed", "segment", task.Segment, "kind", task.Kind.String(), "err", err)
		r.Err = fmt.Errorf("download %s: %w", task.Filename, err)
		return r
	}

	if s.opts.Progress != nil {
		s.opts.Progress.FileCompleted(n)
	}
	r.Bytes = n
	return r
}

// Failure records a task that did not complete.
type Failure struct {
	Task Task
	Err  error
}

// DownloadFailedError is returned by Check when one or more transfers failed.
// Files that did transfer stay on disk.
type DownloadFailedError struct {
	Total    int
	Failures []Failure
}

func (e *DownloadFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Download failed: %d of %d transfers failed", len(e.Failures), e.Total)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Task.URL, f.Err)
	}
	return b.String()
}

// Unwrap returns the underlying transfer errors.
func (e *DownloadFailedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Check returns a *DownloadFailedError listing every failed result, or nil.
func Check(results []Result) error {
	var failures []Failure
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, Failure{Task: r.Task, Err: r.Err})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &DownloadFailedError{Total: len(results), Failures: failures}
}

// Summary aggregates a batch.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Summarize counts the outcomes of a batch.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		default:
			s.Downloaded++
			s.Bytes += r.Bytes
		}
	}
	return s
}

// IsCanceled reports whether err stems from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
