package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Options configures the progress reporter.
type Options struct {
	// TotalFiles is the number of files in the batch.
	TotalFiles int

	// Workers is the number of parallel transfers.
	Workers int

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration

	// Route is the route being downloaded (for display).
	Route string

	// Prefix starts every line.
	// Default: "[routefetch]"
	Prefix string
}

// Reporter outputs human-readable progress information.
type Reporter struct {
	opts Options

	mu             sync.Mutex
	completedBytes atomic.Int64
	completedFiles atomic.Int32
	skippedFiles   atomic.Int32
	failedFiles    atomic.Int32
	inProgress     atomic.Int32
	startTime      time.Time
	lastUpdate     time.Time
	lastBytes      int64
	stopCh         chan struct{}
	doneCh         chan struct{}
	started        bool
	stopped        bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	if opts.Prefix == "" {
		opts.Prefix = "[routefetch]"
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.started = true
	r.startTime = time.Now()
	r.lastUpdate = r.startTime
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "%s Downloading: %s\n", r.opts.Prefix, r.opts.Route)
	fmt.Fprintf(r.opts.Output, "%s Files: %d | Workers: %d\n", r.opts.Prefix, r.opts.TotalFiles, r.opts.Workers)

	go r.updateLoop()
}

// Stop stops the progress reporter and prints the final status. It waits
// for the final status to be written.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// FileStarted marks a file as in progress.
func (r *Reporter) FileStarted() {
	r.inProgress.Add(1)
}

// FileCompleted marks a file as transferred.
func (r *Reporter) FileCompleted(size int64) {
	r.completedBytes.Add(size)
	r.completedFiles.Add(1)
	r.inProgress.Add(-1)
}

// FileFailed marks a file as failed (removes from in-progress).
func (r *Reporter) FileFailed() {
	r.failedFiles.Add(1)
	r.inProgress.Add(-1)
}

// FileSkipped marks a file that already existed locally.
func (r *Reporter) FileSkipped() {
	r.skippedFiles.Add(1)
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Bytes      int64
	Completed  int
	Skipped    int
	Failed     int
	InProgress int
	Pending    int
}

// Snapshot returns the current counters.
func (r *Reporter) Snapshot() Snapshot {
	s := Snapshot{
		Bytes:      r.completedBytes.Load(),
		Completed:  int(r.completedFiles.Load()),
		Skipped:    int(r.skippedFiles.Load()),
		Failed:     int(r.failedFiles.Load()),
		InProgress: int(r.inProgress.Load()),
	}
	s.Pending = max(0, r.opts.TotalFiles-s.Completed-s.Skipped-s.Failed-s.InProgress)
	return s
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	now := time.Now()
	s := r.Snapshot()

	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(s.Bytes-r.lastBytes) / elapsed

	r.lastUpdate = now
	r.lastBytes = s.Bytes

	var percent float64
	if r.opts.TotalFiles > 0 {
		percent = float64(s.Completed+s.Skipped+s.Failed) / float64(r.opts.TotalFiles) * 100
	}

	fmt.Fprintf(r.opts.Output, "\r%s Progress: %.1f%% | %s | Speed: %s/s | Files: %d done, %d skipped, %d failed, %d in-progress, %d pending    ",
		r.opts.Prefix,
		percent,
		FormatBytes(s.Bytes),
		FormatBytes(int64(speed)),
		s.Completed, s.Skipped, s.Failed, s.InProgress, s.Pending,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	s := r.Snapshot()
	duration := time.Since(r.startTime)
	var avgSpeed float64
	if duration > 0 {
		avgSpeed = float64(s.Bytes) / duration.Seconds()
	}

	fmt.Fprintf(r.opts.Output, "\r%s Files: %d downloaded | %d skipped | %d failed    \n",
		r.opts.Prefix, s.Completed, s.Skipped, s.Failed)
	fmt.Fprintf(r.opts.Output, "%s Total: %s in %s | Average speed: %s/s\n",
		r.opts.Prefix,
		FormatBytes(s.Bytes),
		formatDuration(duration),
		FormatBytes(int64(avgSpeed)),
	)
}

// FormatBytes formats bytes as a human-readable IEC string, e.g. "1.5 KiB".
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
