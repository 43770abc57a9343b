package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{256 * 1024 * 1024, "256 MiB"},
		{1024 * 1024 * 1024, "1.0 GiB"},
		{1024 * 1024 * 1024 * 1024, "1.0 TiB"},
		{2.5 * 1024 * 1024 * 1024 * 1024, "2.5 TiB"},
		{-5, "0 B"},
	}

	for _, tt := range tests {
		result := FormatBytes(tt.input)
		if result != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2h 3m 4s"},
	}

	for _, tt := range tests {
		if result := formatDuration(tt.input); result != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestReporterFileTracking(t *testing.T) {
	reporter := NewReporter(Options{
		TotalFiles:     5,
		Workers:        2,
		UpdateInterval: 100 * time.Millisecond,
	})

	// Test file tracking without starting the reporter
	reporter.FileStarted()
	if reporter.inProgress.Load() != 1 {
		t.Errorf("expected 1 in-progress, got %d", reporter.inProgress.Load())
	}

	reporter.FileCompleted(256)
	if reporter.inProgress.Load() != 0 {
		t.Errorf("expected 0 in-progress after complete, got %d", reporter.inProgress.Load())
	}

	reporter.FileStarted()
	reporter.FileFailed()
	reporter.FileSkipped()

	s := reporter.Snapshot()
	if s.Completed != 1 || s.Failed != 1 || s.Skipped != 1 || s.InProgress != 0 {
		t.Errorf("unexpected snapshot: %+v", s)
	}
	if s.Bytes != 256 {
		t.Errorf("expected 256 bytes, got %d", s.Bytes)
	}
	if s.Pending != 2 {
		t.Errorf("expected 2 pending, got %d", s.Pending)
	}

	// Stop without Start is a no-op.
	reporter.Stop()
}

func TestReporterStartStop(t *testing.T) {
	var out bytes.Buffer
	reporter := NewReporter(Options{
		TotalFiles:     2,
		Workers:        2,
		UpdateInterval: 10 * time.Millisecond,
		Route:          "a2a0ccea32023010|2023-07-27--13-01-19",
		Output:         &out,
	})

	reporter.Start()

	reporter.FileStarted()
	reporter.FileCompleted(256 * 1024)
	reporter.FileStarted()
	reporter.FileCompleted(256 * 1024)

	time.Sleep(50 * time.Millisecond) // Let updates run

	reporter.Stop()
	reporter.Stop()

	output := out.String()
	if !strings.Contains(output, "[routefetch] Downloading: a2a0ccea32023010|2023-07-27--13-01-19") {
		t.Errorf("missing header in output: %q", output)
	}
	if !strings.Contains(output, "2 downloaded | 0 skipped | 0 failed") {
		t.Errorf("missing final status in output: %q", output)
	}
	if !strings.Contains(output, "512 KiB") {
		t.Errorf("missing byte total in output: %q", output)
	}
}
