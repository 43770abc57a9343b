package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func fastOptions() Options {
	opts := DefaultOptions()
	opts.RetryBackoff = 10 * time.Millisecond
	opts.RetryMaxBackoff = 50 * time.Millisecond
	return opts
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "routefetch-test" {
			t.Errorf("expected user agent 'routefetch-test', got %q", ua)
		}
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.UserAgent = "routefetch-test"
	client := NewClient(opts)

	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected 'hello', got %q", string(data))
	}
}

func TestGetNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.Get(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("expected *StatusError with code 404, got %v", err)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"segment_start_times": [1, 2], "segment_end_times": [3, 4]}`))
	}))
	defer server.Close()

	var v struct {
		Start []int64 `json:"segment_start_times"`
		End   []int64 `json:"segment_end_times"`
	}
	client := NewClient(DefaultOptions())
	if err := client.GetJSON(context.Background(), server.URL, &v); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(v.Start) != 2 || v.End[1] != 4 {
		t.Errorf("unexpected decode result: %+v", v)
	}
}

func TestGetJSONMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	var v map[string]any
	client := NewClient(DefaultOptions())
	if err := client.GetJSON(context.Background(), server.URL, &v); err == nil {
		t.Error("expected decode error")
	}
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body.Close()

	if n := attempts.Load(); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestRetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	opts := fastOptions()
	opts.RetryAttempts = 2
	client := NewClient(opts)

	_, err := client.Get(context.Background(), server.URL)
	if !errors.Is(err, ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("segment data"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "2023-07-27--13-01-19--0", "fcamera.hevc")

	client := NewClient(DefaultOptions())
	n, err := client.Download(context.Background(), server.URL, dest)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n != int64(len("segment data")) {
		t.Errorf("expected %d bytes, got %d", len("segment data"), n)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "segment data" {
		t.Errorf("expected 'segment data', got %q", string(data))
	}
	if _, err := os.Stat(dest + PartialSuffix); !os.IsNotExist(err) {
		t.Errorf("expected partial file to be gone, got %v", err)
	}
}

func TestDownloadFailureLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "seg", "rlog.bz2")

	client := NewClient(DefaultOptions())
	_, err := client.Download(context.Background(), server.URL, dest)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	for _, p := range []string{dest, dest + PartialSuffix} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to not exist, got %v", p, err)
		}
	}
}

func TestDownloadRetriesTruncatedBody(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// Promise more bytes than are sent.
			w.Header().Set("Content-Length", "100")
			w.Write([]byte("short"))
			return
		}
		w.Write([]byte("complete"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "ecamera.hevc")

	client := NewClient(fastOptions())
	if _, err := client.Download(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "complete" {
		t.Errorf("expected 'complete', got %q", string(data))
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestDownloadServerErrorRespectsRetryAttempts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	opts := fastOptions()
	opts.RetryAttempts = 2
	opts.RetryBackoff = time.Millisecond
	opts.RetryMaxBackoff = time.Millisecond
	client := NewClient(opts)

	dest := filepath.Join(t.TempDir(), "fcamera.hevc")
	_, err := client.Download(context.Background(), server.URL, dest)
	if !errors.Is(err, ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
	if n := hits.Load(); n != int32(opts.RetryAttempts+1) {
		t.Errorf("expected %d requests, got %d", opts.RetryAttempts+1, n)
	}
	for _, p := range []string{dest, dest + PartialSuffix} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to not exist, got %v", p, err)
		}
	}
}

func TestDownloadRecoversFromServerError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("segment data"))
	}))
	defer server.Close()

	client := NewClient(fastOptions())
	dest := filepath.Join(t.TempDir(), "rlog.bz2")
	if _, err := client.Download(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestGetRetryAttemptsCap(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	opts := fastOptions()
	opts.RetryAttempts = 3
	client := NewClient(opts)

	var v map[string]any
	if err := client.GetJSON(context.Background(), server.URL, &v); err == nil {
		t.Fatal("expected error")
	}
	if n := hits.Load(); n != 4 {
		t.Errorf("expected 4 requests, got %d", n)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(DefaultOptions())
	_, err := client.Get(ctx, server.URL)
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}
