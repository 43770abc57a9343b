//go:build integration

package main

import (
	"context"
	"testing"
	"time"

	"github.com/tylermilner/op-replay-clipper/internal/testutils"
)

func TestCLIMirrorToMinio(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	server := testutils.StartRouteServer(t, testRoute, 2)
	minio := testutils.StartMinio(t, ctx, "routefetch-mirror")
	dataDir := t.TempDir()

	args := []string{
		"--api-url", server.URL,
		"--mirror", minio.BucketURL,
		"--workers", "2",
		dataDir, testRoute, "0", "0", "60",
		"--file_types", "cameras", "ecameras",
	}

	code, out := runCLI(t, args...)
	if code != ExitSuccess {
		t.Fatalf("exit code %d, output:\n%s", code, out)
	}

	bucket := minio.Open(t, ctx)
	for seg := 0; seg <= 1; seg++ {
		for _, name := range []string{"fcamera.hevc", "ecamera.hevc"} {
			key := "2023-07-27--13-01-19--" + string(rune('0'+seg)) + "/" + name
			minio.RequireObject(t, ctx, bucket, key, server.Body(seg, name))

			attrs, err := bucket.Attributes(ctx, key)
			if err != nil {
				t.Fatalf("attributes %s: %v", key, err)
			}
			if attrs.Metadata["run-id"] == "" {
				t.Errorf("%s has no run id", key)
			}
		}
	}

	// Nothing left to do on a second run, locally or in the bucket.
	code, out = runCLI(t, args...)
	if code != ExitSuccess {
		t.Fatalf("re-run exit code %d, output:\n%s", code, out)
	}
	if got := server.Downloads.Load(); got != 4 {
		t.Errorf("expected 4 downloads across both runs, got %d", got)
	}
}
