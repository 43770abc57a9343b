//go:build integration

package testutils

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gocloud.dev/blob"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

// Minio is a running minio server with one bucket, reachable through an
// s3blob URL. It is terminated when the test ends.
type Minio struct {
	Bucket    string
	BucketURL string
	Endpoint  string
}

// Open opens the bucket with gocloud. The s3blob driver must be registered.
func (m *Minio) Open(t *testing.T, ctx context.Context) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(ctx, m.BucketURL)
	if err != nil {
		t.Fatalf("open bucket %s: %v", m.BucketURL, err)
	}
	t.Cleanup(func() { bucket.Close() })
	return bucket
}

// RequireObject fails the test unless key holds exactly want.
func (m *Minio) RequireObject(t *testing.T, ctx context.Context, bucket *blob.Bucket, key string, want []byte) {
	t.Helper()
	got, err := bucket.ReadAll(ctx, key)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("object %s: got %d bytes %q, want %d bytes %q", key, len(got), got, len(want), want)
	}
}

// StartMinio starts minio on a private network, creates bucket with the mc
// client and points the AWS credential env vars at it.
func StartMinio(t *testing.T, ctx context.Context, bucket string) *Minio {
	t.Helper()

	netName := fmt.Sprintf("routefetch-minio-%d", time.Now().UnixNano())
	network, err := testcontainers.GenericNetwork(ctx, testcontainers.GenericNetworkRequest{
		NetworkRequest: testcontainers.NetworkRequest{Name: netName},
	})
	if err != nil {
		t.Fatalf("create network: %v", err)
	}
	t.Cleanup(func() { network.Remove(context.Background()) })

	server, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          "minio/minio:latest",
			ExposedPorts:   []string{"9000/tcp"},
			Networks:       []string{netName},
			NetworkAliases: map[string][]string{netName: {"minio"}},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio: %v", err)
	}
	t.Cleanup(func() { server.Terminate(context.Background()) })

	makeBucket(t, ctx, netName, bucket)

	host, err := server.Host(ctx)
	if err != nil {
		t.Fatalf("minio host: %v", err)
	}
	port, err := server.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("minio port: %v", err)
	}
	endpoint := host + ":" + port.Port()

	t.Setenv("AWS_ACCESS_KEY_ID", minioUser)
	t.Setenv("AWS_SECRET_ACCESS_KEY", minioPassword)

	return &Minio{
		Bucket:   bucket,
		Endpoint: endpoint,
		BucketURL: fmt.Sprintf("s3://%s?endpoint=http://%s&use_path_style=true&disable_https=true&region=us-east-1",
			bucket, endpoint),
	}
}

// makeBucket runs a one-shot mc container that creates bucket.
func makeBucket(t *testing.T, ctx context.Context, netName, bucket string) {
	t.Helper()

	script := fmt.Sprintf("mc alias set local http://minio:9000 %s %s && mc mb --ignore-existing local/%s",
		minioUser, minioPassword, bucket)

	mc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:      "minio/mc:latest",
			Networks:   []string{netName},
			Entrypoint: []string{"/bin/sh", "-c"},
			Cmd:        []string{script},
			WaitingFor: wait.ForExit(),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("create bucket %s: %v", bucket, err)
	}
	defer mc.Terminate(context.Background())

	state, err := mc.State(ctx)
	if err != nil {
		t.Fatalf("mc state: %v", err)
	}
	if state.ExitCode != 0 {
		t.Fatalf("mc exited with %d while creating bucket %s", state.ExitCode, bucket)
	}
}
