package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/tylermilner/op-replay-clipper/internal/decompress"
	"github.com/tylermilner/op-replay-clipper/internal/downloader"
	"github.com/tylermilner/op-replay-clipper/internal/manifest"
	"github.com/tylermilner/op-replay-clipper/internal/pipeline"
	"github.com/tylermilner/op-replay-clipper/internal/plan"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// Exit codes
const (
	ExitSuccess           = 0
	ExitGeneralError      = 1
	ExitInvalidArgs       = 2
	ExitRouteInaccessible = 3
	ExitMissingUpload     = 4
	ExitDownloadFailed    = 5
	ExitPostProcessFailed = 6
	ExitMirrorFailed      = 7
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[routefetch] Received interrupt, shutting down...")
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the CLI with args (without the program name) and returns the
// process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.RunContext(ctx, append([]string{app.Name}, normalizeArgs(args)...))
	if err == nil {
		return ExitSuccess
	}

	code := exitCode(err)
	if code == ExitInvalidArgs {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", app.Name)
		return code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var missing *plan.MissingUploadError
	if errors.As(err, &missing) && len(missing.Missing) > 1 {
		fmt.Fprintf(stderr, "[routefetch] All missing uploads:\n%s", missing.Summary())
	}
	return code
}

// usageError marks command line mistakes.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitCode maps an error returned by the app to a process exit code.
func exitCode(err error) int {
	var (
		usage        *usageError
		invalidType  *route.InvalidFileTypeError
		inaccessible *manifest.RouteInaccessibleError
		unavailable  *manifest.RouteInfoUnavailableError
		missing      *plan.MissingUploadError
		failed       *downloader.DownloadFailedError
		noArchive    *decompress.LogArchiveMissingError
		stage        *pipeline.StageError
	)

	switch {
	case err == nil:
		return ExitSuccess
	case downloader.IsCanceled(err):
		return ExitGeneralError
	case errors.As(err, &usage),
		errors.As(err, &invalidType),
		errors.Is(err, route.ErrMalformedRoute),
		errors.Is(err, route.ErrInvalidWindow):
		return ExitInvalidArgs
	case errors.As(err, &inaccessible), errors.As(err, &unavailable):
		return ExitRouteInaccessible
	case errors.As(err, &missing):
		return ExitMissingUpload
	case errors.As(err, &failed):
		return ExitDownloadFailed
	case errors.As(err, &noArchive):
		return ExitPostProcessFailed
	case errors.As(err, &stage):
		switch stage.Stage {
		case pipeline.StageArgs:
			return ExitInvalidArgs
		case pipeline.StageDecompress:
			return ExitPostProcessFailed
		case pipeline.StageMirror:
			return ExitMirrorFailed
		}
	}
	return ExitGeneralError
}
