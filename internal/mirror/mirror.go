package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// ErrNoBucket is returned when a Mirror is used without a bucket.
var ErrNoBucket = errors.New("mirror: no bucket")

// Metadata keys attached to every mirrored object.
const (
	MetaRunID   = "run-id"
	MetaRoute   = "route"
	MetaSegment = "segment"
)

// Options configures a Mirror.
type Options struct {
	// Prefix is prepended to every object key, e.g. "drives/".
	Prefix string
	// RunID is stored in object metadata to tie objects to an invocation.
	RunID string
	// Overwrite re-uploads objects that already exist with the same size.
	Overwrite bool
	Logger    *slog.Logger
}

// Result summarizes a mirror run.
type Result struct {
	Copied  int
	Skipped int
	Bytes   int64
}

// Mirror copies the local segment files of a route into a blob bucket.
type Mirror struct {
	bucket *blob.Bucket
	owned  bool
	opts   Options
	log    *slog.Logger
}

// Open opens the bucket at urlstr (s3://, gs://, file://, mem://). The
// matching driver must be registered by the caller with a blank import.
func Open(ctx context.Context, urlstr string, opts Options) (*Mirror, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, fmt.Errorf("mirror: open bucket %s: %w", urlstr, err)
	}
	m := New(bucket, opts)
	m.owned = true
	return m, nil
}

// New wraps an already opened bucket. The caller keeps ownership of it.
func New(bucket *blob.Bucket, opts Options) *Mirror {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Mirror{bucket: bucket, opts: opts, log: logger}
}

// Close closes the bucket if it was opened by Open.
func (m *Mirror) Close() error {
	if m.owned && m.bucket != nil {
		return m.bucket.Close()
	}
	return nil
}

// Key returns the object key for a file of a segment. Keys mirror the local
// layout: <prefix><route_date>--<segment>/<filename>.
func (m *Mirror) Key(layout route.Layout, segment int, filename string) string {
	return m.opts.Prefix + path.Join(layout.SegmentName(segment), filename)
}

// Run uploads the files of every segment for the requested kinds. Logs are
// mirrored as rlog when decompressed and as rlog.bz2 otherwise.
func (m *Mirror) Run(ctx context.Context, layout route.Layout, segments []int, kinds route.KindSet) (*Result, error) {
	if m.bucket == nil {
		return nil, ErrNoBucket
	}

	res := &Result{}
	for _, segment := range segments {
		for _, kind := range kinds.Kinds() {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			filename, err := localFilename(layout, segment, kind)
			if err != nil {
				return res, err
			}

			copied, n, err := m.copyFile(ctx, layout, segment, filename)
			if err != nil {
				return res, fmt.Errorf("mirror: segment %d %s: %w", segment, filename, err)
			}
			if copied {
				res.Copied++
				res.Bytes += n
			} else {
				res.Skipped++
			}
		}
	}

	return res, nil
}

func (m *Mirror) copyFile(ctx context.Context, layout route.Layout, segment int, filename string) (bool, int64, error) {
	src := layout.Path(segment, filename)
	key := m.Key(layout, segment, filename)

	f, err := os.Open(src)
	if err != nil {
		return false, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, 0, err
	}

	if !m.opts.Overwrite {
		attrs, err := m.bucket.Attributes(ctx, key)
		switch {
		case err == nil && attrs.Size == info.Size():
			m.log.Debug("object exists, skipping", "key", key)
			return false, 0, nil
		case err != nil && !isNotExist(err):
			return false, 0, fmt.Errorf("attributes %s: %w", key, err)
		}
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := m.bucket.NewWriter(wctx, key, &blob.WriterOptions{
		ContentType: "application/octet-stream",
		Metadata: map[string]string{
			MetaRunID:   m.opts.RunID,
			MetaRoute:   layout.Route.String(),
			MetaSegment: fmt.Sprint(segment),
		},
	})
	if err != nil {
		return false, 0, fmt.Errorf("create writer %s: %w", key, err)
	}

	n, err := io.Copy(w, f)
	if err != nil {
		// Cancelling before Close aborts the upload.
		cancel()
		w.Close()
		return false, 0, fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return false, 0, fmt.Errorf("close writer %s: %w", key, err)
	}

	m.log.Debug("mirrored", "key", key, "bytes", n)
	return true, n, nil
}

// localFilename resolves which file represents kind on disk.
func localFilename(layout route.Layout, segment int, kind route.FileKind) (string, error) {
	if kind != route.Log {
		return kind.Filename(), nil
	}
	_, err := os.Stat(layout.Path(segment, route.DecompressedLog))
	switch {
	case err == nil:
		return route.DecompressedLog, nil
	case errors.Is(err, fs.ErrNotExist):
		return kind.Filename(), nil
	default:
		return "", fmt.Errorf("mirror: stat %s: %w", route.DecompressedLog, err)
	}
}

// isNotExist returns true if the error indicates the object doesn't exist.
func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
