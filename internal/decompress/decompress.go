package decompress

import (
	"bytes"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// DefaultBinary is the external decompressor used by Command.
const DefaultBinary = "bzip2"

// Decompressor turns a ".bz2" archive into the file without the suffix, in
// the same directory.
type Decompressor interface {
	Decompress(ctx context.Context, archive string) error
}

// Command runs an external bzip2 compatible binary as "<binary> -d <archive>".
// Like bzip2 itself, it consumes the archive.
type Command struct {
	// Binary is the executable name or path. Default: DefaultBinary
	Binary string
}

// Decompress implements Decompressor.
func (c Command) Decompress(ctx context.Context, archive string) error {
	binary := c.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, "-d", archive)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s -d %s: %w: %s", binary, archive, err, msg)
		}
		return fmt.Errorf("%s -d %s: %w", binary, archive, err)
	}
	return nil
}

// Native decompresses in process with compress/bzip2. It writes the output
// next to the archive and removes the archive afterwards, matching Command.
type Native struct{}

// Decompress implements Decompressor.
func (Native) Decompress(ctx context.Context, archive string) error {
	dest, ok := strings.CutSuffix(archive, ".bz2")
	if !ok {
		return fmt.Errorf("decompress: %s has no .bz2 suffix", archive)
	}

	in, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	_, err = io.Copy(out, &ctxReader{ctx: ctx, r: bzip2.NewReader(in)})
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("decompress %s: %w", archive, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	in.Close()
	return os.Remove(archive)
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Auto returns Command when binary is found on PATH and Native otherwise.
func Auto(binary string) Decompressor {
	if binary == "" {
		binary = DefaultBinary
	}
	if _, err := exec.LookPath(binary); err == nil {
		return Command{Binary: binary}
	}
	return Native{}
}

// LogArchiveMissingError is returned when a segment has neither a
// decompressed log nor its archive after the download phase.
type LogArchiveMissingError struct {
	Segment int
	Path    string
}

func (e *LogArchiveMissingError) Error() string {
	return fmt.Sprintf("Segment %d does not have a log upload (%s not found)", e.Segment, e.Path)
}

// Result reports what happened to the logs of a run.
type Result struct {
	Decompressed []int
	Skipped      []int
}

// Stage decompresses downloaded log archives in place.
type Stage struct {
	d   Decompressor
	log *slog.Logger
}

// NewStage creates a post-processing stage using d.
func NewStage(d Decompressor, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stage{d: d, log: logger}
}

// Run decompresses the log of every segment, in order. Segments whose
// decompressed log already exists are skipped even if the archive is still
// present.
func (s *Stage) Run(ctx context.Context, layout route.Layout, segments []int) (*Result, error) {
	res := &Result{}

	for _, segment := range segments {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		decompressed := layout.Path(segment, route.DecompressedLog)
		ok, err := exists(decompressed)
		if err != nil {
			return res, err
		}
		if ok {
			s.log.Debug("skipping decompression, log exists", "segment", segment, "path", decompressed)
			res.Skipped = append(res.Skipped, segment)
			continue
		}

		archive := layout.Path(segment, route.Log.Filename())
		ok, err = exists(archive)
		if err != nil {
			return res, err
		}
		if !ok {
			return res, &LogArchiveMissingError{Segment: segment, Path: archive}
		}

		s.log.Debug("decompressing", "segment", segment, "path", archive)
		if err := s.d.Decompress(ctx, archive); err != nil {
			return res, fmt.Errorf("segment %d: %w", segment, err)
		}
		res.Decompressed = append(res.Decompressed, segment)
	}

	return res, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
}
