package plan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tylermilner/op-replay-clipper/internal/downloader"
	"github.com/tylermilner/op-replay-clipper/internal/manifest"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// Options configures planning.
type Options struct {
	// Overwrite re-fetches camera files that already exist locally. Logs are
	// never re-fetched once either their archive or the decompressed log
	// exists.
	Overwrite bool
}

// Skip is a (segment, kind) pair left out of the plan because it is
// already present locally.
type Skip struct {
	Segment int
	Kind    route.FileKind
	URL     string
	Path    string // existing local file that caused the skip
}

// Plan is the set of transfers for a run.
type Plan struct {
	Tasks   []downloader.Task
	Skipped []Skip
}

// Build turns validated (segment, kind) pairs into download tasks, in
// segment-then-kind order. Pairs missing from m are left out; call Validate
// first.
func Build(m *manifest.Manifest, layout route.Layout, segments []int, kinds route.KindSet, opts Options) (*Plan, error) {
	p := &Plan{}

	for _, segment := range segments {
		dir := layout.SegmentDir(segment)

		for _, kind := range kinds.Kinds() {
			u, ok := m.URL(segment, kind)
			if !ok {
				continue
			}

			existing, err := existingFile(dir, kind, opts.Overwrite)
			if err != nil {
				return nil, err
			}
			if existing != "" {
				p.Skipped = append(p.Skipped, Skip{Segment: segment, Kind: kind, URL: u, Path: existing})
				continue
			}

			p.Tasks = append(p.Tasks, downloader.Task{
				URL:       u,
				Dir:       dir,
				Filename:  kind.Filename(),
				Overwrite: opts.Overwrite && kind != route.Log,
				Segment:   segment,
				Kind:      kind,
			})
		}
	}

	return p, nil
}

// existingFile returns the local file that makes a transfer unnecessary, or
// "" when the file must be fetched.
func existingFile(dir string, kind route.FileKind, overwrite bool) (string, error) {
	var candidates []string
	switch {
	case kind == route.Log:
		candidates = []string{kind.Filename(), route.DecompressedLog}
	case !overwrite:
		candidates = []string{kind.Filename()}
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		ok, err := exists(path)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
	return "", nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
