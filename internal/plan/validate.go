package plan

import (
	"fmt"
	"strings"

	"github.com/tylermilner/op-replay-clipper/internal/manifest"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// Missing is a (segment, kind) pair absent from the file list.
type Missing struct {
	Segment int
	Kind    route.FileKind
}

// MissingUploadError is returned when a requested file was never uploaded.
// Segment and Kind name the first missing pair in segment-then-kind order;
// Missing lists every missing pair.
type MissingUploadError struct {
	Segment int
	Kind    route.FileKind
	ViewURL string
	Missing []Missing
}

func (e *MissingUploadError) Error() string {
	return fmt.Sprintf("Segment %d does not have a %s upload. %s",
		e.Segment, e.Kind.Label(), UploadInstructions(e.ViewURL))
}

// Summary lists every missing pair, one per line.
func (e *MissingUploadError) Summary() string {
	var b strings.Builder
	for _, m := range e.Missing {
		fmt.Fprintf(&b, "segment %d: %s (%s)\n", m.Segment, m.Kind.Label(), m.Kind.Filename())
	}
	return b.String()
}

// UploadInstructions tells the user how to request missing uploads.
func UploadInstructions(viewURL string) string {
	return fmt.Sprintf("Visit %s , dropdown the \"Files\" button, and next to \"All files\", "+
		"select \"Upload ## Files\". After all files have completed uploading, try again.", viewURL)
}

// Validate checks that every requested kind of every segment is present in m.
// Segments are checked in the given order and kinds in canonical order.
func Validate(m *manifest.Manifest, segments []int, kinds route.KindSet, viewURL string) error {
	var missing []Missing
	for _, segment := range segments {
		for _, kind := range kinds.Kinds() {
			if !m.Has(segment, kind) {
				missing = append(missing, Missing{Segment: segment, Kind: kind})
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}
	return &MissingUploadError{
		Segment: missing[0].Segment,
		Kind:    missing[0].Kind,
		ViewURL: viewURL,
		Missing: missing,
	}
}
