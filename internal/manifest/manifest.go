package manifest

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// FileList is the body of the /v1/route/<route>/files endpoint. Each entry is
// a signed URL such as
//
//	https://commadata2.blob.core.windows.net/commadata2/<dongle>/<date>/0/fcamera.hevc?se=...&sig=...
type FileList struct {
	Cameras  []string `json:"cameras"`
	DCameras []string `json:"dcameras"`
	ECameras []string `json:"ecameras"`
	Logs     []string `json:"logs"`
}

// URLs returns the entries of the given kind.
func (f FileList) URLs(kind route.FileKind) []string {
	switch kind {
	case route.ForwardCamera:
		return f.Cameras
	case route.WideCamera:
		return f.ECameras
	case route.DriverCamera:
		return f.DCameras
	case route.Log:
		return f.Logs
	}
	return nil
}

type key struct {
	segment int
	kind    route.FileKind
}

// Manifest indexes a FileList by segment and kind.
type Manifest struct {
	files FileList
	index map[key]string
}

// New builds a Manifest from a file list. Every URL is parsed once; a URL
// belongs to segment N of kind K when its path contains /N/<K filename>.
// The first matching URL wins. URLs of the wrong kind or without a segment
// are ignored.
func New(files FileList) *Manifest {
	m := &Manifest{
		files: files,
		index: make(map[key]string),
	}

	for _, kind := range route.Kinds {
		for _, raw := range files.URLs(kind) {
			segment, ok := segmentOf(raw, kind.Filename())
			if !ok {
				continue
			}
			k := key{segment: segment, kind: kind}
			if _, exists := m.index[k]; !exists {
				m.index[k] = raw
			}
		}
	}

	return m
}

// segmentOf extracts N from a URL whose path contains /N/<filename>.
func segmentOf(raw, filename string) (int, bool) {
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		path = raw[:i]
	}

	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 1; i-- {
		if parts[i] != filename {
			continue
		}
		n, err := strconv.Atoi(parts[i-1])
		if err != nil || n < 0 || parts[i-1] != strconv.Itoa(n) {
			continue
		}
		return n, true
	}
	return 0, false
}

// URL returns the signed URL of a segment's file of the given kind.
func (m *Manifest) URL(segment int, kind route.FileKind) (string, bool) {
	u, ok := m.index[key{segment: segment, kind: kind}]
	return u, ok
}

// Has reports whether the file list contains a segment's file of the given kind.
func (m *Manifest) Has(segment int, kind route.FileKind) bool {
	_, ok := m.URL(segment, kind)
	return ok
}

// Files returns the raw file list.
func (m *Manifest) Files() FileList {
	return m.files
}

// Count returns the number of indexed (segment, kind) pairs.
func (m *Manifest) Count() int {
	return len(m.index)
}
