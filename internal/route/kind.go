package route

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// FileKind is a type of file uploaded for every segment.
type FileKind int

const (
	ForwardCamera FileKind = iota
	WideCamera
	DriverCamera
	Log
)

// Kinds lists every FileKind in canonical order. Validation and planning walk
// kinds in this order.
var Kinds = []FileKind{ForwardCamera, WideCamera, DriverCamera, Log}

// DecompressedLog is the name of a log after its archive was decompressed.
const DecompressedLog = "rlog"

// DefaultFileTypes are requested when the user names none.
var DefaultFileTypes = []string{"cameras", "ecameras", "logs"}

var kindInfo = map[FileKind]struct {
	name     string // manifest key and CLI value
	filename string
	label    string
}{
	ForwardCamera: {"cameras", "fcamera.hevc", "forward camera"},
	WideCamera:    {"ecameras", "ecamera.hevc", "wide camera"},
	DriverCamera:  {"dcameras", "dcamera.hevc", "driver camera"},
	Log:           {"logs", "rlog.bz2", "log"},
}

// Name returns the file-list key of k, which is also its CLI value.
func (k FileKind) Name() string {
	return kindInfo[k].name
}

// Filename returns the canonical local (and remote) file name of k.
func (k FileKind) Filename() string {
	return kindInfo[k].filename
}

// Label returns a human readable description of k.
func (k FileKind) Label() string {
	return kindInfo[k].label
}

func (k FileKind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return "FileKind(" + strconv.Itoa(int(k)) + ")"
}

// KindByFilename returns the kind whose canonical file name is name.
func KindByFilename(name string) (FileKind, bool) {
	for _, k := range Kinds {
		if k.Filename() == name {
			return k, true
		}
	}
	return 0, false
}

// InvalidFileTypeError is returned for an unrecognized file type name.
type InvalidFileTypeError struct {
	Value string
}

func (e *InvalidFileTypeError) Error() string {
	return fmt.Sprintf("invalid file type argument: %s. Valid file types are %s",
		e.Value, strings.Join(ValidFileTypes(), ", "))
}

// ValidFileTypes returns the accepted file type names in canonical order.
func ValidFileTypes() []string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = k.Name()
	}
	return names
}

// ParseFileTypes converts file type names into a KindSet. Duplicates are
// allowed. An empty list yields DefaultFileTypes.
func ParseFileTypes(names []string) (KindSet, error) {
	if len(names) == 0 {
		names = DefaultFileTypes
	}

	var set KindSet
	for _, name := range names {
		found := false
		for _, k := range Kinds {
			if k.Name() == name {
				set = set.With(k)
				found = true
				break
			}
		}
		if !found {
			return 0, &InvalidFileTypeError{Value: name}
		}
	}
	return set, nil
}

// KindSet is a set of FileKinds.
type KindSet uint8

// NewKindSet returns a set holding kinds.
func NewKindSet(kinds ...FileKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns s with k added.
func (s KindSet) With(k FileKind) KindSet {
	return s | 1<<uint(k)
}

// Has reports whether k is in s.
func (s KindSet) Has(k FileKind) bool {
	return s&(1<<uint(k)) != 0
}

// Kinds returns the members of s in canonical order.
func (s KindSet) Kinds() []FileKind {
	var kinds []FileKind
	for _, k := range Kinds {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s KindSet) String() string {
	var names []string
	for _, k := range s.Kinds() {
		names = append(names, k.Name())
	}
	return strings.Join(names, ",")
}

// Layout maps segments of a route to local directories:
// <data_dir>/<route_date>--<segment>/<filename>.
type Layout struct {
	DataDir string
	Route   Route
}

// SegmentName returns "<route_date>--<segment>".
func (l Layout) SegmentName(segment int) string {
	return l.Route.Date() + "--" + strconv.Itoa(segment)
}

// SegmentDir returns the local directory of a segment.
func (l Layout) SegmentDir(segment int) string {
	return filepath.Join(l.DataDir, l.SegmentName(segment))
}

// Path returns the local path of a file within a segment directory.
func (l Layout) Path(segment int, filename string) string {
	return filepath.Join(l.SegmentDir(segment), filename)
}
