// Package testutils provides shared test infrastructure: a fake route index
// with signed file URLs and, behind the integration build tag, a minio
// container for mirror tests.
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// kindKeys maps file-list keys to the file each holds.
var kindKeys = map[string]string{
	"cameras":  "fcamera.hevc",
	"ecameras": "ecamera.hevc",
	"dcameras": "dcamera.hevc",
	"logs":     "rlog.bz2",
}

// RouteServer fakes the route index API and the storage behind its signed
// URLs for a single route.
type RouteServer struct {
	*httptest.Server

	Route string

	mu       sync.Mutex
	segments int
	files    map[string][]byte // "<segment>/<filename>" -> body
	omitted  map[string]bool
	failed   map[string]bool

	filesStatus int

	// IndexRequests counts requests to /v1/route/...
	IndexRequests atomic.Int32
	// Downloads counts requests to signed file URLs.
	Downloads atomic.Int32
}

// StartRouteServer serves route with the given number of segments. Every
// segment holds every file kind; bodies are derived from the file key.
func StartRouteServer(t *testing.T, route string, segments int) *RouteServer {
	t.Helper()

	s := &RouteServer{
		Route:    route,
		segments: segments,
		files:    make(map[string][]byte),
		omitted:  make(map[string]bool),
		failed:   make(map[string]bool),
	}
	for seg := 0; seg < segments; seg++ {
		for _, filename := range kindKeys {
			key := fmt.Sprintf("%d/%s", seg, filename)
			s.files[key] = []byte(route + "/" + key)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/route/", s.serveIndex)
	mux.HandleFunc("/storage/", s.serveFile)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Omit removes a file from the file list, as if it was never uploaded.
func (s *RouteServer) Omit(segment int, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitted[fmt.Sprintf("%d/%s", segment, filename)] = true
}

// Fail keeps a file in the file list but answers its signed URL with 404.
func (s *RouteServer) Fail(segment int, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[fmt.Sprintf("%d/%s", segment, filename)] = true
}

// SetFilesStatus makes the file list endpoint answer with code instead of
// the list. Zero restores the list.
func (s *RouteServer) SetFilesStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesStatus = code
}

// Body returns the content served for a file.
func (s *RouteServer) Body(segment int, filename string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[fmt.Sprintf("%d/%s", segment, filename)]
}

// SetBody replaces the content served for a file.
func (s *RouteServer) SetBody(segment int, filename string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fmt.Sprintf("%d/%s", segment, filename)] = body
}

// signedURL builds a storage URL shaped like the real ones:
// /<dongle>/<date>/<segment>/<filename>?sig=...
func (s *RouteServer) signedURL(segment int, filename string) string {
	dongle, date, _ := strings.Cut(s.Route, "|")
	return fmt.Sprintf("%s/storage/%s/%s/%d/%s?se=2099-01-01&sig=%s",
		s.URL, dongle, date, segment, filename, url.QueryEscape("fake+sig="))
}

func (s *RouteServer) serveIndex(w http.ResponseWriter, r *http.Request) {
	s.IndexRequests.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case "/v1/route/" + s.Route + "/files":
		if s.filesStatus != 0 {
			w.WriteHeader(s.filesStatus)
			return
		}
		list := make(map[string][]string, len(kindKeys))
		for key, filename := range kindKeys {
			list[key] = []string{}
			for seg := 0; seg < s.segments; seg++ {
				if !s.omitted[fmt.Sprintf("%d/%s", seg, filename)] {
					list[key] = append(list[key], s.signedURL(seg, filename))
				}
			}
		}
		json.NewEncoder(w).Encode(list)
	case "/v1/route/" + s.Route:
		starts := make([]int64, s.segments)
		ends := make([]int64, s.segments)
		for i := range starts {
			starts[i] = 1690462879000 + int64(i)*60000
			ends[i] = starts[i] + 60000
		}
		json.NewEncoder(w).Encode(map[string][]int64{
			"segment_start_times": starts,
			"segment_end_times":   ends,
		})
	default:
		http.NotFound(w, r)
	}
}

func (s *RouteServer) serveFile(w http.ResponseWriter, r *http.Request) {
	s.Downloads.Add(1)

	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 2 {
		http.NotFound(w, r)
		return
	}
	key := parts[len(parts)-2] + "/" + parts[len(parts)-1]

	s.mu.Lock()
	body, ok := s.files[key]
	failed := s.failed[key]
	s.mu.Unlock()
	if !ok || failed {
		http.NotFound(w, r)
		return
	}
	w.Write(body)
}
