package route

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input  string
		route  string
		dongle string
		date   string
	}{
		{"abc123|2023-07-27--13-01-19--5", "abc123|2023-07-27--13-01-19", "abc123", "2023-07-27--13-01-19"},
		{"abc123|2023-07-27--13-01-19", "abc123|2023-07-27--13-01-19", "abc123", "2023-07-27--13-01-19"},
		{"a2a0ccea32023010|2023-07-27--13-01-19--12", "a2a0ccea32023010|2023-07-27--13-01-19", "a2a0ccea32023010", "2023-07-27--13-01-19"},
		{" abc123|2023-07-27--13-01-19--0 ", "abc123|2023-07-27--13-01-19", "abc123", "2023-07-27--13-01-19"},
	}

	for _, tt := range tests {
		r, err := Parse(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.route, r.String(), tt.input)
		assert.Equal(t, tt.dongle, r.DongleID(), tt.input)
		assert.Equal(t, tt.date, r.Date(), tt.input)
	}
}

func TestParseIdempotent(t *testing.T) {
	base := "abc123|2023-07-27--13-01-19"

	once, err := Parse(base)
	require.NoError(t, err)
	twice, err := Parse(once.String())
	require.NoError(t, err)
	withSegment, err := Parse(base + "--7")
	require.NoError(t, err)

	assert.Equal(t, base, once.String())
	assert.Equal(t, once, twice)
	assert.Equal(t, once, withSegment)
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"abc123",
		"abc123--5",
		"|2023-07-27--13-01-19",
		"abc123|",
		"abc123|--5",
	} {
		_, err := Parse(input)
		assert.True(t, errors.Is(err, ErrMalformedRoute), "Parse(%q) = %v, want ErrMalformedRoute", input, err)
	}
}

func TestSegmentsScenarios(t *testing.T) {
	tests := []struct {
		window   Window
		expected []int
	}{
		{Window{Smear: 0, Start: 10, Length: 60}, []int{0, 1}},
		{Window{Smear: 0, Start: 400, Length: 60}, []int{6, 7}},
		{Window{Smear: 0, Start: 0, Length: 60}, []int{0, 1}},
		{Window{Smear: 0, Start: 0, Length: 59}, []int{0}},
		{Window{Smear: 30, Start: 400, Length: 60}, []int{6, 7}},
		{Window{Smear: 60, Start: 400, Length: 60}, []int{5, 6, 7}},
		{Window{Smear: 1000, Start: 400, Length: 60}, []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{Window{Smear: 0, Start: 120, Length: 0}, []int{2}},
	}

	for _, tt := range tests {
		segments, err := Segments(tt.window)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, segments, "%+v", tt.window)
	}
}

func TestSegmentsProperties(t *testing.T) {
	for start := 0; start <= 400; start += 7 {
		for _, length := range []int{1, 30, 59, 60, 61, 300} {
			for _, smear := range []int{0, 5, 60, 500} {
				w := Window{Smear: smear, Start: start, Length: length}
				segments, err := Segments(w)
				require.NoError(t, err)
				require.NotEmpty(t, segments)

				assert.Equal(t, max(0, start-smear)/60, segments[0], "%+v", w)
				assert.Equal(t, (start+length)/60, segments[len(segments)-1], "%+v", w)
				for i := 1; i < len(segments); i++ {
					assert.Equal(t, segments[i-1]+1, segments[i], "%+v not contiguous", w)
				}
			}
		}
	}
}

func TestSegmentsInvalid(t *testing.T) {
	for _, w := range []Window{
		{Smear: -1, Start: 0, Length: 60},
		{Smear: 0, Start: -10, Length: 60},
		{Smear: 0, Start: 0, Length: -1},
	} {
		_, err := Segments(w)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestParseFileTypes(t *testing.T) {
	set, err := ParseFileTypes(nil)
	require.NoError(t, err)
	assert.Equal(t, []FileKind{ForwardCamera, WideCamera, Log}, set.Kinds())

	set, err = ParseFileTypes([]string{"logs", "dcameras", "logs"})
	require.NoError(t, err)
	assert.Equal(t, []FileKind{DriverCamera, Log}, set.Kinds())
	assert.False(t, set.Has(ForwardCamera))
	assert.Equal(t, "dcameras,logs", set.String())
}

func TestParseFileTypesInvalid(t *testing.T) {
	_, err := ParseFileTypes([]string{"cameras", "xcamera"})

	var invalid *InvalidFileTypeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "xcamera", invalid.Value)
	assert.Contains(t, err.Error(), "xcamera")
	assert.Contains(t, err.Error(), "cameras, ecameras, dcameras, logs")
}

func TestKinds(t *testing.T) {
	assert.Equal(t, "fcamera.hevc", ForwardCamera.Filename())
	assert.Equal(t, "ecamera.hevc", WideCamera.Filename())
	assert.Equal(t, "dcamera.hevc", DriverCamera.Filename())
	assert.Equal(t, "rlog.bz2", Log.Filename())
	assert.Equal(t, "wide camera", WideCamera.Label())

	k, ok := KindByFilename("dcamera.hevc")
	assert.True(t, ok)
	assert.Equal(t, DriverCamera, k)

	_, ok = KindByFilename("qcamera.ts")
	assert.False(t, ok)
}

func TestLayout(t *testing.T) {
	l := Layout{DataDir: "/data", Route: MustParse("abc123|2023-07-27--13-01-19")}

	assert.Equal(t, "2023-07-27--13-01-19--6", l.SegmentName(6))
	assert.Equal(t, filepath.Join("/data", "2023-07-27--13-01-19--6"), l.SegmentDir(6))
	assert.Equal(t, filepath.Join("/data", "2023-07-27--13-01-19--6", "rlog.bz2"), l.Path(6, Log.Filename()))
}
