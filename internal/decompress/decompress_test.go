package decompress

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// fakeDecompressor "decompresses" by renaming the archive.
type fakeDecompressor struct {
	calls []string
	err   error
}

func (f *fakeDecompressor) Decompress(ctx context.Context, archive string) error {
	f.calls = append(f.calls, archive)
	if f.err != nil {
		return f.err
	}
	return os.Rename(archive, strings.TrimSuffix(archive, ".bz2"))
}

func testLayout(t *testing.T) route.Layout {
	return route.Layout{
		DataDir: t.TempDir(),
		Route:   route.MustParse("abc123|2023-07-27--13-01-19"),
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStageDecompressesArchives(t *testing.T) {
	layout := testLayout(t)
	write(t, layout.Path(0, "rlog.bz2"), "a")
	write(t, layout.Path(1, "rlog.bz2"), "b")

	d := &fakeDecompressor{}
	res, err := NewStage(d, nil).Run(context.Background(), layout, []int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, res.Decompressed)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []string{layout.Path(0, "rlog.bz2"), layout.Path(1, "rlog.bz2")}, d.calls)

	for _, s := range []int{0, 1} {
		_, err := os.Stat(layout.Path(s, "rlog"))
		assert.NoError(t, err)
	}
}

func TestStageSkipsDecompressedLogs(t *testing.T) {
	layout := testLayout(t)
	// rlog exists alongside a leftover archive.
	write(t, layout.Path(3, "rlog"), "decoded")
	write(t, layout.Path(3, "rlog.bz2"), "archive")

	d := &fakeDecompressor{}
	res, err := NewStage(d, nil).Run(context.Background(), layout, []int{3})
	require.NoError(t, err)

	assert.Empty(t, d.calls)
	assert.Equal(t, []int{3}, res.Skipped)

	data, err := os.ReadFile(layout.Path(3, "rlog"))
	require.NoError(t, err)
	assert.Equal(t, "decoded", string(data))
}

func TestStageMissingArchive(t *testing.T) {
	layout := testLayout(t)
	write(t, layout.Path(0, "rlog.bz2"), "a")

	d := &fakeDecompressor{}
	_, err := NewStage(d, nil).Run(context.Background(), layout, []int{0, 1})

	var missing *LogArchiveMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Segment)
	assert.Equal(t, layout.Path(1, "rlog.bz2"), missing.Path)
	assert.Len(t, d.calls, 1)
}

func TestStageDecompressorError(t *testing.T) {
	layout := testLayout(t)
	write(t, layout.Path(0, "rlog.bz2"), "a")

	boom := errors.New("corrupt archive")
	_, err := NewStage(&fakeDecompressor{err: boom}, nil).Run(context.Background(), layout, []int{0})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "segment 0")
}

func TestStageCancelled(t *testing.T) {
	layout := testLayout(t)
	write(t, layout.Path(0, "rlog.bz2"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &fakeDecompressor{}
	_, err := NewStage(d, nil).Run(ctx, layout, []int{0})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.calls)
}

// compress creates path+".bz2" with the bzip2 binary.
func compress(t *testing.T, path, content string) string {
	t.Helper()
	bin, err := exec.LookPath(DefaultBinary)
	if err != nil {
		t.Skip("bzip2 not installed")
	}
	write(t, path, content)
	out, err := exec.Command(bin, "-z", path).CombinedOutput()
	require.NoError(t, err, string(out))
	return path + ".bz2"
}

func TestCommand(t *testing.T) {
	archive := compress(t, filepath.Join(t.TempDir(), "rlog"), "raw log contents")

	require.NoError(t, Command{}.Decompress(context.Background(), archive))

	data, err := os.ReadFile(strings.TrimSuffix(archive, ".bz2"))
	require.NoError(t, err)
	assert.Equal(t, "raw log contents", string(data))
}

func TestCommandMissingBinary(t *testing.T) {
	err := Command{Binary: "definitely-not-a-bzip2-binary"}.Decompress(context.Background(), "/nonexistent/rlog.bz2")
	assert.Error(t, err)
}

func TestNative(t *testing.T) {
	archive := compress(t, filepath.Join(t.TempDir(), "rlog"), strings.Repeat("can frame ", 1000))

	require.NoError(t, Native{}.Decompress(context.Background(), archive))

	data, err := os.ReadFile(strings.TrimSuffix(archive, ".bz2"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("can frame ", 1000), string(data))

	_, err = os.Stat(archive)
	assert.True(t, os.IsNotExist(err), "archive is consumed")
}

func TestNativeCorrupt(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "rlog.bz2")
	write(t, archive, "not bzip2 data")

	err := Native{}.Decompress(context.Background(), archive)
	assert.Error(t, err)

	_, statErr := os.Stat(strings.TrimSuffix(archive, ".bz2"))
	assert.True(t, os.IsNotExist(statErr), "no partial output left behind")
}

func TestAuto(t *testing.T) {
	assert.IsType(t, Native{}, Auto("definitely-not-a-bzip2-binary"))
	if _, err := exec.LookPath(DefaultBinary); err == nil {
		assert.IsType(t, Command{}, Auto(""))
	}
}
