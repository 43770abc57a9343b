package mirror

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// VerifyResult reports how the bucket compares to the local files.
type VerifyResult struct {
	Checked        int
	Missing        int
	SizeMismatches int
	Errors         []string
}

// Valid reports whether every object exists with the local size.
func (r *VerifyResult) Valid() bool {
	return r.Missing == 0 && r.SizeMismatches == 0
}

// VerifyError is returned by Check for an invalid VerifyResult.
type VerifyError struct {
	Result *VerifyResult
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("mirror: verification failed: %d missing, %d size mismatches\n  %s",
		e.Result.Missing, e.Result.SizeMismatches, strings.Join(e.Result.Errors, "\n  "))
}

// Verify compares object sizes in the bucket against the local files without
// reading object data. Missing objects and size mismatches are reported in
// the result, not as errors.
func (m *Mirror) Verify(ctx context.Context, layout route.Layout, segments []int, kinds route.KindSet) (*VerifyResult, error) {
	if m.bucket == nil {
		return nil, ErrNoBucket
	}

	res := &VerifyResult{}
	for _, segment := range segments {
		for _, kind := range kinds.Kinds() {
			filename, err := localFilename(layout, segment, kind)
			if err != nil {
				return nil, err
			}
			info, err := os.Stat(layout.Path(segment, filename))
			if err != nil {
				return nil, fmt.Errorf("mirror: %w", err)
			}

			key := m.Key(layout, segment, filename)
			res.Checked++

			attrs, err := m.bucket.Attributes(ctx, key)
			if err != nil {
				if isNotExist(err) {
					res.Missing++
					res.Errors = append(res.Errors, fmt.Sprintf("%s missing", key))
					continue
				}
				return nil, fmt.Errorf("mirror: attributes %s: %w", key, err)
			}
			if attrs.Size != info.Size() {
				res.SizeMismatches++
				res.Errors = append(res.Errors,
					fmt.Sprintf("%s size mismatch: expected %d, got %d", key, info.Size(), attrs.Size))
			}
		}
	}

	return res, nil
}

// Check returns a *VerifyError unless r is valid.
func (r *VerifyResult) Check() error {
	if r.Valid() {
		return nil
	}
	return &VerifyError{Result: r}
}
