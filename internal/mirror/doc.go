// Package mirror copies downloaded segment files into object storage.
//
// Any gocloud.dev/blob bucket works; object keys follow the local layout so a
// mirrored route can be fetched back with the same relative paths. Objects
// that already exist with the same size are skipped, which makes re-runs
// cheap.
//
// # Usage
//
//	m, err := mirror.Open(ctx, "s3://bucket?region=us-east-1", mirror.Options{RunID: id})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	res, err := m.Run(ctx, layout, segments, kinds)
package mirror
