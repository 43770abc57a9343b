// Package decompress turns downloaded rlog.bz2 archives into rlog files.
//
// The Stage runs after the whole download batch succeeded. For every segment
// it skips logs that are already decompressed and otherwise requires the
// archive to be present.
//
// # Usage
//
//	stage := decompress.NewStage(decompress.Auto("bzip2"), logger)
//	res, err := stage.Run(ctx, layout, segments)
package decompress
