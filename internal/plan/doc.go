// Package plan decides what a run has to download.
//
// Validate checks every requested (segment, kind) pair against the remote
// file list before anything is transferred, so a run either has everything it
// needs or fails with *MissingUploadError naming the first gap.
//
// Build then produces one downloader.Task per pair that is not already on
// disk:
//
//	cameras  skipped when the file exists, unless Overwrite is set
//	logs     skipped when rlog.bz2 or the decompressed rlog exists
package plan
