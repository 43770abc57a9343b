// Package pipeline runs one routefetch invocation end to end.
//
// Phases run strictly in order on the calling goroutine; only the download
// phase fans out. Failures stop the run and come back as a *StageError so the
// caller can map them to exit codes without parsing messages.
//
// # Usage
//
//	p := pipeline.New(pipeline.Options{Workers: 20, Logger: logger})
//	rep, err := p.Run(ctx, pipeline.Request{
//	    DataDir:        "./data",
//	    RouteOrSegment: "a2a0ccea32023010|2023-07-27--13-01-19",
//	    Window:         route.Window{Smear: 10, Start: 60, Length: 30},
//	})
package pipeline
