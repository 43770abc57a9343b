package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/tylermilner/op-replay-clipper/internal/decompress"
	"github.com/tylermilner/op-replay-clipper/internal/downloader"
	rfhttp "github.com/tylermilner/op-replay-clipper/internal/http"
	"github.com/tylermilner/op-replay-clipper/internal/manifest"
	"github.com/tylermilner/op-replay-clipper/internal/mirror"
	"github.com/tylermilner/op-replay-clipper/internal/plan"
	"github.com/tylermilner/op-replay-clipper/internal/progress"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// StatusPrefix starts every status line.
const StatusPrefix = "[routefetch]"

// Request is a single invocation: what to fetch and where to put it.
type Request struct {
	DataDir        string
	RouteOrSegment string
	Window         route.Window
	// FileTypes are CLI names; empty means route.DefaultFileTypes.
	FileTypes []string
}

// Options configures a Pipeline.
type Options struct {
	// HTTP is shared by the manifest client and the downloads.
	// Default: rfhttp.NewClient(rfhttp.DefaultOptions())
	HTTP *rfhttp.Client

	APIURL     string
	ConnectURL string

	// Workers caps concurrent downloads. Default: downloader.DefaultWorkers
	Workers int

	// Overwrite re-fetches camera files that already exist.
	Overwrite bool

	// Progress enables the live progress reporter on Status.
	Progress bool

	// Decompressor handles log archives. Default: decompress.Auto("")
	Decompressor decompress.Decompressor

	// Mirror, when set, receives the segment files after post-processing.
	Mirror *mirror.Mirror

	// Status receives the user-facing status lines. Default: os.Stderr
	Status io.Writer

	// Logger receives structured logs. Default: discard.
	Logger *slog.Logger
}

// Report describes a successful run.
type Report struct {
	Route      route.Route
	Segments   []int
	Kinds      route.KindSet
	ViewURL    string
	Plan       *plan.Plan
	Download   downloader.Summary
	Decompress *decompress.Result
	Mirror     *mirror.Result
}

// Pipeline runs the fetch phases in order: parse, resolve segments, fetch
// the manifest, validate, download, decompress and optionally mirror.
type Pipeline struct {
	opts     Options
	client   *manifest.Client
	log      *slog.Logger
	status   io.Writer
	decomp   decompress.Decompressor
	transfer downloader.Transferer
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.HTTP == nil {
		opts.HTTP = rfhttp.NewClient(rfhttp.DefaultOptions())
	}
	if opts.Workers <= 0 {
		opts.Workers = downloader.DefaultWorkers
	}
	if opts.Decompressor == nil {
		opts.Decompressor = decompress.Auto("")
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	client := manifest.NewClient(opts.HTTP, manifest.Options{
		APIURL:     opts.APIURL,
		ConnectURL: opts.ConnectURL,
		Logger:     log,
	})

	return &Pipeline{
		opts:     opts,
		client:   client,
		log:      log,
		status:   opts.Status,
		decomp:   opts.Decompressor,
		transfer: opts.HTTP,
	}
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.status, StatusPrefix+" "+format+"\n", args...)
}

// Run executes req. Every returned error is a *StageError naming the phase
// that failed and wrapping the typed error of that phase. Nothing is
// downloaded unless every requested file is available.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	// Inputs are checked before any request is made.
	kinds, err := route.ParseFileTypes(req.FileTypes)
	if err != nil {
		return nil, stageErr(StageArgs, err)
	}
	r, err := route.Parse(req.RouteOrSegment)
	if err != nil {
		return nil, stageErr(StageArgs, err)
	}
	segments, err := route.Segments(req.Window)
	if err != nil {
		return nil, stageErr(StageArgs, err)
	}
	layout := route.Layout{DataDir: req.DataDir, Route: r}

	rep := &Report{Route: r, Segments: segments, Kinds: kinds}
	log := p.log.With("route", r.String())
	log.Debug("starting", "segments", len(segments), "file_types", kinds.String())

	p.printf("Downloading file list from %s", p.client.FilesURL(r))
	m, err := p.client.Files(ctx, r)
	if err != nil {
		return nil, stageErr(StageManifest, err)
	}

	p.printf("Downloading route info from %s", p.client.RouteURL(r))
	info, err := p.client.RouteInfo(ctx, r)
	if err != nil {
		return nil, stageErr(StageRouteInfo, err)
	}
	start, end, err := info.Span(segments[0], segments[len(segments)-1])
	if err != nil {
		return nil, stageErr(StageRouteInfo, err)
	}
	rep.ViewURL = p.client.ViewURL(r, start, end)
	p.printf("Route %s starts at %d and ends at %d", r, start, end)
	p.printf("View the route at %s", rep.ViewURL)

	if err := plan.Validate(m, segments, kinds, rep.ViewURL); err != nil {
		return nil, stageErr(StageValidate, err)
	}

	pl, err := plan.Build(m, layout, segments, kinds, plan.Options{Overwrite: p.opts.Overwrite})
	if err != nil {
		return nil, stageErr(StagePlan, err)
	}
	rep.Plan = pl
	for _, s := range pl.Skipped {
		p.printf("Skipping %s because it already exists", s.Path)
	}

	summary, err := p.download(ctx, r, pl.Tasks)
	rep.Download = summary
	if err != nil {
		return rep, stageErr(StageDownload, err)
	}
	p.printf("Downloaded %d files (%s), %d already present",
		summary.Downloaded, humanize.IBytes(uint64(summary.Bytes)), summary.Skipped+len(pl.Skipped))

	if kinds.Has(route.Log) {
		res, err := decompress.NewStage(p.decomp, log).Run(ctx, layout, segments)
		rep.Decompress = res
		if res != nil {
			for _, s := range res.Skipped {
				p.printf("Skipping decompression of %d because it already exists", s)
			}
		}
		if err != nil {
			return rep, stageErr(StageDecompress, err)
		}
	}

	if p.opts.Mirror != nil {
		res, err := p.opts.Mirror.Run(ctx, layout, segments, kinds)
		rep.Mirror = res
		if err != nil {
			return rep, stageErr(StageMirror, err)
		}
		verified, err := p.opts.Mirror.Verify(ctx, layout, segments, kinds)
		if err == nil {
			err = verified.Check()
		}
		if err != nil {
			return rep, stageErr(StageMirror, err)
		}
		p.printf("Mirrored %d files (%s), %d already in the bucket",
			res.Copied, humanize.IBytes(uint64(res.Bytes)), res.Skipped)
	}

	log.Debug("done",
		"downloaded", rep.Download.Downloaded,
		"skipped", rep.Download.Skipped+len(pl.Skipped),
		"bytes", rep.Download.Bytes)
	return rep, nil
}

// download runs the tasks of a plan to completion.
func (p *Pipeline) download(ctx context.Context, r route.Route, tasks []downloader.Task) (downloader.Summary, error) {
	if len(tasks) == 0 {
		return downloader.Summary{}, nil
	}

	var reporter *progress.Reporter
	if p.opts.Progress {
		reporter = progress.NewReporter(progress.Options{
			TotalFiles: len(tasks),
			Workers:    p.opts.Workers,
			Output:     p.status,
			Route:      r.String(),
			Prefix:     StatusPrefix,
		})
		reporter.Start()
	}

	sched := downloader.NewScheduler(p.transfer, downloader.Options{
		Workers:  p.opts.Workers,
		Progress: reporter,
		Logger:   p.log,
	})
	results := sched.Run(ctx, tasks)

	if reporter != nil {
		reporter.Stop()
	}

	return downloader.Summarize(results), downloader.Check(results)
}
