package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/tylermilner/op-replay-clipper/internal/config"
	"github.com/tylermilner/op-replay-clipper/internal/decompress"
	rfhttp "github.com/tylermilner/op-replay-clipper/internal/http"
	"github.com/tylermilner/op-replay-clipper/internal/logger"
	"github.com/tylermilner/op-replay-clipper/internal/mirror"
	"github.com/tylermilner/op-replay-clipper/internal/pipeline"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

const (
	flagConfig     = "config"
	flagFileTypes  = "file_types"
	flagWorkers    = "workers"
	flagOverwrite  = "overwrite"
	flagAPIURL     = "api-url"
	flagConnectURL = "connect-url"
	flagMirror     = "mirror"
	flagProgress   = "progress"
	flagLogLevel   = "log-level"
	flagBzip2      = "bzip2"
	flagTimeout    = "timeout"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "routefetch",
		Usage:     "Download openpilot route segments",
		ArgsUsage: "<data_dir> <route_or_segment> <smear_seconds> <start_seconds> <length>",
		Description: "Fetches the camera and log files covering a time window of a route,\n" +
			"checking that every requested file was uploaded before downloading\n" +
			"anything, then decompresses the logs in place.\n\n" +
			"--file_types accepts several values: --file_types cameras logs",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagConfig, Usage: "YAML config file"},
			&cli.StringSliceFlag{
				Name:    flagFileTypes,
				Aliases: []string{"file-types"},
				Usage:   "file types to download: " + fmt.Sprint(route.ValidFileTypes()) + " (default: cameras ecameras logs)",
			},
			&cli.IntFlag{Name: flagWorkers, Usage: "maximum concurrent downloads (default: 20)"},
			&cli.BoolFlag{Name: flagOverwrite, Usage: "re-download camera files that already exist"},
			&cli.StringFlag{Name: flagAPIURL, Usage: "route index base URL"},
			&cli.StringFlag{Name: flagConnectURL, Usage: "route viewer base URL"},
			&cli.StringFlag{Name: flagMirror, Usage: "bucket URL to mirror segment files to (s3://, gs://, file://, mem://)"},
			&cli.BoolFlag{Name: flagProgress, Usage: "show download progress (default: on when stderr is a terminal)"},
			&cli.StringFlag{Name: flagLogLevel, Usage: "log level: debug, info, warn, error"},
			&cli.StringFlag{Name: flagBzip2, Usage: "bzip2 binary used to decompress logs"},
			&cli.DurationFlag{Name: flagTimeout, Usage: "per-request timeout (0 = none)"},
		},
		HideHelpCommand: true,
		OnUsageError: func(_ *cli.Context, err error, _ bool) error {
			return &usageError{err: err}
		},
		// Exit codes are chosen by run.
		ExitErrHandler: func(*cli.Context, error) {},
		Action:         fetch,
	}
}

// fetch is the app action.
func fetch(c *cli.Context) error {
	if c.NArg() != 5 {
		return &usageError{err: fmt.Errorf("expected 5 arguments, got %d", c.NArg())}
	}
	args := c.Args().Slice()

	var window route.Window
	for i, dst := range []*int{&window.Smear, &window.Start, &window.Length} {
		n, err := strconv.Atoi(args[2+i])
		if err != nil {
			name := []string{"smear_seconds", "start_seconds", "length"}[i]
			return &usageError{err: fmt.Errorf("%s must be an integer: %q", name, args[2+i])}
		}
		*dst = n
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, c.App.ErrWriter)
	if err != nil {
		return &usageError{err: err}
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	httpOpts := rfhttp.DefaultOptions()
	httpOpts.MaxIdleConnsPerHost = max(httpOpts.MaxIdleConnsPerHost, cfg.Workers)
	httpOpts.Timeout = cfg.Timeout
	httpOpts.RetryAttempts = cfg.Retry.Attempts
	httpOpts.RetryBackoff = cfg.Retry.Backoff
	httpOpts.RetryMaxBackoff = cfg.Retry.MaxBackoff
	httpOpts.UserAgent = "routefetch/" + version

	var m *mirror.Mirror
	if cfg.Mirror != "" {
		m, err = mirror.Open(c.Context, cfg.Mirror, mirror.Options{RunID: runID, Logger: log})
		if err != nil {
			return &pipeline.StageError{Stage: pipeline.StageMirror, Err: err}
		}
		defer m.Close()
	}

	progress := cfg.Progress
	if !c.IsSet(flagProgress) && !progress {
		progress = isTerminal(c.App.ErrWriter)
	}

	p := pipeline.New(pipeline.Options{
		HTTP:         rfhttp.NewClient(httpOpts),
		APIURL:       cfg.APIURL,
		ConnectURL:   cfg.ConnectURL,
		Workers:      cfg.Workers,
		Overwrite:    cfg.Overwrite,
		Progress:     progress,
		Decompressor: decompress.Auto(cfg.Bzip2),
		Mirror:       m,
		Status:       c.App.ErrWriter,
		Logger:       log,
	})

	_, err = p.Run(c.Context, pipeline.Request{
		DataDir:        args[0],
		RouteOrSegment: args[1],
		Window:         window,
		FileTypes:      cfg.FileTypes,
	})
	return err
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, &usageError{err: err}
	}

	var flags config.Config
	flags.FileTypes = c.StringSlice(flagFileTypes)
	flags.Workers = c.Int(flagWorkers)
	flags.Overwrite = c.Bool(flagOverwrite)
	flags.APIURL = c.String(flagAPIURL)
	flags.ConnectURL = c.String(flagConnectURL)
	flags.Mirror = c.String(flagMirror)
	flags.LogLevel = c.String(flagLogLevel)
	flags.Bzip2 = c.String(flagBzip2)
	flags.Timeout = c.Duration(flagTimeout)
	cfg = cfg.Merge(flags)
	if c.IsSet(flagProgress) {
		cfg.Progress = c.Bool(flagProgress)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, &usageError{err: err}
	}
	return cfg, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
