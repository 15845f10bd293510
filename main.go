package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/ztrue/tracerr"
)

type DownloadCmd struct {
	URL           string        `arg:"positional,required" help:"episode URL; its manifest is read from <url>.json"`
	OutputDir     string        `arg:"-o,--output,env:GIGAVIEWER_OUTPUT" default:"." help:"folder the episode folder is created in"`
	Raw           bool          `arg:"--raw" help:"save pages as downloaded, without descrambling"`
	KeepScrambled bool          `arg:"--keep-scrambled" help:"keep the downloaded scrambled file next to each page"`
	Timeout       time.Duration `arg:"--timeout" default:"30s" help:"timeout of each HTTP request"`
	UserAgent     string        `arg:"--user-agent,env:GIGAVIEWER_USER_AGENT" help:"User-Agent header sent with every request"`
}

type UnscrambleCmd struct {
	Input  string `arg:"-i,--input,required" help:"scrambled image file or folder of JPEGs"`
	Output string `arg:"-o,--output,required" help:"output image file or folder"`
}

type Args struct {
	Download   *DownloadCmd   `arg:"subcommand:download" help:"download and descramble every page of an episode"`
	Unscramble *UnscrambleCmd `arg:"subcommand:unscramble" help:"descramble local image files"`

	Concurrency int  `arg:"-c,--concurrency,env:GIGAVIEWER_CONCURRENCY" help:"number of pages processed at once. Defaults to (number of CPUs available - 1)"`
	Quiet       bool `arg:"-q,--quiet" help:"do not show a progress bar"`
	Debug       bool `arg:"--debug" help:"print stack traces of fatal errors"`
}

func (Args) Description() string {
	return "Downloads GigaViewer comic episodes and restores their scrambled page images."
}

func main() {
	var args Args
	parser := arg.MustParse(&args)
	if parser.Subcommand() == nil {
		parser.Fail("missing subcommand")
	}

	os.Exit(run(&args))
}

func run(args *Args) int {
	log.Println("Start Descrambler")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var progress io.Writer = os.Stderr
	if args.Quiet {
		progress = nil
	}

	var report *Report
	var err error
	switch {
	case args.Download != nil:
		cmd := args.Download
		pipeline := &Pipeline{
			Fetcher:       NewFetcher(nil, cmd.UserAgent, cmd.Timeout),
			OutputDir:     cmd.OutputDir,
			Concurrency:   args.Concurrency,
			Raw:           cmd.Raw,
			KeepScrambled: cmd.KeepScrambled,
			Progress:      progress,
		}
		report, err = pipeline.Run(ctx, cmd.URL)
	case args.Unscramble != nil:
		cmd := args.Unscramble
		report, err = Unscramble(ctx, cmd.Input, cmd.Output, args.Concurrency, progress)
	}

	if err != nil {
		if args.Debug {
			tracerr.PrintSourceColor(err)
		}
		log.Printf("err: %v", err)
		return 1
	}

	for _, failure := range report.Failed {
		log.Printf("failed: %v", failure)
	}
	log.Printf("Completed to Descramble Images: %d saved, %d failed, files saved in %s",
		len(report.Saved), len(report.Failed), report.Dir)
	if len(report.Failed) > 0 {
		return 1
	}
	return 0
}
