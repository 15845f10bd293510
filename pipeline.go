package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/ztrue/tracerr"
	"golang.org/x/sync/errgroup"
)

const outputExt = ".jpg"

// Pipeline downloads every page of an episode and descrambles it.
type Pipeline struct {
	Fetcher   *Fetcher
	OutputDir string

	// Concurrency bounds the number of pages in flight. Zero or less uses
	// one less than the number of CPUs.
	Concurrency int

	// Raw saves pages as downloaded, without descrambling.
	Raw bool
	// KeepScrambled keeps the downloaded artifact next to the output.
	KeepScrambled bool

	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// PageError records why a single page or file was not saved.
type PageError struct {
	Index  int
	Source string
	Err    error
}

func (e PageError) Error() string {
	return fmt.Sprintf("[%3d] %s: %v", e.Index+1, e.Source, e.Err)
}

func (e PageError) Unwrap() error { return e.Err }

// Report is the outcome of a batch. Saved is in page order.
type Report struct {
	Dir    string
	Saved  []string
	Failed []PageError
}

type pageResult struct {
	path string
	err  error
}

// Run fetches the manifest of episodeURL and processes its pages. Errors of
// individual pages are collected in the report; only manifest and output
// directory failures abort the run.
func (p *Pipeline) Run(ctx context.Context, episodeURL string) (*Report, error) {
	fetcher := p.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(nil, "", 0)
	}

	manifestURL := ManifestURL(episodeURL)
	log.Printf("fetching manifest %s", manifestURL)
	manifest, err := fetcher.Manifest(ctx, manifestURL)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}

	dir := filepath.Join(p.OutputDir, manifest.FolderName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("err: failure to create folder (%s): %w", dir, err))
	}

	pageURLs := manifest.PageURLs()
	names := pageNames(pageURLs)
	log.Printf("Processing %d images into %s", len(pageURLs), dir)

	results := fanOut(ctx, pageURLs, p.Concurrency, p.Progress, "descrambling pages",
		func(ctx context.Context, index int, pageURL string) (string, error) {
			return p.processPage(ctx, fetcher, dir, index, pageURL, names[index])
		})

	report := collectReport(dir, pageURLs, results)
	log.Printf("Completed %d of %d pages", len(report.Saved), len(pageURLs))
	return report, nil
}

func (p *Pipeline) processPage(ctx context.Context, fetcher *Fetcher, dir string, index int, pageURL string, name pageName) (string, error) {
	log.Printf("[%3d] downloading...", index+1)
	data, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(dir, name.stem+outputExt)

	if p.Raw {
		if err := saveBytes(data, outputPath); err != nil {
			return "", err
		}
		log.Printf("[%3d] saved image to %s", index+1, outputPath)
		return outputPath, nil
	}

	scrambledPath := filepath.Join(dir, name.stem+".scrambled"+name.ext)
	if err := saveBytes(data, scrambledPath); err != nil {
		return "", err
	}

	log.Printf("[%3d] descrambling...", index+1)
	if err := descrambleFile(scrambledPath, outputPath); err != nil {
		return "", err
	}

	if !p.KeepScrambled {
		if err := os.Remove(scrambledPath); err != nil {
			log.Printf("[%3d] failure to remove %s - %v", index+1, scrambledPath, err)
		}
	}
	log.Printf("[%3d] saved image to %s", index+1, outputPath)
	return outputPath, nil
}

// descrambleFile decodes inputPath, restores it and writes the JPEG result
// to outputPath. Nothing is written when any step fails.
func descrambleFile(inputPath, outputPath string) error {
	img, err := decodeFile(inputPath)
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	descrambledImg, err := Descramble(img, bounds.Dx(), bounds.Dy())
	if err != nil {
		return err
	}
	return saveImage(descrambledImg, outputPath)
}

// fanOut runs fn for every item with at most concurrency calls in flight.
// A failing item never cancels its siblings; items that have not started
// when ctx is done fail with ctx.Err().
func fanOut(ctx context.Context, items []string, concurrency int, progress io.Writer, description string,
	fn func(ctx context.Context, index int, item string) (string, error)) []pageResult {
	results := make([]pageResult, len(items))
	bar := newProgressBar(progress, len(items), description)

	var eg errgroup.Group
	eg.SetLimit(effectiveConcurrency(concurrency))
	for index, item := range items {
		eg.Go(func() error {
			defer func() { _ = bar.Add(1) }()

			if err := ctx.Err(); err != nil {
				results[index] = pageResult{err: err}
				return nil
			}
			path, err := fn(ctx, index, item)
			if err != nil {
				log.Printf("[%3d] failure to process - %v", index+1, err)
			}
			results[index] = pageResult{path: path, err: err}
			return nil
		})
	}
	_ = eg.Wait()
	_ = bar.Finish()

	return results
}

func collectReport(dir string, items []string, results []pageResult) *Report {
	report := &Report{Dir: dir}
	for index, result := range results {
		if result.err != nil {
			report.Failed = append(report.Failed, PageError{Index: index, Source: items[index], Err: result.err})
			continue
		}
		report.Saved = append(report.Saved, result.path)
	}
	return report
}

func effectiveConcurrency(concurrency int) int {
	if concurrency > 0 {
		return concurrency
	}
	if n := runtime.NumCPU() - 1; n > 1 {
		return n
	}
	return 1
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
