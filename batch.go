package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ztrue/tracerr"
)

// UnscrambleFile restores a single page file. Nothing is written to
// outputPath when the input cannot be restored.
func UnscrambleFile(inputPath, outputPath string) error {
	if sameLocation(inputPath, outputPath) {
		return fmt.Errorf("err: output would replace its input (%s): %w", outputPath, ErrSameLocation)
	}
	if err := descrambleFile(inputPath, outputPath); err != nil {
		return err
	}
	log.Printf("saved image to %s", outputPath)
	return nil
}

// UnscrambleDir restores every JPEG found directly in inputDir into
// outputDir under the same name. Subdirectories are not visited.
// outputDir must not be inputDir, or every source would be replaced.
func UnscrambleDir(ctx context.Context, inputDir, outputDir string, concurrency int, progress io.Writer) (*Report, error) {
	if sameLocation(inputDir, outputDir) {
		return nil, tracerr.Wrap(fmt.Errorf("err: output folder is the input folder (%s): %w", outputDir, ErrSameLocation))
	}
	names, err := listJPEGs(inputDir)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("err: failure to create folder (%s): %w", outputDir, err))
	}

	log.Printf("Processing %d images in %s", len(names), inputDir)
	results := fanOut(ctx, names, concurrency, progress, "descrambling files",
		func(_ context.Context, index int, name string) (string, error) {
			outputPath := filepath.Join(outputDir, name)
			log.Printf("[%3d] descrambling %s...", index+1, name)
			if err := descrambleFile(filepath.Join(inputDir, name), outputPath); err != nil {
				return "", err
			}
			log.Printf("[%3d] saved image to %s", index+1, outputPath)
			return outputPath, nil
		})

	return collectReport(outputDir, names, results), nil
}

// Unscramble picks file or directory mode from what inputPath is.
func Unscramble(ctx context.Context, inputPath, outputPath string, concurrency int, progress io.Writer) (*Report, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, tracerr.Wrap(fmt.Errorf("err: invalid input (%s): %w", inputPath, err))
	}

	switch {
	case info.Mode().IsRegular():
		report := &Report{Dir: filepath.Dir(outputPath)}
		if err := UnscrambleFile(inputPath, outputPath); err != nil {
			report.Failed = append(report.Failed, PageError{Source: inputPath, Err: err})
		} else {
			report.Saved = append(report.Saved, outputPath)
		}
		return report, nil
	case info.IsDir():
		return UnscrambleDir(ctx, inputPath, outputPath, concurrency, progress)
	default:
		return nil, tracerr.Errorf("err: input is neither a file nor a folder (%s)", inputPath)
	}
}

func listJPEGs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("err: failure to read folder (%s): %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg":
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// sameLocation reports whether a and b name the same file or folder.
func sameLocation(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}
