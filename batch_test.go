package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer file.Close()
	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
}

func TestUnscrambleDirPicksJPEGsOnly(t *testing.T) {
	l := GigaViewerLayout()
	page := newGridPage(l)
	inputDir, outputDir := t.TempDir(), filepath.Join(t.TempDir(), "out")

	for _, name := range []string{"a.jpg", "B.JPEG", "c.Jpg"} {
		writeJPEG(t, filepath.Join(inputDir, name), page)
	}
	if err := os.WriteFile(filepath.Join(inputDir, "d.png"), encodePNG(t, page), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inputDir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(inputDir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeJPEG(t, filepath.Join(inputDir, "sub", "e.jpg"), page)
	if err := os.Mkdir(filepath.Join(inputDir, "dir.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	report, err := UnscrambleDir(context.Background(), inputDir, outputDir, 2, nil)
	if err != nil {
		t.Fatalf("UnscrambleDir failed: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failed)
	}

	want := []string{"B.JPEG", "a.jpg", "c.Jpg"}
	var saved []string
	for _, path := range report.Saved {
		saved = append(saved, filepath.Base(path))
	}
	sort.Strings(saved)
	if !reflect.DeepEqual(saved, want) {
		t.Errorf("saved %v, want %v", saved, want)
	}
	if got := listDir(t, outputDir); !reflect.DeepEqual(got, want) {
		t.Errorf("output folder holds %v, want %v", got, want)
	}
}

func TestUnscrambleDirIsolatesFailures(t *testing.T) {
	inputDir, outputDir := t.TempDir(), t.TempDir()
	writeJPEG(t, filepath.Join(inputDir, "good.jpg"), newGridPage(GigaViewerLayout()))
	writeJPEG(t, filepath.Join(inputDir, "small.jpg"), image.NewRGBA(image.Rect(0, 0, 64, 64)))
	if err := os.WriteFile(filepath.Join(inputDir, "broken.jpg"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := UnscrambleDir(context.Background(), inputDir, outputDir, 0, nil)
	if err != nil {
		t.Fatalf("UnscrambleDir failed: %v", err)
	}
	if len(report.Saved) != 1 || filepath.Base(report.Saved[0]) != "good.jpg" {
		t.Errorf("Saved = %v, want only good.jpg", report.Saved)
	}

	failures := map[string]error{}
	for _, failure := range report.Failed {
		failures[failure.Source] = failure.Err
	}
	var decodeErr *DecodeError
	if !errors.As(failures["broken.jpg"], &decodeErr) {
		t.Errorf("broken.jpg error = %v, want *DecodeError", failures["broken.jpg"])
	}
	if !errors.Is(failures["small.jpg"], ErrDimensionMismatch) {
		t.Errorf("small.jpg error = %v, want dimension mismatch", failures["small.jpg"])
	}
	if got := listDir(t, outputDir); !reflect.DeepEqual(got, []string{"good.jpg"}) {
		t.Errorf("output folder holds %v, want [good.jpg]", got)
	}
}

func TestUnscrambleFileDimensionMismatchWritesNothing(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.jpg")
	outputPath := filepath.Join(dir, "out.jpg")
	writeJPEG(t, inputPath, image.NewRGBA(image.Rect(0, 0, 845, 1200)))

	err := UnscrambleFile(inputPath, outputPath)
	var mismatch *DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *DimensionMismatchError, got %v", err)
	}
	if got := listDir(t, dir); !reflect.DeepEqual(got, []string{"in.jpg"}) {
		t.Errorf("folder holds %v, want only in.jpg", got)
	}
}

func TestUnscrambleFileMode(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.jpeg")
	outputPath := filepath.Join(dir, "restored.jpg")
	writeJPEG(t, inputPath, newGridPage(GigaViewerLayout()))

	report, err := Unscramble(context.Background(), inputPath, outputPath, 1, nil)
	if err != nil {
		t.Fatalf("Unscramble failed: %v", err)
	}
	if len(report.Saved) != 1 || report.Saved[0] != outputPath {
		t.Fatalf("Saved = %v, failed = %v", report.Saved, report.Failed)
	}
	out, err := decodeFile(outputPath)
	if err != nil {
		t.Fatalf("decoding output failed: %v", err)
	}
	if got := out.Bounds(); got != image.Rect(0, 0, 844, 1200) {
		t.Errorf("output bounds = %v", got)
	}
}

func TestUnscrambleMissingInput(t *testing.T) {
	_, err := Unscramble(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), 1, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestUnscrambleDirRejectsInputFolderAsOutput(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "p.jpg")
	writeJPEG(t, inputPath, newGridPage(GigaViewerLayout()))
	before, err := os.ReadFile(inputPath)
	if err != nil {
		t.Fatal(err)
	}

	for _, outputDir := range []string{dir, filepath.Join(dir, ".")} {
		report, err := UnscrambleDir(context.Background(), dir, outputDir, 1, nil)
		if err == nil {
			t.Fatalf("UnscrambleDir(%q, %q) succeeded with report %+v", dir, outputDir, report)
		}
	}

	after, err := os.ReadFile(inputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("scrambled source was modified")
	}
	if got := listDir(t, dir); !reflect.DeepEqual(got, []string{"p.jpg"}) {
		t.Errorf("folder holds %v, want only p.jpg", got)
	}
}

func TestUnscrambleFileRejectsInputAsOutput(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "p.jpg")
	writeJPEG(t, inputPath, newGridPage(GigaViewerLayout()))
	before, err := os.ReadFile(inputPath)
	if err != nil {
		t.Fatal(err)
	}

	report, err := Unscramble(context.Background(), inputPath, filepath.Join(dir, "sub", "..", "p.jpg"), 1, nil)
	if err != nil {
		t.Fatalf("Unscramble failed: %v", err)
	}
	if len(report.Failed) != 1 || !errors.Is(report.Failed[0].Err, ErrSameLocation) {
		t.Fatalf("Failed = %v, want one ErrSameLocation", report.Failed)
	}

	after, err := os.ReadFile(inputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("scrambled source was modified")
	}
}
