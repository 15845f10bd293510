package main

import (
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 95

func decodeImage(r io.Reader, source string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}
	defer file.Close()
	return decodeImage(file, path)
}

// saveImage encodes img as JPEG into a temporary file next to path and
// renames it into place, so a failed write never leaves a partial page.
func saveImage(img image.Image, path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	})
}

func saveBytes(data []byte, path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &EncodeError{Path: path, Err: err}
	}
	tmpPath := file.Name()

	if err := file.Chmod(0o644); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return &EncodeError{Path: path, Err: err}
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return &EncodeError{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return &EncodeError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &EncodeError{Path: path, Err: err}
	}
	return nil
}
