package main

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch matches any *DimensionMismatchError with errors.Is.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// ErrSameLocation is returned when an output path would overwrite its input.
var ErrSameLocation = errors.New("output is the input")

// DimensionMismatchError is returned when a page is not the size the layout
// was made for. Such pages are never processed.
type DimensionMismatchError struct {
	Width, Height         int
	WantWidth, WantHeight int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("err: image size is invalid (w:%d, h:%d, want w:%d, h:%d)",
		e.Width, e.Height, e.WantWidth, e.WantHeight)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// DescrambleError reports a failure inside the tile transform itself.
type DescrambleError struct {
	Err error
}

func (e *DescrambleError) Error() string {
	return fmt.Sprintf("err: failure to descramble - %v", e.Err)
}

func (e *DescrambleError) Unwrap() error { return e.Err }

// DecodeError reports unreadable or malformed image input.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("err: failure to decode image (%s): %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a failure to encode or write an output image.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("err: failure to save image (%s): %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// TransferError reports a network, HTTP status or manifest failure.
type TransferError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("err: http status is invalid (%s): %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("err: failure to download (%s): %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
