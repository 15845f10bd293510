package main

import (
	"fmt"
	"image"

	"github.com/disintegration/gift"
)

// Descramble restores a GigaViewer page. width and height are the page size
// as read from the image header and must be 844x1200.
func Descramble(scrambledImg image.Image, width, height int) (image.Image, error) {
	return GigaViewerLayout().Descramble(scrambledImg, width, height)
}

// Descramble moves every scrambled tile back to its cell. Tiles are drawn
// onto a transparent canvas which is then laid over the original page, so
// the fixed last cell and the border outside the grid show through.
// The input is never modified.
func (l Layout) Descramble(scrambledImg image.Image, width, height int) (result image.Image, err error) {
	if width != l.Width || height != l.Height {
		return nil, &DimensionMismatchError{Width: width, Height: height, WantWidth: l.Width, WantHeight: l.Height}
	}

	bounds := scrambledImg.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, &DimensionMismatchError{Width: bounds.Dx(), Height: bounds.Dy(), WantWidth: width, WantHeight: height}
	}

	if err := l.Validate(); err != nil {
		return nil, &DescrambleError{Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &DescrambleError{Err: fmt.Errorf("%v", r)}
		}
	}()

	pageRect := image.Rect(0, 0, width, height)

	// reconstruct tile position
	tiles := image.NewNRGBA(pageRect)
	for pieceIndex, targetIndex := range l.Order {
		sourceRect := l.TileRect(Tile{Index: pieceIndex}).Add(bounds.Min)
		destPoint := l.TileRect(Tile{Index: targetIndex}).Min

		gift.New(gift.Crop(sourceRect)).DrawAt(tiles, scrambledImg, destPoint, gift.CopyOperator)
	}

	page := image.NewNRGBA(pageRect)
	gift.New().DrawAt(page, scrambledImg, pageRect.Min, gift.CopyOperator)
	gift.New().DrawAt(page, tiles, pageRect.Min, gift.OverOperator)

	return flatten(page), nil
}

// flatten drops the alpha channel, keeping the straight RGB values.
func flatten(src *image.NRGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	rowLen := src.Rect.Dx() * 4
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		srcOff := src.PixOffset(src.Rect.Min.X, y)
		dstOff := dst.PixOffset(dst.Rect.Min.X, y)
		srcRow := src.Pix[srcOff : srcOff+rowLen]
		dstRow := dst.Pix[dstOff : dstOff+rowLen]
		for x := 0; x < len(srcRow); x += 4 {
			dstRow[x+0] = srcRow[x+0]
			dstRow[x+1] = srcRow[x+1]
			dstRow[x+2] = srcRow[x+2]
			dstRow[x+3] = 0xff
		}
	}
	return dst
}
