package main

import (
	"fmt"
	"image"
)

// gigaViewerOrder maps a scrambled tile position to the cell it belongs in.
// The last grid cell is never scrambled and has no entry.
var gigaViewerOrder = [...]int{0, 4, 8, 12, 1, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11}

// Layout describes how a platform scrambles a page: the page size, the
// sub-area split into a Divisions x Divisions grid, and the tile order.
type Layout struct {
	Width  int
	Height int

	// ScrambledWidth and ScrambledHeight bound the top-left region cut into
	// tiles. Anything right of or below it is left as is by the platform.
	ScrambledWidth  int
	ScrambledHeight int

	Divisions int

	// Order[i] is the destination cell of the tile found at source cell i.
	Order []int
}

// GigaViewerLayout returns the fixed layout used for 844x1200 pages.
func GigaViewerLayout() Layout {
	order := make([]int, len(gigaViewerOrder))
	copy(order, gigaViewerOrder[:])
	return Layout{
		Width:           844,
		Height:          1200,
		ScrambledWidth:  832,
		ScrambledHeight: 1184,
		Divisions:       4,
		Order:           order,
	}
}

// Tile is a cell of the layout grid, numbered row by row.
type Tile struct {
	Index int
}

// Cell returns the column and row of the tile.
func (t Tile) Cell(divisions int) (col, row int) {
	return t.Index % divisions, t.Index / divisions
}

func (l Layout) PieceWidth() int { return l.ScrambledWidth / l.Divisions }
func (l Layout) PieceHeight() int { return l.ScrambledHeight / l.Divisions }

// Cells is the number of cells in the grid, including the fixed last one.
func (l Layout) Cells() int { return l.Divisions * l.Divisions }

// TileRect returns the page region covered by t.
func (l Layout) TileRect(t Tile) image.Rectangle {
	col, row := t.Cell(l.Divisions)
	pw, ph := l.PieceWidth(), l.PieceHeight()
	return image.Rect(col*pw, row*ph, (col+1)*pw, (row+1)*ph)
}

// Validate checks the geometry and that Order moves every cell except the
// last one exactly once.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("err: page size is invalid (w:%d, h:%d)", l.Width, l.Height)
	}
	if l.Divisions <= 0 {
		return fmt.Errorf("err: grid divisions is invalid (%d)", l.Divisions)
	}
	if l.ScrambledWidth > l.Width || l.ScrambledHeight > l.Height {
		return fmt.Errorf("err: scrambled area exceeds page (%dx%d > %dx%d)",
			l.ScrambledWidth, l.ScrambledHeight, l.Width, l.Height)
	}
	if l.PieceWidth() <= 0 || l.PieceHeight() <= 0 {
		return fmt.Errorf("err: image or tile size is invalid (w:%d, h:%d)", l.PieceWidth(), l.PieceHeight())
	}

	movable := l.Cells() - 1
	if len(l.Order) != movable {
		return fmt.Errorf("err: order has %d entries, want %d", len(l.Order), movable)
	}
	seen := make([]bool, movable)
	for i, target := range l.Order {
		if target < 0 || target >= movable {
			return fmt.Errorf("err: order[%d] = %d is out of range [0, %d)", i, target, movable)
		}
		if seen[target] {
			return fmt.Errorf("err: order[%d] = %d is a duplicate", i, target)
		}
		seen[target] = true
	}
	return nil
}
