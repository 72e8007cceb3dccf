// Package workbook provides the spreadsheet-reading adapters used by xlref.
//
// An Engine opens a file into a Workbook handle and parses one of its sheets
// into a Matrix of plain Go values: nil for an empty cell, string, float64,
// bool or time.Time otherwise. Engines never add a header row.
//
// Engines are selected by file extension through EngineFor, using a fixed
// extension table with a content-sniffing default for unknown extensions.
package workbook

import (
	"math"
)

// Workbook is an opened spreadsheet file.
type Workbook interface {
	// Path is the absolute path the workbook was opened from.
	Path() string

	// SheetNames lists the sheets in workbook order.
	SheetNames() []string

	// Close releases any resources held by the handle.
	Close() error
}

// Engine opens workbooks and parses their sheets.
type Engine interface {
	// Open opens the workbook at the given absolute path.
	Open(path string) (Workbook, error)

	// Parse returns the values of the named sheet. The name is one of the
	// names reported by SheetNames.
	Parse(wb Workbook, sheet string) (Matrix, error)
}

// Matrix is a row-major grid of cell values. Rows may be ragged; missing
// trailing cells are empty.
type Matrix [][]any

// NRows is the number of rows in the matrix.
func (m Matrix) NRows() int {
	return len(m)
}

// NCols is one more than the largest column index of any row.
func (m Matrix) NCols() int {
	n := 0
	for _, row := range m {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// At returns the value at (rowx, colx), or nil when outside the matrix.
func (m Matrix) At(rowx, colx int) any {
	if rowx < 0 || rowx >= len(m) || colx < 0 || colx >= len(m[rowx]) {
		return nil
	}
	return m[rowx][colx]
}

// Slice returns the inclusive rectangle (r0,c0)-(r1,c1) as a dense matrix.
// The rectangle is clamped to the matrix bounds, so the result may be empty.
func (m Matrix) Slice(r0, c0, r1, c1 int) [][]any {
	r0, c0 = max(r0, 0), max(c0, 0)
	r1, c1 = min(r1, m.NRows()-1), min(c1, m.NCols()-1)
	out := make([][]any, 0, max(r1-r0+1, 0))
	for rowx := r0; rowx <= r1; rowx++ {
		row := make([]any, 0, max(c1-c0+1, 0))
		for colx := c0; colx <= c1; colx++ {
			row = append(row, m.At(rowx, colx))
		}
		out = append(out, row)
	}
	return out
}

// Mask computes the fullness mask of the matrix.
func (m Matrix) Mask() Mask {
	mask := NewMask(m.NRows(), m.NCols())
	for rowx, row := range m {
		for colx, v := range row {
			if !IsNull(v) {
				mask.Set(rowx, colx, true)
			}
		}
	}
	return mask
}

// Mask records which cells of a sheet are full (non-null).
type Mask struct {
	rows, cols int
	full       []bool
}

// NewMask returns an all-empty mask with the given dimensions.
func NewMask(rows, cols int) Mask {
	return Mask{rows: rows, cols: cols, full: make([]bool, rows*cols)}
}

// Rows is the number of rows covered by the mask.
func (k Mask) Rows() int { return k.rows }

// Cols is the number of columns covered by the mask.
func (k Mask) Cols() int { return k.cols }

// InBounds reports whether (rowx, colx) lies inside the sheet.
func (k Mask) InBounds(rowx, colx int) bool {
	return rowx >= 0 && rowx < k.rows && colx >= 0 && colx < k.cols
}

// Full reports whether the cell is full. Cells outside the sheet are empty.
func (k Mask) Full(rowx, colx int) bool {
	if !k.InBounds(rowx, colx) {
		return false
	}
	return k.full[rowx*k.cols+colx]
}

// Set marks a cell as full or empty. Out of bounds cells are ignored.
func (k Mask) Set(rowx, colx int, full bool) {
	if k.InBounds(rowx, colx) {
		k.full[rowx*k.cols+colx] = full
	}
}

// Clone returns an independent copy of the mask.
func (k Mask) Clone() Mask {
	c := Mask{rows: k.rows, cols: k.cols, full: make([]bool, len(k.full))}
	copy(c.full, k.full)
	return c
}

// IsNull reports whether v counts as an empty cell: nil, NaN or "".
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case string:
		return x == ""
	}
	return false
}
