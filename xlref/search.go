package xlref

import (
	"strings"

	"github.com/yamitzky/xlref-go/workbook"
)

// Margins is the bounding box of the full cells of a sheet.
type Margins struct {
	RowMin, RowMax int
	ColMin, ColMax int
}

// row resolves a symbolic row against the margins.
func (m Margins) row(symbol byte) int {
	if symbol == First {
		return m.RowMin
	}
	return m.RowMax
}

func (m Margins) col(symbol byte) int {
	if symbol == First {
		return m.ColMin
	}
	return m.ColMax
}

// ComputeMargins returns the bounding box of the full cells of mask.
func ComputeMargins(mask workbook.Mask) (Margins, error) {
	m := Margins{RowMin: -1, RowMax: -1, ColMin: -1, ColMax: -1}
	for rowx := 0; rowx < mask.Rows(); rowx++ {
		for colx := 0; colx < mask.Cols(); colx++ {
			if !mask.Full(rowx, colx) {
				continue
			}
			if m.RowMin < 0 {
				m.RowMin = rowx
			}
			m.RowMax = rowx
			if m.ColMin < 0 || colx < m.ColMin {
				m.ColMin = colx
			}
			if colx > m.ColMax {
				m.ColMax = colx
			}
		}
	}
	if m.RowMin < 0 {
		return Margins{}, ErrEmptySheet
	}
	return m, nil
}

// directions maps a movement letter to its unit vector.
var directions = map[byte]Cell{
	'L': {Row: 0, Col: -1},
	'U': {Row: -1, Col: 0},
	'R': {Row: 0, Col: 1},
	'D': {Row: 1, Col: 0},
}

// resolveAnchor turns an anchor into an absolute cell. Margins are only
// requested when a symbol or a search needs them. paired is the start cell
// when resolving an end anchor.
func resolveAnchor(a Anchor, mask workbook.Mask, margins func() (Margins, error), paired *Cell) (Cell, error) {
	var cell Cell
	var err error
	if cell.Row, err = resolveCoord(a.Row, margins, paired, Margins.row, func(c Cell) int { return c.Row }); err != nil {
		return Cell{}, err
	}
	if cell.Col, err = resolveCoord(a.Col, margins, paired, Margins.col, func(c Cell) int { return c.Col }); err != nil {
		return Cell{}, err
	}

	if a.Move == "" || mask.Full(cell.Row, cell.Col) {
		return cell, nil
	}
	m, err := margins()
	if err != nil {
		return Cell{}, err
	}
	return findFullCell(mask, m, cell, a.Move)
}

func resolveCoord(c Coord, margins func() (Margins, error), paired *Cell, bound func(Margins, byte) int, axis func(Cell) int) (int, error) {
	switch c.Symbol {
	case 0:
		return c.Index, nil
	case Paired:
		if paired == nil {
			return 0, errPairedOnStart
		}
		return axis(*paired), nil
	default:
		m, err := margins()
		if err != nil {
			return 0, err
		}
		return bound(m, c.Symbol), nil
	}
}

// findFullCell scans from cell along the first movement letter; when a
// whole line is empty it shifts one step along the second letter and scans
// again, until the cursor leaves the full extent of the sheet.
func findFullCell(mask workbook.Mask, m Margins, cell Cell, move string) (Cell, error) {
	primary := directions[move[0]]
	dn := Cell{Row: m.RowMax, Col: m.ColMax}

	c0 := cell
	if strings.Contains(move, "U") && c0.Row > dn.Row {
		c0.Row = dn.Row
	}
	if strings.Contains(move, "L") && c0.Col > dn.Col {
		c0.Col = dn.Col
	}

	for c0.Row >= 0 && c0.Col >= 0 && c0.Row <= dn.Row && c0.Col <= dn.Col {
		for c1 := c0; mask.InBounds(c1.Row, c1.Col); c1 = c1.add(primary) {
			if mask.Full(c1.Row, c1.Col) {
				return c1, nil
			}
		}
		if len(move) < 2 {
			break
		}
		c0 = c0.add(directions[move[1]])
	}
	return Cell{}, &NoFullCellError{Cell: cell, Move: move}
}
