package xlref

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate symbols.
const (
	// First is the first full row or column of the sheet.
	First byte = '^'
	// Last is the last full row or column of the sheet.
	Last byte = '_'
	// Paired copies the coordinate of the start cell. End cells only.
	Paired byte = '.'
)

// Coord is one axis of an anchor: either an absolute zero-based index or a
// symbol resolved against the sheet.
type Coord struct {
	Index  int
	Symbol byte
}

// At returns an absolute coordinate.
func At(index int) Coord { return Coord{Index: index} }

// Sym returns a symbolic coordinate.
func Sym(symbol byte) Coord { return Coord{Symbol: symbol} }

// IsSymbol reports whether the coordinate is symbolic.
func (c Coord) IsSymbol() bool { return c.Symbol != 0 }

// Cell is a zero-based (row, col) position.
type Cell struct {
	Row int
	Col int
}

func (c Cell) add(d Cell) Cell {
	return Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Range is a rectangle with inclusive corners (R0, C0) and (R1, C1).
type Range struct {
	R0, C0, R1, C1 int
}

// NewRange builds the smallest range covering both cells.
func NewRange(a, b Cell) Range {
	return Range{
		R0: min(a.Row, b.Row), C0: min(a.Col, b.Col),
		R1: max(a.Row, b.Row), C1: max(a.Col, b.Col),
	}
}

// Start is the top-left corner.
func (r Range) Start() Cell { return Cell{Row: r.R0, Col: r.C0} }

// End is the bottom-right corner.
func (r Range) End() Cell { return Cell{Row: r.R1, Col: r.C1} }

// String formats the range in A1 notation, e.g. "C2:G6".
func (r Range) String() string {
	return fmt.Sprintf("%s%d:%s%d", NumToCol(r.C0), r.R0+1, NumToCol(r.C1), r.R1+1)
}

// maxColLetters bounds column names so that ColToNum cannot overflow.
const maxColLetters = 12

// ColToNum converts a column name ("A", "AB", case-insensitive) to a zero-based index.
func ColToNum(col string) (int, error) {
	if col == "" || len(col) > maxColLetters {
		return 0, fmt.Errorf("invalid column %q", col)
	}
	num := 0
	for _, ch := range strings.ToUpper(col) {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column %q", col)
		}
		num = num*26 + int(ch-'A') + 1
	}
	return num - 1, nil
}

// NumToCol converts a zero-based column index to its name.
// Example: NumToCol(0) returns "A", NumToCol(25) returns "Z", NumToCol(26) returns "AA".
func NumToCol(colx int) string {
	if colx < 0 {
		return ""
	}

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	name := ""
	for {
		quot := colx / 26
		rem := colx % 26
		name = string(alphabet[rem]) + name
		if quot == 0 {
			break
		}
		colx = quot - 1
	}
	return name
}

func parseCol(s string) (Coord, error) {
	if len(s) == 1 && strings.ContainsRune("^_.", rune(s[0])) {
		return Sym(s[0]), nil
	}
	n, err := ColToNum(s)
	if err != nil {
		return Coord{}, err
	}
	return At(n), nil
}

func parseRow(s string) (Coord, error) {
	if len(s) == 1 && strings.ContainsRune("^_.", rune(s[0])) {
		return Sym(s[0]), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid row %q: %w", s, err)
	}
	if n < 1 {
		return Coord{}, fmt.Errorf("invalid row %q: rows start at 1", s)
	}
	return At(n - 1), nil
}
