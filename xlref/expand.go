package xlref

import (
	"strings"

	"github.com/yamitzky/xlref-go/workbook"
)

// expandRange grows rng on the edges named in letters (L, U, R, D) for as
// long as the strip just outside an edge holds a full cell. Cells of the
// initial rectangle never count as full, and every edge stays within the
// margins, so the loop ends and the result is a fixed point.
func expandRange(rng Range, letters string, mask workbook.Mask, m Margins) Range {
	letters = strings.ToUpper(letters)
	grow := func(edge string) bool { return strings.Contains(letters, edge) }

	cleared := mask.Clone()
	for rowx := max(rng.R0, 0); rowx <= min(rng.R1, mask.Rows()-1); rowx++ {
		for colx := max(rng.C0, 0); colx <= min(rng.C1, mask.Cols()-1); colx++ {
			cleared.Set(rowx, colx, false)
		}
	}
	full := cleared.Full
	rowHasFull := func(rowx, c0, c1 int) bool {
		for colx := max(c0, m.ColMin); colx <= min(c1, m.ColMax); colx++ {
			if full(rowx, colx) {
				return true
			}
		}
		return false
	}
	colHasFull := func(colx, r0, r1 int) bool {
		for rowx := max(r0, m.RowMin); rowx <= min(r1, m.RowMax); rowx++ {
			if full(rowx, colx) {
				return true
			}
		}
		return false
	}

	for changed := true; changed; {
		changed = false
		if grow("L") && rng.C0-1 >= m.ColMin && colHasFull(rng.C0-1, rng.R0, rng.R1) {
			rng.C0--
			changed = true
		}
		if grow("U") && rng.R0-1 >= m.RowMin && rowHasFull(rng.R0-1, rng.C0, rng.C1) {
			rng.R0--
			changed = true
		}
		if grow("R") && rng.C1+1 <= m.ColMax && colHasFull(rng.C1+1, rng.R0, rng.R1) {
			rng.C1++
			changed = true
		}
		if grow("D") && rng.R1+1 <= m.RowMax && rowHasFull(rng.R1+1, rng.C0, rng.C1) {
			rng.R1++
			changed = true
		}
	}
	return rng
}
