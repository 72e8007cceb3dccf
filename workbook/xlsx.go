package workbook

import (
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yamitzky/xlref-go/internal/errors"
)

// Excelize reads Office Open XML workbooks (xlsx, xlsm, xltx, xltm).
type Excelize struct{}

type excelizeBook struct {
	path string
	file *excelize.File
}

func (b *excelizeBook) Path() string         { return b.path }
func (b *excelizeBook) SheetNames() []string { return b.file.GetSheetList() }
func (b *excelizeBook) Close() error         { return b.file.Close() }

// Open opens the workbook file.
func (Excelize) Open(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "opening %s", path)
	}
	return &excelizeBook{path: path, file: f}, nil
}

// Parse reads the raw cell values of a sheet. Numbers come back as float64,
// booleans as bool, ISO date cells as time.Time and everything else as string.
func (Excelize) Parse(wb Workbook, sheet string) (Matrix, error) {
	b, ok := wb.(*excelizeBook)
	if !ok {
		return nil, errors.Errorf("workbook %s was not opened by the excelize engine", wb.Path())
	}

	rows, err := b.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "reading sheet %s of %s", sheet, b.path)
	}

	m := make(Matrix, len(rows))
	for rowx, cells := range rows {
		row := make([]any, len(cells))
		for colx, raw := range cells {
			if raw == "" {
				continue
			}
			v, err := b.cellValue(sheet, rowx, colx, raw)
			if err != nil {
				return nil, err
			}
			row[colx] = v
		}
		m[rowx] = row
	}
	return m, nil
}

func (b *excelizeBook) cellValue(sheet string, rowx, colx int, raw string) (any, error) {
	axis, err := excelize.CoordinatesToCellName(colx+1, rowx+1)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	ctype, err := b.file.GetCellType(sheet, axis)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "cell %s!%s", sheet, axis)
	}

	switch ctype {
	case excelize.CellTypeBool:
		return raw == "1" || raw == "TRUE" || raw == "true", nil
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		return raw, nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return raw, nil
	}

	// Unset, number and formula cells store their (cached) value as text.
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	return raw, nil
}
