package workbook

import (
	"fmt"
	"os"
)

// Sheet is a named matrix held by the Memory engine.
type Sheet struct {
	Name   string
	Values Matrix
}

// Memory serves workbooks from memory. It keeps count of Open and Parse
// calls per path so callers can check how often a file was touched.
type Memory struct {
	books  map[string][]Sheet
	opens  map[string]int
	parses map[string]int
}

// NewMemory returns an empty in-memory engine.
func NewMemory() *Memory {
	return &Memory{
		books:  map[string][]Sheet{},
		opens:  map[string]int{},
		parses: map[string]int{},
	}
}

// Add stores a workbook under an absolute path.
func (m *Memory) Add(path string, sheets ...Sheet) {
	m.books[path] = sheets
}

// Opens returns how many times path was opened.
func (m *Memory) Opens(path string) int { return m.opens[path] }

// Parses returns how many sheets of path were parsed.
func (m *Memory) Parses(path string) int { return m.parses[path] }

type memoryBook struct {
	path   string
	sheets []Sheet
}

func (b *memoryBook) Path() string { return b.path }

func (b *memoryBook) SheetNames() []string {
	names := make([]string, len(b.sheets))
	for i, s := range b.sheets {
		names[i] = s.Name
	}
	return names
}

func (b *memoryBook) Close() error { return nil }

// Open returns the stored workbook, or an os.ErrNotExist error.
func (m *Memory) Open(path string) (Workbook, error) {
	sheets, ok := m.books[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	m.opens[path]++
	return &memoryBook{path: path, sheets: sheets}, nil
}

// Parse returns the stored sheet values.
func (m *Memory) Parse(wb Workbook, sheet string) (Matrix, error) {
	b, ok := wb.(*memoryBook)
	if !ok {
		return nil, fmt.Errorf("workbook %s was not opened by the memory engine", wb.Path())
	}
	for _, s := range b.sheets {
		if s.Name == sheet {
			m.parses[b.path]++
			return s.Values, nil
		}
	}
	return nil, fmt.Errorf("no sheet named <%s> in %s", sheet, b.path)
}
