package xlref

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/yamitzky/xlref-go/workbook"
)

var testDir = filepath.FromSlash("/data")

var testBook = filepath.Join(testDir, "book.xlsx")

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testSheets is the workbook most tests resolve against.
func testSheets() []workbook.Sheet {
	return []workbook.Sheet{
		{Name: "nums", Values: workbook.Matrix{
			{1.0, nil, 2.0},
			{nil, 3.0, 4.0},
		}},
		{Name: "refs", Values: workbook.Matrix{
			{"#nums!A1", "#nums!D1(R)", "hello", 5.0},
		}},
		{Name: "dict", Values: workbook.Matrix{
			{"A", 1.0},
			{"B", "#nums!C1"},
			{nil, "skipped"},
			{2.0, "two"},
		}},
		{Name: "wide", Values: workbook.Matrix{
			{"x", 1.0, 2.0},
			{"y", 3.0, 4.0},
		}},
		{Name: "loop", Values: workbook.Matrix{
			{`#A1["recursive"]`},
		}},
		{Name: "blank", Values: workbook.Matrix{
			{nil, ""},
		}},
	}
}

// memoryOptions serves testSheets at testBook through the memory engine.
func memoryOptions(t *testing.T) (*Options, *workbook.Memory) {
	t.Helper()

	mem := workbook.NewMemory()
	mem.Add(testBook, testSheets()...)

	engines := workbook.NewRegistry(workbook.CSVOptions{})
	engines.Register("memory", mem)

	return &Options{
		CurrentDir: testDir,
		Engines:    engines,
		Extensions: map[string]string{"xlsx": "memory"},
		Logger:     quietLogger(),
	}, mem
}

func mustRef(t *testing.T, text string, opts *Options) *Ref {
	t.Helper()

	r, err := New(text, nil, opts)
	if err != nil {
		t.Fatalf("New(%q): %v", text, err)
	}
	return r
}
