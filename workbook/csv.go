package workbook

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/yamitzky/xlref-go/internal/errors"
)

// CSVOptions tunes the CSV engine.
type CSVOptions struct {
	// Delimiter is the field separator. Empty means comma, or tab for .tsv files.
	Delimiter string `toml:"delimiter"`

	// Encoding names the input character set. Empty means UTF-8.
	Encoding string `toml:"encoding"`

	// Comment, when set, marks lines to skip.
	Comment string `toml:"comment"`
}

// codepages covers DOS code pages that have no WHATWG label.
var codepages = map[string]*charmap.Charmap{
	"cp437": charmap.CodePage437,
	"cp850": charmap.CodePage850,
	"cp852": charmap.CodePage852,
	"cp855": charmap.CodePage855,
	"cp858": charmap.CodePage858,
	"cp860": charmap.CodePage860,
	"cp862": charmap.CodePage862,
	"cp863": charmap.CodePage863,
	"cp865": charmap.CodePage865,
	"cp866": charmap.CodePage866,
}

// LookupEncoding resolves a character set name.
func LookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cm, ok := codepages[key]; ok {
		return cm, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, errors.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}

// CSV reads delimited text files as a workbook holding a single sheet named
// after the file.
type CSV struct {
	Options CSVOptions
}

type csvBook struct {
	path string
	name string
}

func (b *csvBook) Path() string         { return b.path }
func (b *csvBook) SheetNames() []string { return []string{b.name} }
func (b *csvBook) Close() error         { return nil }

// Open checks the file exists and returns its handle.
func (c *CSV) Open(path string) (Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	if info.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}
	base := filepath.Base(path)
	return &csvBook{path: path, name: strings.TrimSuffix(base, filepath.Ext(base))}, nil
}

// Parse reads every record of the file.
func (c *CSV) Parse(wb Workbook, sheet string) (Matrix, error) {
	raw, err := os.ReadFile(wb.Path())
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	var dec transform.Transformer = transform.Nop
	if c.Options.Encoding != "" {
		enc, err := LookupEncoding(c.Options.Encoding)
		if err != nil {
			return nil, err
		}
		dec = enc.NewDecoder()
	}

	// A byte order mark takes precedence over the configured encoding.
	reader := csv.NewReader(transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(dec)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = c.delimiter(wb.Path())
	if c.Options.Comment != "" {
		reader.Comment, _ = utf8.DecodeRuneInString(c.Options.Comment)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "reading %s", wb.Path())
	}

	m := make(Matrix, len(records))
	for rowx, record := range records {
		row := make([]any, len(record))
		for colx, field := range record {
			row[colx] = inferValue(field)
		}
		m[rowx] = row
	}
	return m, nil
}

func (c *CSV) delimiter(path string) rune {
	if c.Options.Delimiter != "" {
		switch strings.ToLower(c.Options.Delimiter) {
		case "tab", "\\t", "x09":
			return '\t'
		}
		r, _ := utf8.DecodeRuneInString(c.Options.Delimiter)
		return r
	}
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// inferValue turns a text field into nil, float64, bool or string.
func inferValue(field string) any {
	s := strings.TrimSpace(field)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return field
}
