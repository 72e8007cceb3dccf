package xlref

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/yamitzky/xlref-go/workbook"
)

// Cache holds the workbooks and parsed sheets of one resolution tree: a
// top-level reference, or a batch of them, plus every reference they spawn.
// Entries are written once and never invalidated. A Cache is not safe for
// concurrent use.
type Cache struct {
	books  map[string]*book
	sheets map[sheetKey]*sheet
}

type book struct {
	path     string
	handle   workbook.Workbook
	engine   workbook.Engine
	byLower  map[string]string
	ordinals []string
}

type sheetKey struct {
	path string
	name string
}

type sheet struct {
	name   string
	values workbook.Matrix
	mask   workbook.Mask
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		books:  map[string]*book{},
		sheets: map[sheetKey]*sheet{},
	}
}

// Books returns the number of workbooks opened through the cache.
func (c *Cache) Books() int { return len(c.books) }

// Sheets returns the number of sheets parsed through the cache.
func (c *Cache) Sheets() int { return len(c.sheets) }

// Close releases every cached workbook.
func (c *Cache) Close() error {
	var result *multierror.Error
	for path, b := range c.books {
		if err := b.handle.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		delete(c.books, path)
	}
	return result.ErrorOrNil()
}

func newBook(path string, handle workbook.Workbook, engine workbook.Engine) *book {
	names := handle.SheetNames()
	b := &book{
		path:     path,
		handle:   handle,
		engine:   engine,
		byLower:  make(map[string]string, len(names)),
		ordinals: names,
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		if _, dup := b.byLower[lower]; !dup {
			b.byLower[lower] = name
		}
	}
	return b
}
