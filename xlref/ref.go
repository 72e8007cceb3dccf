package xlref

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"

	"github.com/yamitzky/xlref-go/internal/errors"
	"github.com/yamitzky/xlref-go/workbook"
)

// Stage is a step of the resolution of a reference.
type Stage int

const (
	Parsed Stage = iota
	BookResolved
	SheetResolved
	MarginsResolved
	RangeResolved
	ValuesResolved
)

var stageNames = [...]string{"parsed", "book", "sheet", "margins", "range", "values"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

// memo caches the outcome of a stage, error included.
type memo[T any] struct {
	done bool
	val  T
	err  error
}

func (m *memo[T]) get(compute func() (T, error)) (T, error) {
	if !m.done {
		m.val, m.err = compute()
		m.done = true
	}
	return m.val, m.err
}

func (m *memo[T]) ok() bool { return m.done && m.err == nil }

// scope is what a reference inherits from the reference that spawned it.
type scope struct {
	book  *book
	sheet *sheet
	cache *Cache
	opts  *Options
	depth int
}

// Ref is one reference being resolved. Each stage is computed on first use
// and memoized, errors included.
type Ref struct {
	Text       string
	Descriptor *Descriptor

	scope scope

	book    memo[*book]
	sheet   memo[*sheet]
	margins memo[Margins]
	rng     memo[Range]
	values  memo[any]
}

// New parses a root reference. A nil cache starts a new resolution tree;
// nil options use the defaults.
func New(text string, cache *Cache, opts *Options) (*Ref, error) {
	d, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Ref{
		Text:       text,
		Descriptor: d,
		scope:      scope{cache: cache, opts: opts.withDefaults()},
	}, nil
}

// Resolve parses and resolves a single reference with a private cache.
func Resolve(text string, opts *Options) (any, error) {
	cache := NewCache()
	defer cache.Close()

	r, err := New(text, cache, opts)
	if err != nil {
		return nil, err
	}
	return r.Values()
}

// Child parses a reference nested in r. It inherits r's workbook and sheet,
// resolves relative paths against r's file and shares r's cache.
func (r *Ref) Child(text string) (*Ref, error) {
	d, err := Parse(text)
	if err != nil {
		return nil, err
	}
	depth := r.scope.depth + 1
	if depth > r.scope.opts.MaxDepth {
		return nil, &RecursionError{Ref: text, Depth: r.scope.opts.MaxDepth}
	}
	b, err := r.book.get(r.resolveBook)
	if err != nil {
		return nil, err
	}
	s, err := r.sheet.get(r.resolveSheet)
	if err != nil {
		return nil, err
	}
	return &Ref{
		Text:       text,
		Descriptor: d,
		scope:      scope{book: b, sheet: s, cache: r.scope.cache, opts: r.scope.opts, depth: depth},
	}, nil
}

// State reports the furthest stage resolved without error.
func (r *Ref) State() Stage {
	switch {
	case r.values.ok():
		return ValuesResolved
	case r.rng.ok():
		return RangeResolved
	case r.margins.ok():
		return MarginsResolved
	case r.sheet.ok():
		return SheetResolved
	case r.book.ok():
		return BookResolved
	}
	return Parsed
}

// Cache returns the cache shared by r's resolution tree.
func (r *Ref) Cache() *Cache { return r.scope.cache }

// Options returns the resolution options in force.
func (r *Ref) Options() *Options { return r.scope.opts }

// Logger returns a logger annotated with the reference text.
func (r *Ref) Logger() logrus.FieldLogger {
	return r.scope.opts.Logger.WithField("ref", r.Text)
}

// Path returns the absolute path of the workbook the reference reads.
func (r *Ref) Path() (string, error) {
	b, err := r.book.get(r.resolveBook)
	if err != nil {
		return "", err
	}
	return b.path, nil
}

// Book returns the workbook the reference reads.
func (r *Ref) Book() (workbook.Workbook, error) {
	b, err := r.book.get(r.resolveBook)
	if err != nil {
		return nil, err
	}
	return b.handle, nil
}

// Sheet returns the parsed values of the sheet the reference reads.
func (r *Ref) Sheet() (workbook.Matrix, error) {
	s, err := r.sheet.get(r.resolveSheet)
	if err != nil {
		return nil, err
	}
	return s.values, nil
}

// SheetName returns the actual name of the sheet the reference reads.
func (r *Ref) SheetName() (string, error) {
	s, err := r.sheet.get(r.resolveSheet)
	if err != nil {
		return "", err
	}
	return s.name, nil
}

// Margins returns the bounding box of the full cells of the sheet.
func (r *Ref) Margins() (Margins, error) {
	return r.margins.get(func() (Margins, error) {
		s, err := r.sheet.get(r.resolveSheet)
		if err != nil {
			return Margins{}, err
		}
		m, err := ComputeMargins(s.mask)
		if err != nil {
			return Margins{}, errors.WithStackTraceAndPrefix(err, "sheet %s", s.name)
		}
		return m, nil
	})
}

// Range returns the resolved rectangle.
func (r *Ref) Range() (Range, error) {
	return r.rng.get(r.resolveRange)
}

// Values returns the extracted values after the filter pipeline.
func (r *Ref) Values() (any, error) {
	return r.values.get(r.resolveValues)
}

func (r *Ref) resolveBook() (*book, error) {
	d, cache, opts := r.Descriptor, r.scope.cache, r.scope.opts
	if d.File == "" {
		if r.scope.book == nil {
			return nil, ErrNoWorkbook
		}
		return r.scope.book, nil
	}

	dir := opts.CurrentDir
	if r.scope.book != nil {
		dir = filepath.Dir(r.scope.book.path)
	}
	fpath, err := homedir.Expand(d.File)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	if !filepath.IsAbs(fpath) {
		fpath = filepath.Join(dir, fpath)
	}
	if fpath, err = filepath.Abs(fpath); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	if b, ok := cache.books[fpath]; ok {
		r.Logger().WithField("path", fpath).Debug("workbook cache hit")
		return b, nil
	}

	engine, err := opts.Engines.EngineFor(fpath, opts.Extensions)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	r.Logger().WithField("path", fpath).Debug("opening workbook")
	handle, err := engine.Open(fpath)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	b := newBook(fpath, handle, engine)
	cache.books[fpath] = b
	return b, nil
}

func (r *Ref) resolveSheet() (*sheet, error) {
	d := r.Descriptor
	if d.Sheet == "" && d.File == "" && r.scope.sheet != nil {
		return r.scope.sheet, nil
	}

	b, err := r.book.get(r.resolveBook)
	if err != nil {
		return nil, err
	}
	name, err := sheetName(b, d.Sheet)
	if err != nil {
		return nil, err
	}

	key := sheetKey{path: b.path, name: strings.ToLower(name)}
	if s, ok := r.scope.cache.sheets[key]; ok {
		r.Logger().WithField("sheet", name).Debug("sheet cache hit")
		return s, nil
	}

	r.Logger().WithFields(logrus.Fields{"path": b.path, "sheet": name}).Debug("parsing sheet")
	values, err := b.engine.Parse(b.handle, name)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	s := &sheet{name: name, values: values, mask: values.Mask()}
	r.scope.cache.sheets[key] = s
	return s, nil
}

// sheetName finds a sheet by case-insensitive name, then by index. An empty
// request selects the first sheet.
func sheetName(b *book, requested string) (string, error) {
	if requested == "" {
		if len(b.ordinals) == 0 {
			return "", &SheetNotFoundError{Path: b.path, Sheet: requested}
		}
		return b.ordinals[0], nil
	}
	if name, ok := b.byLower[strings.ToLower(requested)]; ok {
		return name, nil
	}
	if i, err := strconv.Atoi(requested); err == nil && i >= 0 && i < len(b.ordinals) {
		return b.ordinals[i], nil
	}
	return "", &SheetNotFoundError{Path: b.path, Sheet: requested}
}

func (r *Ref) resolveRange() (Range, error) {
	s, err := r.sheet.get(r.resolveSheet)
	if err != nil {
		return Range{}, err
	}
	d := r.Descriptor

	st, err := resolveAnchor(d.Start, s.mask, r.Margins, nil)
	if err != nil {
		return Range{}, err
	}
	rng := NewRange(st, st)
	if d.End != nil {
		nd, err := resolveAnchor(*d.End, s.mask, r.Margins, &st)
		if err != nil {
			return Range{}, err
		}
		rng = NewRange(st, nd)
	}
	if d.Expansion != "" {
		m, err := r.Margins()
		if err != nil {
			return Range{}, err
		}
		rng = expandRange(rng, d.Expansion, s.mask, m)
	}
	return rng, nil
}

func (r *Ref) resolveValues() (any, error) {
	rng, err := r.Range()
	if err != nil {
		return nil, err
	}
	s, err := r.sheet.get(r.resolveSheet)
	if err != nil {
		return nil, err
	}
	pipeline, err := r.scope.opts.Filters.Compile(r.Descriptor.Filters, r)
	if err != nil {
		return nil, err
	}
	r.Logger().WithField("range", rng.String()).Debug("extracting values")
	return pipeline(s.values.Slice(rng.R0, rng.C0, rng.R1, rng.C1))
}
