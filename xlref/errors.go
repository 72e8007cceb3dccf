package xlref

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReference matches every InvalidReferenceError and InvalidSyntaxError.
	ErrInvalidReference = errors.New("invalid xl-ref")

	// ErrNoFullCell matches every NoFullCellError.
	ErrNoFullCell = errors.New("no full cell")

	// ErrEmptySheet is returned when margins are requested for a sheet without full cells.
	ErrEmptySheet = errors.New("sheet has no full cells")

	// ErrNoWorkbook is returned by a root reference that names no file.
	ErrNoWorkbook = errors.New("reference has no file and no parent to inherit one from")

	errPairedOnStart = errors.New("'.' coordinates are only valid on the end cell")
)

// InvalidReferenceError reports a reference that matched the grammar but
// could not be turned into a descriptor.
type InvalidReferenceError struct {
	Ref   string
	Cause error
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("Invalid xl-ref(%s) due to: %v", e.Ref, e.Cause)
}

func (e *InvalidReferenceError) Unwrap() error { return e.Cause }

func (e *InvalidReferenceError) Is(target error) bool { return target == ErrInvalidReference }

// InvalidSyntaxError reports a reference that does not match the grammar.
type InvalidSyntaxError struct {
	Ref string
}

func (e *InvalidSyntaxError) Error() string {
	return fmt.Sprintf("Invalid Reference Syntax! %s", e.Ref)
}

func (e *InvalidSyntaxError) Is(target error) bool { return target == ErrInvalidReference }

// NoFullCellError reports an exhausted directional search.
type NoFullCellError struct {
	Cell Cell
	Move string
}

func (e *NoFullCellError) Error() string {
	return fmt.Sprintf("Full Cell cannot be found from %s with movement %s!", e.Cell, e.Move)
}

func (e *NoFullCellError) Is(target error) bool { return target == ErrNoFullCell }

// UnknownFilterError names a filter that is neither registered nor a generic operation.
type UnknownFilterError struct {
	Name string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("unknown filter %q", e.Name)
}

// SheetNotFoundError is returned when a workbook has no sheet with the requested name.
type SheetNotFoundError struct {
	Path  string
	Sheet string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("no sheet named <%s> in %s", e.Sheet, e.Path)
}

// RecursionError is returned when nested references exceed the configured depth.
type RecursionError struct {
	Ref   string
	Depth int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("xl-ref(%s) exceeds the maximum nesting depth of %d", e.Ref, e.Depth)
}

// Failure is a soft resolution failure stored in place of a value, as the
// ref filter does for nested references whose search found no full cell.
type Failure struct {
	Err error
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }
