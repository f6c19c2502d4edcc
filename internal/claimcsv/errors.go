package claimcsv

import "fmt"

// ValidationKind classifies a pre-flight validation error.
type ValidationKind string

const (
	// SourceReadError means the file could not be opened or read.
	SourceReadError ValidationKind = "source_read_error"
	// HeaderMismatch means the header line differs from the expected
	// sequence, including ordering differences.
	HeaderMismatch ValidationKind = "header_mismatch"
	// RowArityMismatch means a sampled data row has the wrong column count.
	RowArityMismatch ValidationKind = "row_arity_mismatch"
)

// ValidationError is one pre-flight structural error. Row is 1-based and
// counts the header line as row 1, so the first data row is row 2.
type ValidationError struct {
	Kind     ValidationKind
	File     string
	Row      int
	Expected []string
	Actual   []string
	Err      error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case SourceReadError:
		return fmt.Sprintf("%s: reading file: %v", e.File, e.Err)
	case HeaderMismatch:
		return fmt.Sprintf("%s: header mismatch: expected %v, got %v", e.File, e.Expected, e.Actual)
	case RowArityMismatch:
		return fmt.Sprintf("%s: row %d has %d columns, expected %d", e.File, e.Row, len(e.Actual), len(e.Expected))
	}
	return fmt.Sprintf("%s: validation error", e.File)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RowFormatError reports a field value that could not be mapped to its
// domain type. It is recovered per row by the loader, never fatal.
type RowFormatError struct {
	Field string
	Raw   string
	Err   error
}

func (e *RowFormatError) Error() string {
	return fmt.Sprintf("field %s: cannot parse %q: %v", e.Field, e.Raw, e.Err)
}

func (e *RowFormatError) Unwrap() error { return e.Err }

// RowKeyError reports a field missing from a data row, either because
// the column is absent from the header or the row is short.
type RowKeyError struct {
	Field string
}

func (e *RowKeyError) Error() string {
	return fmt.Sprintf("field %s: missing from row", e.Field)
}
