package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the source does not exist.
	ErrNotFound = errors.New("dataset: source not found")
	// ErrLoad is returned when the source exists but cannot be read or decoded.
	ErrLoad = errors.New("dataset: load failed")
	// ErrSchema is returned when a required column is absent.
	ErrSchema = errors.New("dataset: schema mismatch")
	// ErrEmptyDataset is returned when no row survives filtering.
	ErrEmptyDataset = errors.New("dataset: no usable rows")
	// ErrInsufficientClasses is returned when the rows cannot be split so that
	// both partitions see both classes.
	ErrInsufficientClasses = errors.New("dataset: not enough rows per class to split")
)

// SchemaError lists the required columns that are missing from a source
// together with the columns it does have.
type SchemaError struct {
	Missing   []string
	Available []string
}

func (e *SchemaError) Error() string {
	quoted := make([]string, len(e.Available))
	for i, c := range e.Available {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf("dataset: missing columns %q; available columns: [%s]",
		e.Missing, strings.Join(quoted, ", "))
}

// Unwrap lets errors.Is match ErrSchema.
func (e *SchemaError) Unwrap() error { return ErrSchema }
