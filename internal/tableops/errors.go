// Package tableops implements the fixed, validated operation set the
// agent exposes over a table: read-only inspection queries and
// copy-on-write transformations. Every failure is one of three typed
// errors so the orchestration boundary can report a classified outcome.
package tableops

import (
	"errors"
	"fmt"
	"strings"
)

// EmptyTableError reports an operation attempted on a table with no rows
// or no columns.
type EmptyTableError struct {
	Operation string
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("cannot perform %s on an empty table", e.Operation)
}

// ColumnNotFoundError reports a reference to a column that does not
// exist. It carries the full available-column list so the planner can
// self-correct on the next call.
type ColumnNotFoundError struct {
	Column    string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column '%s' not found. Available columns: %s",
		e.Column, strings.Join(e.Available, ", "))
}

// InvalidOperationError reports malformed arguments: a missing required
// argument, a wrong column count for a binary operation, or an
// unsupported operation keyword.
type InvalidOperationError struct {
	Operation string
	Detail    string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("error during %s: %s", e.Operation, e.Detail)
}

// Classify guarantees every error leaving this package is one of the
// three typed kinds. Unrecognized failures become InvalidOperationError
// with the original message preserved as detail.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	var empty *EmptyTableError
	var notFound *ColumnNotFoundError
	var invalid *InvalidOperationError
	if errors.As(err, &empty) || errors.As(err, &notFound) || errors.As(err, &invalid) {
		return err
	}
	return &InvalidOperationError{Operation: operation, Detail: err.Error()}
}
