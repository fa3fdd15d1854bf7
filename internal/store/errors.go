package store

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned by Open for missing or disallowed
	// parameters. No connection is attempted.
	ErrConfiguration = errors.New("invalid store configuration")

	// ErrConnection is returned by Open when the initial connect fails.
	ErrConnection = errors.New("connect failed")

	// ErrDriver matches every *OpError.
	ErrDriver = errors.New("driver error")

	// ErrRowLength is returned when row data does not line up with the
	// table's columns.
	ErrRowLength = errors.New("row length does not match columns")

	// ErrImportNotPermitted is returned by ImportFromCSV on restricted stores.
	ErrImportNotPermitted = errors.New("csv import requires elevated access")
)

// OpError describes a statement that failed after the store was opened.
type OpError struct {
	Op    string
	Table string
	Addr  string
	Stmt  string
	Err   error
}

func (e *OpError) Error() string {
	if e.Stmt == "" {
		return fmt.Sprintf("%s %s on %s: %v", e.Op, e.Table, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s %s on %s: %q: %v", e.Op, e.Table, e.Addr, e.Stmt, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{ErrDriver, e.Err}
}
