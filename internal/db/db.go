package db

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strconv"
)

type Column struct {
	Name string
	Type string
}

type Row []any

type Rows struct {
	Columns []Column
	Data    []Row
}

// Access selects which catalog views a session may read.
type Access int

const (
	// Elevated sessions see declared column types and may toggle
	// server-wide import settings.
	Elevated Access = iota
	// Restricted sessions only see column names.
	Restricted
)

func (a Access) String() string {
	if a == Restricted {
		return "restricted"
	}
	return "elevated"
}

// ConnInfo carries everything a dialect needs to open a connection.
type ConnInfo struct {
	Address  string
	Port     int
	User     string
	Password string
	Database string
	Params   map[string]string
}

func (c ConnInfo) HostPort() string {
	if c.Port == 0 {
		return c.Address
	}
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// CSVOptions controls delimited file imports. Zero values mean ',' and '\n'.
type CSVOptions struct {
	FieldDelimiter  string
	RecordDelimiter string
}

func (o CSVOptions) WithDefaults() CSVOptions {
	if o.FieldDelimiter == "" {
		o.FieldDelimiter = ","
	}
	if o.RecordDelimiter == "" {
		o.RecordDelimiter = "\n"
	}
	return o
}

// Conn is the subset of *sql.DB the dialects use.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Release undoes a capability acquired by Dialect.EnableFileImport.
type Release func(ctx context.Context) error

// ErrImportUnsupported is returned by dialects that cannot load the
// requested delimiter combination.
var ErrImportUnsupported = errors.New("csv import not supported with these options")

type Dialect interface {
	Name() string
	// FileBacked reports whether the dialect needs only an address (a path).
	FileBacked() bool
	Open(ctx context.Context, ci ConnInfo) (*sql.DB, error)
	ListTables(ctx context.Context, c Conn) ([]string, error)
	DescribeTable(ctx context.Context, c Conn, table string, access Access) ([]Column, error)
	QuoteIdent(id string) string
	EnableFileImport(ctx context.Context, c Conn, path string) (Release, error)
	ImportCSV(ctx context.Context, c Conn, table, path string, opts CSVOptions) error
}

// NoRelease is returned by dialects whose import needs no server toggle.
func NoRelease(context.Context) error { return nil }
