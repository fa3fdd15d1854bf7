// Package store binds one database table to a connection and builds
// INSERT, UPDATE, DELETE and bulk import statements from positional rows.
//
// Statements are assembled by string concatenation. Values are not escaped,
// so callers must not pass untrusted data.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/bgunnarsson/tablestore/internal/db"
)

// unboundedText matches column types that cannot be compared with = in a
// WHERE clause, which Update and Delete rely on.
var unboundedText = regexp.MustCompile(`(?i)\b(N?TEXT|N?CLOB)\b`)

// Config describes the table a Store binds to and how to reach it.
type Config struct {
	Dialect db.Dialect

	Address  string
	Port     int
	User     string
	Password string
	Database string
	Params   map[string]string

	Table      string
	CreateStmt string

	// DropFirst drops an existing table before the create check.
	DropFirst bool
	// Access selects the column metadata source and gates ImportFromCSV.
	Access db.Access
	// Debug logs every generated statement at debug level.
	Debug bool

	Logger *slog.Logger
}

func missing(field string) error {
	return fmt.Errorf("%w: %s must be provided", ErrConfiguration, field)
}

func (c *Config) validate() error {
	if c.Dialect == nil {
		return missing("dialect")
	}
	if c.Table == "" {
		return missing("table name")
	}
	if c.Address == "" {
		return missing("address")
	}
	fileBacked := c.Dialect.FileBacked()
	if !fileBacked && c.Port <= 0 {
		return missing("port")
	}
	if c.CreateStmt == "" {
		return missing("create statement")
	}
	if m := unboundedText.FindString(c.CreateStmt); m != "" {
		return fmt.Errorf("%w: column type %s cannot be used in WHERE clauses, use VARCHAR(<1-5000>) instead",
			ErrConfiguration, strings.ToUpper(m))
	}
	if !fileBacked && c.User == "" {
		return missing("user")
	}
	if !fileBacked && c.Password == "" {
		return missing("password")
	}
	return nil
}

func (c *Config) connInfo() db.ConnInfo {
	return db.ConnInfo{
		Address:  c.Address,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		Params:   c.Params,
	}
}

// Store owns one connection and the column layout of one table.
// Operations are serialized; give each concurrent worker its own Store.
type Store struct {
	mu sync.Mutex

	conn    *sql.DB
	dialect db.Dialect
	addr    string
	log     *slog.Logger
	debug   bool

	table      string
	createStmt string
	access     db.Access
	columns    []db.Column
}

// Open validates cfg, connects, optionally drops the table, creates it when
// absent and loads its columns. Only validation and connect failures are
// returned; later steps log their errors and carry on.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ci := cfg.connInfo()
	addr := ci.HostPort()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("driver", cfg.Dialect.Name(), "table", cfg.Table, "addr", addr)

	conn, err := cfg.Dialect.Open(ctx, ci)
	if err != nil {
		logger.Error("connect failed", "error", err)
		return nil, fmt.Errorf("%w to %s: %w", ErrConnection, addr, err)
	}

	s := &Store{
		conn:       conn,
		dialect:    cfg.Dialect,
		addr:       addr,
		log:        logger,
		debug:      cfg.Debug,
		table:      cfg.Table,
		createStmt: cfg.CreateStmt,
		access:     cfg.Access,
	}

	if cfg.DropFirst {
		_ = s.dropTable(ctx)
	}
	_ = s.createTable(ctx)
	_ = s.loadColumns(ctx)

	return s, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Table returns the bound table name.
func (s *Store) Table() string { return s.table }

// Access returns the access level the store was opened with.
func (s *Store) Access() db.Access { return s.access }

// ColumnNames returns the column names in table order.
func (s *Store) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns a copy of the column layout loaded at Open.
func (s *Store) Columns() []db.Column {
	return append([]db.Column(nil), s.columns...)
}

// TableExists scans the catalog for the table name, ignoring case.
func (s *Store) TableExists(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tableExists(ctx)
}

func (s *Store) tableExists(ctx context.Context) bool {
	names, err := s.dialect.ListTables(ctx, s.conn)
	if err != nil {
		_ = s.fail("list tables", "", err)
		return false
	}
	for _, name := range names {
		if strings.EqualFold(name, s.table) {
			return true
		}
	}
	return false
}

func (s *Store) createTable(ctx context.Context) error {
	if s.tableExists(ctx) {
		s.log.Info("table exists")
		return nil
	}
	return s.exec(ctx, "create table", s.createStmt)
}

func (s *Store) loadColumns(ctx context.Context) error {
	cols, err := s.dialect.DescribeTable(ctx, s.conn, s.table, s.access)
	if err != nil {
		return s.fail("load columns", "", err)
	}
	s.columns = cols
	if s.debug {
		s.log.Debug("columns loaded", "access", s.access.String(), "columns", cols)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, op, stmt string) error {
	if s.debug {
		s.log.Debug("exec", "op", op, "sql", stmt)
	}
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return s.fail(op, stmt, err)
	}
	return nil
}

// fail logs err with the store's context and wraps it in an *OpError.
func (s *Store) fail(op, stmt string, err error) error {
	s.log.Error("statement failed", "op", op, "sql", stmt, "error", err)
	return &OpError{Op: op, Table: s.table, Addr: s.addr, Stmt: stmt, Err: err}
}
