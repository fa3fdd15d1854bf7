package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx stdlib driver

	"github.com/bgunnarsson/tablestore/internal/db"
)

type Dialect struct{}

func (Dialect) Name() string     { return "postgres" }
func (Dialect) FileBacked() bool { return false }

func dsn(ci db.ConnInfo) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(ci.User, ci.Password),
		Host:   ci.HostPort(),
		Path:   "/" + ci.Database,
	}
	q := url.Values{}
	for k, v := range ci.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (Dialect) Open(ctx context.Context, ci db.ConnInfo) (*sql.DB, error) {
	if ci.Address == "" {
		return nil, fmt.Errorf("empty postgres address")
	}

	sqldb, err := sql.Open("pgx", dsn(ci))
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, err
	}

	return sqldb, nil
}

func (Dialect) ListTables(ctx context.Context, c db.Conn) ([]string, error) {
	const q = `
SELECT table_name
FROM information_schema.tables
WHERE table_type = 'BASE TABLE'
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name;
`
	return db.Strings(ctx, c, q)
}

// DescribeTable uses udt_name (varchar, int4, ...) rather than data_type,
// which reports "character varying". Restricted sessions read pg_attribute.
// Accepts either "table" or "schema.table".
func (Dialect) DescribeTable(ctx context.Context, c db.Conn, table string, access db.Access) ([]db.Column, error) {
	schema := "public"
	name := strings.ToLower(table)
	if dot := strings.Index(name, "."); dot != -1 {
		schema = name[:dot]
		name = name[dot+1:]
	}

	if access == db.Restricted {
		const q = `
SELECT a.attname
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relname = $2
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum;
`
		return db.Columns(ctx, c, false, q, schema, name)
	}

	const q = `
SELECT column_name, udt_name
FROM information_schema.columns
WHERE table_schema = $1
  AND table_name = $2
ORDER BY ordinal_position;
`
	return db.Columns(ctx, c, true, q, schema, name)
}

func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(strings.ToLower(id), `"`, `""`) + `"`
}

// EnableFileImport needs no toggle; server-side COPY is gated by the
// pg_read_server_files role instead.
func (Dialect) EnableFileImport(context.Context, db.Conn, string) (db.Release, error) {
	return db.NoRelease, nil
}

func copyStmt(table, path string, opts db.CSVOptions) (string, error) {
	opts = opts.WithDefaults()
	if opts.RecordDelimiter != "\n" || len(opts.FieldDelimiter) != 1 {
		return "", db.ErrImportUnsupported
	}
	return fmt.Sprintf("COPY %s FROM %s WITH (FORMAT csv, HEADER false, DELIMITER %s)",
		table, db.SQLString(path), db.SQLString(opts.FieldDelimiter)), nil
}

func (Dialect) ImportCSV(ctx context.Context, c db.Conn, table, path string, opts db.CSVOptions) error {
	stmt, err := copyStmt(table, path, opts)
	if err != nil {
		return err
	}
	_, err = c.ExecContext(ctx, stmt)
	return err
}
