package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/azuread"

	"github.com/bgunnarsson/tablestore/internal/db"
)

type Dialect struct{}

func (Dialect) Name() string     { return "mssql" }
func (Dialect) FileBacked() bool { return false }

// driverName picks the Azure AD driver (azuresql) when a fedauth parameter
// is present, so things like ActiveDirectoryInteractive / AzCli work.
func driverName(ci db.ConnInfo) string {
	for k := range ci.Params {
		if strings.EqualFold(k, "fedauth") {
			return azuread.DriverName
		}
	}
	return "sqlserver"
}

func dsn(ci db.ConnInfo) string {
	q := url.Values{}
	if ci.Database != "" {
		q.Set("database", ci.Database)
	}
	for k, v := range ci.Params {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(ci.User, ci.Password),
		Host:     ci.HostPort(),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (Dialect) Open(ctx context.Context, ci db.ConnInfo) (*sql.DB, error) {
	if ci.Address == "" {
		return nil, fmt.Errorf("empty mssql address")
	}

	sqldb, err := sql.Open(driverName(ci), dsn(ci))
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
SELECT TABLE_NAME
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_SCHEMA, TABLE_NAME;
`
	return db.Strings(ctx, c, q)
}

// DescribeTable accepts either "table" or "schema.table".
func (Dialect) DescribeTable(ctx context.Context, c db.Conn, table string, access db.Access) ([]db.Column, error) {
	schema := "dbo"
	name := table
	if dot := strings.Index(table, "."); dot != -1 {
		schema = table[:dot]
		name = table[dot+1:]
	}

	if access == db.Restricted {
		const q = `
SELECT c.name
FROM sys.columns c
WHERE c.object_id = OBJECT_ID(@p1)
ORDER BY c.column_id;
`
		return db.Columns(ctx, c, false, q, schema+"."+name)
	}

	const q = `
SELECT COLUMN_NAME, DATA_TYPE
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION;
`
	return db.Columns(ctx, c, true, q, schema, name)
}

func (Dialect) QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// EnableFileImport needs no toggle; BULK INSERT is gated by the
// ADMINISTER BULK OPERATIONS permission.
func (Dialect) EnableFileImport(context.Context, db.Conn, string) (db.Release, error) {
	return db.NoRelease, nil
}

// terminator spells a delimiter for BULK INSERT. Newline is written in hex
// because '\n' means CRLF there.
func terminator(s string) string {
	if s == "\n" {
		return "'0x0a'"
	}
	return db.SQLString(s)
}

func bulkStmt(table, path string, opts db.CSVOptions) string {
	opts = opts.WithDefaults()
	return fmt.Sprintf("BULK INSERT %s FROM %s WITH (FIELDTERMINATOR = %s, ROWTERMINATOR = %s)",
		table, db.SQLString(path), terminator(opts.FieldDelimiter), terminator(opts.RecordDelimiter))
}

func (Dialect) ImportCSV(ctx context.Context, c db.Conn, table, path string, opts db.CSVOptions) error {
	_, err := c.ExecContext(ctx, bulkStmt(table, path, opts))
	return err
}
