package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/bgunnarsson/tablestore/internal/db"
)

type Dialect struct{}

func (Dialect) Name() string     { return "mysql" }
func (Dialect) FileBacked() bool { return false }

func dsn(ci db.ConnInfo) string {
	cfg := mysql.NewConfig()
	cfg.User = ci.User
	cfg.Passwd = ci.Password
	cfg.Net = "tcp"
	cfg.Addr = ci.HostPort()
	cfg.DBName = ci.Database
	cfg.Params = ci.Params
	return cfg.FormatDSN()
}

func (Dialect) Open(ctx context.Context, ci db.ConnInfo) (*sql.DB, error) {
	if ci.Address == "" {
		return nil, fmt.Errorf("empty mysql address")
	}

	sqldb, err := sql.Open("mysql", dsn(ci))
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
  AND table_schema = DATABASE()
ORDER BY table_name;
`
	return db.Strings(ctx, c, q)
}

func (Dialect) DescribeTable(ctx context.Context, c db.Conn, table string, access db.Access) ([]db.Column, error) {
	if access == db.Restricted {
		const q = `
SELECT column_name
FROM information_schema.columns
WHERE table_schema = DATABASE()
  AND table_name = ?
ORDER BY ordinal_position;
`
		return db.Columns(ctx, c, false, q, table)
	}

	const q = `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = DATABASE()
  AND table_name = ?
ORDER BY ordinal_position;
`
	return db.Columns(ctx, c, true, q, table)
}

// Double quotes are string literals unless ANSI_QUOTES is set.
func (Dialect) QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// EnableFileImport switches local_infile on for the server and allow-lists
// path with the driver. Both are undone by the returned Release.
func (Dialect) EnableFileImport(ctx context.Context, c db.Conn, path string) (db.Release, error) {
	if _, err := c.ExecContext(ctx, "SET GLOBAL local_infile = 1"); err != nil {
		return nil, err
	}
	mysql.RegisterLocalFile(path)

	return func(ctx context.Context) error {
		mysql.DeregisterLocalFile(path)
		_, err := c.ExecContext(ctx, "SET GLOBAL local_infile = 0")
		return err
	}, nil
}

func loadStmt(table, path string, opts db.CSVOptions) string {
	opts = opts.WithDefaults()
	esc := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return fmt.Sprintf("LOAD DATA LOCAL INFILE %s INTO TABLE %s FIELDS TERMINATED BY %s LINES TERMINATED BY %s",
		db.SQLString(path), table,
		db.SQLString(esc.Replace(opts.FieldDelimiter)),
		db.SQLString(esc.Replace(opts.RecordDelimiter)))
}

func (Dialect) ImportCSV(ctx context.Context, c db.Conn, table, path string, opts db.CSVOptions) error {
	_, err := c.ExecContext(ctx, loadStmt(table, path, opts))
	return err
}
