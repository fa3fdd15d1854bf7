package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register driver

	"github.com/bgunnarsson/tablestore/internal/db"
)

// Dialect talks to a local SQLite file. ConnInfo.Address is the path.
type Dialect struct{}

func (Dialect) Name() string     { return "sqlite" }
func (Dialect) FileBacked() bool { return true }

func (Dialect) Open(ctx context.Context, ci db.ConnInfo) (*sql.DB, error) {
	if ci.Address == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}

	// Keep it simple: open by plain path, then enable pragmas explicitly.
	sqldb, err := sql.Open("sqlite", ci.Address)
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	if _, err := sqldb.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	return sqldb, nil
}

func (Dialect) ListTables(ctx context.Context, c db.Conn) ([]string, error) {
	// hide internal sqlite_% objects
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY lower(name);
	`
	return db.Strings(ctx, c, q)
}

func (d Dialect) DescribeTable(ctx context.Context, c db.Conn, table string, access db.Access) ([]db.Column, error) {
	q := fmt.Sprintf("PRAGMA table_info(%s);", d.QuoteIdent(table))
	rows, err := c.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []db.Column
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		if access == db.Restricted {
			ctype = "VARCHAR"
		}
		cols = append(cols, db.Column{
			Name: name,
			Type: strings.ToUpper(ctype),
		})
	}
	return cols, rows.Err()
}

// very basic identifier quoting, enough for sqlite
func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// EnableFileImport is a no-op: the file is read by this process.
func (Dialect) EnableFileImport(context.Context, db.Conn, string) (db.Release, error) {
	return db.NoRelease, nil
}

// ImportCSV splits the file on the raw delimiters, without quote handling,
// and inserts every record inside one transaction.
func (d Dialect) ImportCSV(ctx context.Context, c db.Conn, table, path string, opts db.CSVOptions) error {
	opts = opts.WithDefaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var records [][]string
	for _, line := range strings.Split(string(raw), opts.RecordDelimiter) {
		if line == "" {
			continue
		}
		records = append(records, strings.Split(line, opts.FieldDelimiter))
	}
	if len(records) == 0 {
		return nil
	}

	width := len(records[0])
	marks := strings.TrimSuffix(strings.Repeat("?,", width), ",")
	stmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", d.QuoteIdent(table), marks)

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ins, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer ins.Close()

	for n, rec := range records {
		if len(rec) != width {
			return fmt.Errorf("record %d: %d fields, want %d", n+1, len(rec), width)
		}
		args := make([]any, width)
		for i, f := range rec {
			args[i] = f
		}
		if _, err := ins.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("record %d: %w", n+1, err)
		}
	}

	return tx.Commit()
}
