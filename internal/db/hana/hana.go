// Package hana is the SAP HANA dialect, built on go-hdb.
//
// The instance number is part of the port: tenant databases listen on
// 3<NN>13 (or 3<NN>15 on single-tenant systems), where <NN> is the SAP
// instance number.
package hana

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/SAP/go-hdb/driver"

	"github.com/bgunnarsson/tablestore/internal/db"
)

type Dialect struct{}

func (Dialect) Name() string     { return "hana" }
func (Dialect) FileBacked() bool { return false }

func (Dialect) Open(ctx context.Context, ci db.ConnInfo) (*sql.DB, error) {
	if ci.Address == "" {
		return nil, fmt.Errorf("empty hana address")
	}

	connector := driver.NewBasicAuthConnector(ci.HostPort(), ci.User, ci.Password)
	sqldb := sql.OpenDB(connector)

	// one connection, owned by the store
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, err
	}

	return sqldb, nil
}

// ListTables scans the TABLES catalog view across every schema.
func (Dialect) ListTables(ctx context.Context, c db.Conn) ([]string, error) {
	return db.Strings(ctx, c, `SELECT TABLE_NAME FROM TABLES`)
}

// DescribeTable reads SYS.COLUMNS for elevated sessions. Restricted sessions
// can only see SYS.M_CS_COLUMNS, which exposes names but not types.
func (Dialect) DescribeTable(ctx context.Context, c db.Conn, table string, access db.Access) ([]db.Column, error) {
	name := strings.ToUpper(table)
	if access == db.Restricted {
		return db.Columns(ctx, c, false,
			`SELECT COLUMN_NAME FROM SYS.M_CS_COLUMNS WHERE TABLE_NAME = ?`, name)
	}
	return db.Columns(ctx, c, true,
		`SELECT COLUMN_NAME, DATA_TYPE_NAME FROM SYS.COLUMNS WHERE TABLE_NAME = ? ORDER BY POSITION`, name)
}

func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// pathFilterStmt switches the indexserver CSV path filter. With the filter
// on (the shipped default) IMPORT FROM CSV FILE rejects arbitrary paths.
func pathFilterStmt(enabled bool) string {
	return fmt.Sprintf(
		"ALTER SYSTEM ALTER CONFIGURATION ('indexserver.ini','SYSTEM') "+
			"SET ('import_export','enable_csv_import_path_filter') = '%t' WITH RECONFIGURE",
		enabled)
}

// EnableFileImport turns the path filter off. The returned Release turns it
// back on. The setting is system wide, not per session.
func (Dialect) EnableFileImport(ctx context.Context, c db.Conn, _ string) (db.Release, error) {
	if _, err := c.ExecContext(ctx, pathFilterStmt(false)); err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		_, err := c.ExecContext(ctx, pathFilterStmt(true))
		return err
	}, nil
}

func importStmt(table, path string, opts db.CSVOptions) string {
	opts = opts.WithDefaults()
	return fmt.Sprintf("IMPORT FROM CSV FILE %s INTO %s WITH RECORD DELIMITED BY %s FIELD DELIMITED BY %s",
		db.SQLString(path), table,
		db.SQLString(escapeDelimiter(opts.RecordDelimiter)),
		db.SQLString(escapeDelimiter(opts.FieldDelimiter)))
}

// escapeDelimiter spells control characters the way IMPORT expects them.
func escapeDelimiter(s string) string {
	return strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(s)
}

func (Dialect) ImportCSV(ctx context.Context, c db.Conn, table, path string, opts db.CSVOptions) error {
	_, err := c.ExecContext(ctx, importStmt(table, path, opts))
	return err
}
