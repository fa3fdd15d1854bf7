package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bgunnarsson/tablestore/internal/db"
)

// Insert adds row using type-aware literals.
func (s *Store) Insert(ctx context.Context, row db.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vals, err := s.Normalize(row)
	if err != nil {
		s.log.Error("insert rejected", "row", row, "error", err)
		return err
	}

	stmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", s.table, strings.Join(vals, ","))
	return s.exec(ctx, "insert", stmt)
}

// Delete removes every row equal to row in all of its columns. row must hold
// one value per column. Values are compared as quoted strings and nil
// matches NULL.
func (s *Store) Delete(ctx context.Context, row db.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRow(row); err != nil {
		s.log.Error("delete rejected", "row", row, "error", err)
		return err
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE (%s)", s.table, matchClause(s.ColumnNames(), row, nil))
	return s.exec(ctx, "delete", stmt)
}

// Update replaces rows equal to cur with next. Both rows must hold one value
// per column; all values are quoted and a nil in cur matches NULL.
func (s *Store) Update(ctx context.Context, cur, next db.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRow(cur); err != nil {
		s.log.Error("update rejected", "row", cur, "error", err)
		return err
	}
	if len(next) != len(cur) {
		err := fmt.Errorf("%w: %d new values for %d current values", ErrRowLength, len(next), len(cur))
		s.log.Error("update rejected", "row", next, "error", err)
		return err
	}

	names := s.ColumnNames()
	set := make([]string, len(next))
	for i, v := range next {
		set[i] = names[i] + " = " + quote(v)
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		s.table, strings.Join(set, ", "), matchClause(names, cur, s.dialect.QuoteIdent))
	return s.exec(ctx, "update", stmt)
}

// GetAllRows returns every row in the table. On failure the result is nil.
func (s *Store) GetAllRows(ctx context.Context) ([]db.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmt := "SELECT * FROM " + s.table
	if s.debug {
		s.log.Debug("query", "op", "select", "sql", stmt)
	}
	rows, err := db.Query(ctx, s.conn, stmt)
	if err != nil {
		return nil, s.fail("select", stmt, err)
	}
	return rows.Data, nil
}

// DropTable drops the table if it exists.
func (s *Store) DropTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropTable(ctx)
}

func (s *Store) dropTable(ctx context.Context) error {
	if !s.tableExists(ctx) {
		return nil
	}
	s.log.Info("dropping table")
	return s.exec(ctx, "drop table", "DROP TABLE "+s.table)
}

// ImportFromCSV bulk loads a data-only delimited file at an absolute path.
// The server-wide import switch is turned on for the duration of the call
// and always turned off again, even when the import fails. Only one process
// should run this at a time against the same server.
func (s *Store) ImportFromCSV(ctx context.Context, path string, opts db.CSVOptions) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.access != db.Elevated {
		s.log.Error("csv import rejected", "file", path, "error", ErrImportNotPermitted)
		return ErrImportNotPermitted
	}

	release, err := s.dialect.EnableFileImport(ctx, s.conn, path)
	if err != nil {
		return s.fail("enable file import", "", err)
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			rerr = s.fail("disable file import", "", rerr)
			if err == nil {
				err = rerr
			}
		}
	}()

	if s.debug {
		s.log.Debug("import", "op", "import csv", "file", path,
			"field_delimiter", opts.WithDefaults().FieldDelimiter)
	}
	if err := s.dialect.ImportCSV(ctx, s.conn, s.table, path, opts); err != nil {
		return s.fail("import csv", path, err)
	}
	return nil
}
