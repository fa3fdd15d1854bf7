package db

import (
	"context"
	"strings"
	"time"
)

// Query runs sqlQuery and materializes every row. []byte values become
// strings and times are rendered as RFC 3339.
func Query(ctx context.Context, c Conn, sqlQuery string, args ...any) (*Rows, error) {
	rows, err := c.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	header := make([]Column, len(colNames))
	for i, name := range colNames {
		typ := ""
		if i < len(colTypes) && colTypes[i] != nil {
			typ = strings.ToUpper(colTypes[i].DatabaseTypeName())
		}
		header[i] = Column{
			Name: name,
			Type: typ,
		}
	}

	var data []Row
	for rows.Next() {
		values := make([]any, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		for i, v := range values {
			switch x := v.(type) {
			case []byte:
				values[i] = string(x)
			case time.Time:
				values[i] = x.Format(time.RFC3339Nano)
			default:
				values[i] = x
			}
		}

		data = append(data, Row(values))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Rows{
		Columns: header,
		Data:    data,
	}, nil
}

// Strings runs a query whose first column is text and returns that column.
func Strings(ctx context.Context, c Conn, sqlQuery string, args ...any) ([]string, error) {
	rows, err := c.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Columns scans (name, type) pairs, or names only when typed is false, in
// which case every type is VARCHAR.
func Columns(ctx context.Context, c Conn, typed bool, sqlQuery string, args ...any) ([]Column, error) {
	rows, err := c.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if typed {
			if err := rows.Scan(&col.Name, &col.Type); err != nil {
				return nil, err
			}
			col.Type = strings.ToUpper(col.Type)
		} else {
			if err := rows.Scan(&col.Name); err != nil {
				return nil, err
			}
			col.Type = "VARCHAR"
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

// SQLString renders s as a single-quoted SQL literal, doubling embedded quotes.
func SQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
