package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bgunnarsson/tablestore/internal/db"
)

// render produces the bare text of a value. nil is NULL.
func render(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return t
	case []byte:
		return string(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format("2006-01-02 15:04:05.999999999")
	default:
		return fmt.Sprint(t)
	}
}

// quote wraps the rendered value in single quotes. Embedded quotes are not
// escaped.
func quote(v any) string {
	if v == nil {
		return "NULL"
	}
	return "'" + render(v) + "'"
}

func isText(c db.Column) bool {
	return strings.Contains(strings.ToUpper(c.Type), "VARCHAR")
}

// Normalize renders row as SQL literals: quoted for VARCHAR columns, bare
// for everything else. Rows may be shorter than the column list but not
// longer.
func (s *Store) Normalize(row db.Row) ([]string, error) {
	if len(row) > len(s.columns) {
		return nil, fmt.Errorf("%w: %d values for %d columns", ErrRowLength, len(row), len(s.columns))
	}

	out := make([]string, len(row))
	for i, v := range row {
		if isText(s.columns[i]) {
			out[i] = quote(v)
		} else {
			out[i] = render(v)
		}
	}
	return out, nil
}

// matchClause renders "c1 = 'v1' AND c2 IS NULL ..." with one term per value.
func matchClause(names []string, row db.Row, quoteIdent func(string) string) string {
	parts := make([]string, len(row))
	for i, v := range row {
		name := names[i]
		if quoteIdent != nil {
			name = quoteIdent(name)
		}
		if v == nil {
			parts[i] = name + " IS NULL"
			continue
		}
		parts[i] = name + " = " + quote(v)
	}
	return strings.Join(parts, " AND ")
}

// checkRow requires one value per column, so matches are always full-row.
func (s *Store) checkRow(row db.Row) error {
	if len(row) == 0 {
		return fmt.Errorf("%w: empty row", ErrRowLength)
	}
	if len(row) != len(s.columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrRowLength, len(row), len(s.columns))
	}
	return nil
}
