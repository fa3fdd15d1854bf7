package print

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/bgunnarsson/tablestore/internal/db"
)

type Options struct {
	MaxWidth int  // max width for each column, 0 = 40
	Count    bool // print "(n rows)" under the table
}

// RenderTable writes rows as an ASCII grid. Widths are measured in terminal
// cells, so wide runes line up.
func RenderTable(w io.Writer, rows *db.Rows, opts Options) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 40
	}

	cols := len(rows.Columns)
	if cols == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	// compute widths
	widths := make([]int, cols)
	for i, col := range rows.Columns {
		widths[i] = min(runewidth.StringWidth(col.Name), opts.MaxWidth)
	}

	for _, r := range rows.Data {
		for i, cell := range r {
			if i >= cols {
				break
			}
			if l := runewidth.StringWidth(formatCell(cell)); l > widths[i] {
				widths[i] = min(l, opts.MaxWidth)
			}
		}
	}

	sep := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for i := range widths {
			b.WriteString(strings.Repeat(ch, widths[i]+2))
			b.WriteString("+")
		}
		return b.String()
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range cells {
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(truncate(c, widths[i]), widths[i]))
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}

	// header
	fmt.Fprintln(w, sep("-"))
	header := make([]string, cols)
	for i, col := range rows.Columns {
		header[i] = col.Name
	}
	writeRow(header)
	fmt.Fprintln(w, sep("="))

	// data; short rows are padded with blanks
	for _, r := range rows.Data {
		cells := make([]string, cols)
		for i := range cells {
			if i < len(r) {
				cells[i] = formatCell(r[i])
			}
		}
		writeRow(cells)
	}
	fmt.Fprintln(w, sep("-"))

	if opts.Count {
		n := len(rows.Data)
		if n == 1 {
			fmt.Fprintln(w, "(1 row)")
		} else {
			fmt.Fprintf(w, "(%d rows)\n", n)
		}
	}
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	switch t := v.(type) {
	case []byte:
		// heuristic: treat as string if printable, else show len
		s := string(t)
		if isPrintable(s) {
			return s
		}
		return fmt.Sprintf("<blob %d bytes>", len(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

func truncate(s string, w int) string {
	if runewidth.StringWidth(s) <= w {
		return s
	}
	if w <= 3 {
		return runewidth.Truncate(s, w, "")
	}
	return runewidth.Truncate(s, w, "...")
}
