// Package loadgen fills a table with identical generated records, either by
// repeatedly bulk importing a CSV file or by fanning single inserts out over
// a pool of stores.
package loadgen

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/bgunnarsson/tablestore/internal/db"
)

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewRecord builds one random ASCII-letter value of columnBytes characters
// and repeats it across numCols columns. r may be nil.
func NewRecord(numCols, columnBytes int, r *rand.Rand) db.Row {
	intN := rand.IntN
	if r != nil {
		intN = r.IntN
	}

	b := make([]byte, columnBytes)
	for i := range b {
		b[i] = letters[intN(len(letters))]
	}
	value := string(b)

	row := make(db.Row, numCols)
	for i := range row {
		row[i] = value
	}
	return row
}

// RecordBytes is the payload size of row as rendered text.
func RecordBytes(row db.Row) int64 {
	var n int64
	for _, v := range row {
		n += int64(len(fmt.Sprint(v)))
	}
	return n
}

// Plan returns how many records make up totalBytes. In CSV mode the count is
// rounded to whole files of csvRecords, always leaving room for one more.
func Plan(totalBytes, recordBytes int64, csvRecords int, csvMode bool) int64 {
	if recordBytes <= 0 {
		return 0
	}
	if !csvMode {
		return (totalBytes + recordBytes - 1) / recordBytes
	}
	batch := int64(csvRecords)
	if batch <= 0 {
		return 0
	}
	n := totalBytes/recordBytes + batch
	return n - n%batch
}

// WriteCSV writes n copies of row to path as data-only delimited records.
func WriteCSV(path string, row db.Row, n int, opts db.CSVOptions) error {
	opts = opts.WithDefaults()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < n; i++ {
		for j, v := range row {
			if j > 0 {
				w.WriteString(opts.FieldDelimiter)
			}
			fmt.Fprint(w, v)
		}
		w.WriteString(opts.RecordDelimiter)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
