package loadgen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bgunnarsson/tablestore/internal/db"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRecord(t *testing.T) {
	row := NewRecord(8, 64, rand.New(rand.NewPCG(1, 2)))

	if len(row) != 8 {
		t.Fatalf("len(row) = %d, want 8", len(row))
	}
	first, ok := row[0].(string)
	if !ok || len(first) != 64 {
		t.Fatalf("row[0] = %#v, want 64 byte string", row[0])
	}
	for _, r := range first {
		if !strings.ContainsRune(letters, r) {
			t.Fatalf("non-letter %q in record", r)
		}
	}
	for i, v := range row {
		if v != first {
			t.Errorf("row[%d] differs from row[0]", i)
		}
	}
	if got := RecordBytes(row); got != 8*64 {
		t.Errorf("RecordBytes() = %d, want %d", got, 8*64)
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name        string
		totalBytes  int64
		recordBytes int64
		csvRecords  int
		csvMode     bool
		want        int64
	}{
		{"single exact", 1 << 30, 32768, 4096, false, 32768},
		{"single rounds up", 100, 30, 4096, false, 4},
		{"csv adds a file when exact", 1 << 30, 32768, 4096, true, 36864},
		{"csv rounds to whole files", 100, 30, 4, true, 4},
		{"csv partial", 1000, 30, 8, true, 40},
		{"zero record size", 100, 0, 4, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.totalBytes, tt.recordBytes, tt.csvRecords, tt.csvMode)
			if got != tt.want {
				t.Errorf("Plan() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bulk.csv")

	if err := WriteCSV(path, db.Row{"ab", "cd", 7}, 3, db.CSVOptions{}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if want := "ab,cd,7\nab,cd,7\nab,cd,7\n"; string(got) != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

type countingInserter struct {
	mu    sync.Mutex
	rows  []db.Row
	fail  bool
	calls atomic.Int64
}

func (c *countingInserter) Insert(_ context.Context, row db.Row) error {
	c.calls.Add(1)
	if c.fail {
		return errors.New("insert failed")
	}
	c.mu.Lock()
	c.rows = append(c.rows, row)
	c.mu.Unlock()
	return nil
}

func TestRunSingle(t *testing.T) {
	a, b, c := &countingInserter{}, &countingInserter{}, &countingInserter{fail: true}
	record := db.Row{"x", "y"}

	var reports []Progress
	r := &Runner{
		Record:     record,
		Total:      7,
		TotalBytes: 14,
		OnProgress: func(p Progress) { reports = append(reports, p) },
		Logger:     quietLogger(),
	}

	res, err := r.RunSingle(context.Background(), []Inserter{a, b, c})
	if err != nil {
		t.Fatalf("RunSingle() error = %v", err)
	}

	// three batches of three
	if res.Records != 9 {
		t.Errorf("Records = %d, want 9", res.Records)
	}
	if res.Failed != 3 {
		t.Errorf("Failed = %d, want 3", res.Failed)
	}
	if a.calls.Load() != 3 || b.calls.Load() != 3 || c.calls.Load() != 3 {
		t.Errorf("calls = %d/%d/%d, want 3 each", a.calls.Load(), b.calls.Load(), c.calls.Load())
	}
	if len(reports) != 3 {
		t.Fatalf("progress reports = %d, want 3", len(reports))
	}
	last := reports[2]
	if last.Records != 9 || last.Bytes != 18 || last.Total != 7 || last.Fraction() != 1 {
		t.Errorf("last progress = %+v", last)
	}

	// rows handed to workers are copies
	a.rows[0][0] = "mutated"
	if record[0] != "x" {
		t.Error("worker mutation leaked into the shared record")
	}
}

func TestRunSingle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Record: db.Row{"x"}, Total: 10, Logger: quietLogger()}
	_, err := r.RunSingle(ctx, []Inserter{&countingInserter{}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunSingle() error = %v, want context.Canceled", err)
	}
}

type fakeImporter struct {
	calls  int
	failAt int
	paths  []string
}

func (f *fakeImporter) ImportFromCSV(_ context.Context, path string, _ db.CSVOptions) error {
	f.calls++
	f.paths = append(f.paths, path)
	if f.failAt > 0 && f.calls == f.failAt {
		return errors.New("import failed")
	}
	return nil
}

func TestRunCSV(t *testing.T) {
	imp := &fakeImporter{}
	var last Progress
	r := &Runner{
		Record:     db.Row{"abcd"},
		Total:      12,
		OnProgress: func(p Progress) { last = p },
		Logger:     quietLogger(),
	}

	res, err := r.RunCSV(context.Background(), imp, "/data/bulk.csv", 4, db.CSVOptions{})
	if err != nil {
		t.Fatalf("RunCSV() error = %v", err)
	}
	if imp.calls != 3 || res.Records != 12 {
		t.Errorf("calls = %d, records = %d, want 3 and 12", imp.calls, res.Records)
	}
	if imp.paths[0] != "/data/bulk.csv" {
		t.Errorf("path = %s", imp.paths[0])
	}
	if last.Records != 12 || last.Bytes != 48 {
		t.Errorf("last progress = %+v", last)
	}
}

func TestRunCSV_StopsOnFailure(t *testing.T) {
	imp := &fakeImporter{failAt: 2}
	r := &Runner{Record: db.Row{"a"}, Total: 100, Logger: quietLogger()}

	res, err := r.RunCSV(context.Background(), imp, "/data/bulk.csv", 10, db.CSVOptions{})
	if err == nil {
		t.Fatal("RunCSV() expected error")
	}
	if imp.calls != 2 || res.Records != 10 {
		t.Errorf("calls = %d, records = %d, want 2 and 10", imp.calls, res.Records)
	}
}

func TestProgressFraction(t *testing.T) {
	if got := (Progress{Records: 5, Total: 10}).Fraction(); got != 0.5 {
		t.Errorf("Fraction() = %v, want 0.5", got)
	}
	if got := (Progress{Records: 12, Total: 10}).Fraction(); got != 1 {
		t.Errorf("Fraction() = %v, want 1", got)
	}
	if got := (Progress{}).Fraction(); got != 0 {
		t.Errorf("Fraction() = %v, want 0", got)
	}
}
