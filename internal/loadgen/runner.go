package loadgen

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bgunnarsson/tablestore/internal/db"
)

type Inserter interface {
	Insert(ctx context.Context, row db.Row) error
}

type Importer interface {
	ImportFromCSV(ctx context.Context, path string, opts db.CSVOptions) error
}

// Progress is reported after every batch. Bytes is an estimate derived from
// the record size, not a count of transferred bytes.
type Progress struct {
	Records    int64
	Failed     int64
	Total      int64
	Bytes      int64
	TotalBytes int64
}

// Fraction is Records/Total clamped to [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Records) / float64(p.Total)
	return min(f, 1)
}

type Result struct {
	Records int64
	Failed  int64
	Elapsed time.Duration
}

// Runner drives one load run. Record is inserted Total times.
type Runner struct {
	Record     db.Row
	Total      int64
	TotalBytes int64

	OnProgress func(Progress)
	Logger     *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) report(done, failed int64) {
	if r.OnProgress == nil {
		return
	}
	r.OnProgress(Progress{
		Records:    done,
		Failed:     failed,
		Total:      r.Total,
		Bytes:      done * RecordBytes(r.Record),
		TotalBytes: r.TotalBytes,
	})
}

// RunCSV imports the file at path, which holds batch records, until Total
// records are loaded. The first failed import ends the run.
func (r *Runner) RunCSV(ctx context.Context, imp Importer, path string, batch int, opts db.CSVOptions) (Result, error) {
	start := time.Now()
	log := r.logger()
	log.Info("csv import started", "file", path, "batch", batch, "total", r.Total)

	var done int64
	for done < r.Total {
		if err := ctx.Err(); err != nil {
			return Result{Records: done, Elapsed: time.Since(start)}, err
		}
		if err := imp.ImportFromCSV(ctx, path, opts); err != nil {
			return Result{Records: done, Failed: int64(batch), Elapsed: time.Since(start)}, err
		}
		done += int64(batch)
		r.report(done, 0)
	}

	res := Result{Records: done, Elapsed: time.Since(start)}
	log.Info("csv import finished", "records", res.Records, "elapsed", res.Elapsed)
	return res, nil
}

// RunSingle inserts one record per worker per batch, waits for the whole
// batch, then starts the next. Each worker should own its store. Failed
// inserts are counted and the run carries on.
func (r *Runner) RunSingle(ctx context.Context, workers []Inserter) (Result, error) {
	start := time.Now()
	log := r.logger()
	log.Info("single inserts started", "workers", len(workers), "total", r.Total)

	if len(workers) == 0 {
		return Result{}, nil
	}

	var done int64
	var failed atomic.Int64
	for done < r.Total {
		if err := ctx.Err(); err != nil {
			return Result{Records: done, Failed: failed.Load(), Elapsed: time.Since(start)}, err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(len(workers))
		for _, w := range workers {
			// every worker gets its own copy of the record
			row := slices.Clone(r.Record)
			g.Go(func() error {
				if err := w.Insert(gctx, row); err != nil {
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		done += int64(len(workers))
		r.report(done, failed.Load())
	}

	res := Result{Records: done, Failed: failed.Load(), Elapsed: time.Since(start)}
	log.Info("single inserts finished", "records", res.Records, "failed", res.Failed, "elapsed", res.Elapsed)
	return res, nil
}
