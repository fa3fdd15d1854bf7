package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/bgunnarsson/tablestore/internal/config"
	"github.com/bgunnarsson/tablestore/internal/db"
	"github.com/bgunnarsson/tablestore/internal/loadgen"
	"github.com/bgunnarsson/tablestore/internal/logging"
	"github.com/bgunnarsson/tablestore/internal/store"
	"github.com/bgunnarsson/tablestore/internal/ui"
)

var loadColumnNames = []string{"fName", "mName", "lName", "email", "address", "city", "state", "zipCode"}

// loadCreateStmt declares n VARCHAR columns of width bytes. HANA caps
// VARCHAR at 5000.
func loadCreateStmt(table string, n, width int) string {
	cols := make([]string, n)
	for i := range cols {
		name := fmt.Sprintf("col%d", i+1)
		if i < len(loadColumnNames) {
			name = loadColumnNames[i]
		}
		cols[i] = fmt.Sprintf("%s VARCHAR(%d)", name, width)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
}

// RunLoad fills the configured table with generated records. With
// interactive set, progress is drawn as a bar; otherwise it is logged.
func RunLoad(ctx context.Context, cfg *config.Config, interactive bool, w io.Writer) error {
	mode := strings.ToLower(cfg.Load.Mode)
	runID := uuid.NewString()
	log := logging.WithFields(ctx, "run_id", runID, "mode", mode)
	ctx = logging.NewContext(ctx, log)

	record := loadgen.NewRecord(cfg.Load.Columns, cfg.Load.ColumnBytes, nil)
	recBytes := loadgen.RecordBytes(record)
	csvMode := mode == "csv"
	total := loadgen.Plan(cfg.Load.TotalBytes, recBytes, cfg.Load.CSVRecords, csvMode)
	log.Info("load planned", "record_bytes", recBytes, "records", total, "total_bytes", cfg.Load.TotalBytes)

	runner := &loadgen.Runner{
		Record:     record,
		Total:      total,
		TotalBytes: cfg.Load.TotalBytes,
		Logger:     log,
	}

	createStmt := loadCreateStmt(cfg.Table.Name, cfg.Load.Columns, max(cfg.Load.ColumnBytes, 1))

	var run ui.RunFunc
	if csvMode {
		// the IMPORT statement needs an absolute path
		path, err := filepath.Abs(cfg.Load.CSVFile)
		if err != nil {
			return err
		}
		if err := loadgen.WriteCSV(path, record, cfg.Load.CSVRecords, db.CSVOptions{}); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		s, err := openStore(ctx, cfg, createStmt, cfg.Table.Drop, log)
		if err != nil {
			return err
		}
		defer s.Close()

		log.Info("using 1 worker")
		run = func(ctx context.Context, progress func(loadgen.Progress)) (loadgen.Result, error) {
			runner.OnProgress = progress
			return runner.RunCSV(ctx, s, path, cfg.Load.CSVRecords, db.CSVOptions{})
		}
	} else {
		workers := cfg.Load.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}

		stores, err := openWorkers(ctx, cfg, createStmt, workers, log)
		if err != nil {
			return err
		}
		defer func() {
			for _, s := range stores {
				s.Close()
			}
		}()

		inserters := make([]loadgen.Inserter, len(stores))
		for i, s := range stores {
			inserters[i] = s
		}

		log.Info("using workers", "workers", workers)
		run = func(ctx context.Context, progress func(loadgen.Progress)) (loadgen.Result, error) {
			runner.OnProgress = progress
			return runner.RunSingle(ctx, inserters)
		}
	}

	var (
		res loadgen.Result
		err error
	)
	if interactive {
		res, err = ui.RunLoad(ctx, cfg.Database.Driver, run)
	} else {
		res, err = run(ctx, func(p loadgen.Progress) { log.Info(ui.Describe(p)) })
	}

	fmt.Fprintf(w, "Elapsed time: %.2f sec\n", res.Elapsed.Seconds())
	return err
}

// openWorkers gives every worker its own store and connection. Only the
// first one may drop the table.
func openWorkers(ctx context.Context, cfg *config.Config, createStmt string, n int, log *slog.Logger) ([]*store.Store, error) {
	stores := make([]*store.Store, 0, n)
	for i := range n {
		s, err := openStore(ctx, cfg, createStmt, cfg.Table.Drop && i == 0, log.With("worker", i))
		if err != nil {
			log.Error("worker store failed", "worker", i, "error", err)
			for _, open := range stores {
				open.Close()
			}
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}
