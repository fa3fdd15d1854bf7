package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/bgunnarsson/tablestore/internal/app"
	"github.com/bgunnarsson/tablestore/internal/config"
	"github.com/bgunnarsson/tablestore/internal/logging"
)

const usage = `usage: tablestore [flags] <command>

commands:
  contacts   create the Contacts table, then add, update and delete rows
  load       fill a table with generated records

run "tablestore <command> -h" for command flags`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "error loading .env:", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	flags := flag.NewFlagSet(cmd, flag.ExitOnError)
	bindCommon(flags, cfg)

	var gb *float64
	switch cmd {
	case "contacts":
	case "load":
		flags.StringVar(&cfg.Load.Mode, "mode", cfg.Load.Mode, "csv (bulk import) or single (one insert per record)")
		gb = flags.Float64("gb", float64(cfg.Load.TotalBytes)/(1<<30), "GiB of data to load")
		flags.IntVar(&cfg.Load.Workers, "workers", cfg.Load.Workers, "insert workers in single mode, 0 = one per CPU")
		flags.IntVar(&cfg.Load.ColumnBytes, "column-bytes", cfg.Load.ColumnBytes, "bytes per generated column value")
		flags.StringVar(&cfg.Load.CSVFile, "csv", cfg.Load.CSVFile, "path of the generated CSV batch")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(1)
	}
	flags.Parse(args)

	if gb != nil {
		cfg.Load.TotalBytes = int64(*gb * (1 << 30))
	}
	if cfg.Database.Debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.NewContext(ctx, logger)

	switch cmd {
	case "contacts":
		err = app.RunContacts(ctx, cfg, os.Stdout)
	case "load":
		stdoutIsTTY := term.IsTerminal(int(os.Stdout.Fd()))
		err = app.RunLoad(ctx, cfg, stdoutIsTTY, os.Stdout)
	}
	if err != nil {
		slog.Error("command failed", "command", cmd, "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func bindCommon(flags *flag.FlagSet, cfg *config.Config) {
	flags.StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "hana, postgres, mysql, mssql or sqlite")
	flags.StringVar(&cfg.Database.Address, "addr", cfg.Database.Address, "server host, or the database file for sqlite")
	flags.IntVar(&cfg.Database.Port, "port", cfg.Database.Port, "server port")
	flags.StringVar(&cfg.Database.User, "user", cfg.Database.User, "database user")
	flags.StringVar(&cfg.Database.Name, "db", cfg.Database.Name, "database or schema name")
	flags.BoolVar(&cfg.Database.SystemAccess, "system", cfg.Database.SystemAccess, "user can read system column metadata and alter system configuration")
	flags.StringVar(&cfg.Table.Name, "table", cfg.Table.Name, "table name")
	flags.BoolVar(&cfg.Table.Drop, "drop", cfg.Table.Drop, "drop the table before creating it")
	flags.BoolVar(&cfg.Database.Debug, "debug", cfg.Database.Debug, "log every generated statement")
	flags.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "debug, info, warn or error")
}
