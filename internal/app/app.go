package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bgunnarsson/tablestore/internal/config"
	"github.com/bgunnarsson/tablestore/internal/db"
	"github.com/bgunnarsson/tablestore/internal/db/hana"
	"github.com/bgunnarsson/tablestore/internal/db/mssql"
	"github.com/bgunnarsson/tablestore/internal/db/mysql"
	"github.com/bgunnarsson/tablestore/internal/db/postgres"
	"github.com/bgunnarsson/tablestore/internal/db/sqlite"
	"github.com/bgunnarsson/tablestore/internal/store"
)

type Driver string

const (
	DriverHana     Driver = "hana"
	DriverPostgres Driver = "postgres"
	DriverMysql    Driver = "mysql"
	DriverMssql    Driver = "mssql"
	DriverSqlite   Driver = "sqlite"
)

// central factory
func Dialect(driver Driver) (db.Dialect, error) {
	switch Driver(strings.ToLower(string(driver))) {
	case "", DriverHana:
		return hana.Dialect{}, nil
	case DriverPostgres:
		return postgres.Dialect{}, nil
	case DriverMysql:
		return mysql.Dialect{}, nil
	case DriverMssql:
		return mssql.Dialect{}, nil
	case DriverSqlite:
		return sqlite.Dialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func openStore(ctx context.Context, cfg *config.Config, createStmt string, drop bool, logger *slog.Logger) (*store.Store, error) {
	dialect, err := Dialect(Driver(cfg.Database.Driver))
	if err != nil {
		return nil, err
	}

	return store.Open(ctx, store.Config{
		Dialect:    dialect,
		Address:    cfg.Database.Address,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Database:   cfg.Database.Name,
		Params:     cfg.Database.ParamMap(),
		Table:      cfg.Table.Name,
		CreateStmt: createStmt,
		DropFirst:  drop,
		Access:     cfg.Database.Access(),
		Debug:      cfg.Database.Debug,
		Logger:     logger,
	})
}
