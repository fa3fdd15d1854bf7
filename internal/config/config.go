// Package config loads tablestore settings from environment variables with
// defaults, and validates them before anything connects.
package config

import (
	"strings"

	"github.com/bgunnarsson/tablestore/internal/db"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Table    TableConfig
	Load     LoadConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds connection settings.
type DatabaseConfig struct {
	// Driver is one of hana, postgres, mysql, mssql, sqlite (default: hana)
	Driver string `env:"DB_DRIVER" default:"hana"`

	// Address is the host name, or the file path for sqlite (default: localhost)
	Address string `env:"DB_ADDRESS" envAlt:"DB_HOST" default:"localhost"`

	// Port is 3<NN>13 for HANA tenant databases, 3<NN>15 for single tenant (default: 30015)
	Port int `env:"DB_PORT" default:"30015"`

	User string `env:"DB_USER" default:"SYSTEM"`

	Password string `env:"DB_PASSWORD" envAlt:"DB_PASSWD"`

	// Name is the database/schema for dialects that need one
	Name string `env:"DB_NAME"`

	// Params are extra driver parameters as comma separated key=value pairs
	Params []string `env:"DB_PARAMS"`

	// SystemAccess marks the user as able to read SYS.COLUMNS and alter
	// system configuration (default: true)
	SystemAccess bool `env:"DB_SYSTEM_ACCESS" default:"true"`

	// Debug logs every generated statement (default: false)
	Debug bool `env:"DB_DEBUG" default:"false"`
}

// TableConfig names the table the demos work against.
type TableConfig struct {
	Name string `env:"TABLE_NAME" default:"Contacts"`

	// Drop drops the table before creating it (default: false)
	Drop bool `env:"TABLE_DROP" default:"false"`
}

// LoadConfig controls the load generator.
type LoadConfig struct {
	// Mode is csv (bulk import) or single (one insert per record) (default: csv)
	Mode string `env:"LOAD_MODE" default:"csv"`

	// TotalBytes is the amount of data to load (default: 1GiB)
	TotalBytes int64 `env:"LOAD_TOTAL_BYTES" default:"1073741824"`

	// ColumnBytes is the width of every generated column value (default: 4096)
	ColumnBytes int `env:"LOAD_COLUMN_BYTES" default:"4096"`

	// Columns is the number of VARCHAR columns per record (default: 8)
	Columns int `env:"LOAD_COLUMNS" default:"8"`

	// CSVRecords is the number of records per generated CSV file (default: 4096)
	CSVRecords int `env:"LOAD_CSV_RECORDS" default:"4096"`

	// CSVFile is where the CSV batch is written (default: bulkrecords.csv)
	CSVFile string `env:"LOAD_CSV_FILE" default:"bulkrecords.csv"`

	// Workers is the insert pool size, 0 means one per CPU (default: 0)
	Workers int `env:"LOAD_WORKERS" default:"0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Access maps SystemAccess onto the store's access level.
func (c *DatabaseConfig) Access() db.Access {
	if c.SystemAccess {
		return db.Elevated
	}
	return db.Restricted
}

// ParamMap parses Params into a map. Entries without '=' are ignored.
func (c *DatabaseConfig) ParamMap() map[string]string {
	if len(c.Params) == 0 {
		return nil
	}
	m := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m
}

// FileBacked reports whether the driver reads a local file instead of
// connecting to a server.
func (c *DatabaseConfig) FileBacked() bool {
	return strings.EqualFold(c.Driver, "sqlite")
}
