package config

import (
	"strings"
	"testing"

	"github.com/bgunnarsson/tablestore/internal/db"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "hana", Address: "localhost", Port: 30015, User: "SYSTEM", Password: "pw"},
		Table:    TableConfig{Name: "Contacts"},
		Load:     LoadConfig{Mode: "csv", TotalBytes: 1 << 20, ColumnBytes: 4096, Columns: 8, CSVRecords: 16, CSVFile: "bulk.csv"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "hana" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "hana")
	}
	if cfg.Database.Port != 30015 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 30015)
	}
	if !cfg.Database.SystemAccess {
		t.Error("Database.SystemAccess = false, want true")
	}
	if cfg.Table.Name != "Contacts" {
		t.Errorf("Table.Name = %q, want %q", cfg.Table.Name, "Contacts")
	}
	if cfg.Load.TotalBytes != 1073741824 {
		t.Errorf("Load.TotalBytes = %d, want %d", cfg.Load.TotalBytes, 1073741824)
	}
	if cfg.Load.ColumnBytes != 4096 || cfg.Load.Columns != 8 || cfg.Load.CSVRecords != 4096 {
		t.Errorf("Load = %+v", cfg.Load)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_PORT", "39013")
	t.Setenv("DB_SYSTEM_ACCESS", "false")
	t.Setenv("LOAD_MODE", "single")
	t.Setenv("LOAD_WORKERS", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Port != 39013 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 39013)
	}
	if cfg.Database.Access() != db.Restricted {
		t.Errorf("Access() = %v, want restricted", cfg.Database.Access())
	}
	if cfg.Load.Mode != "single" || cfg.Load.Workers != 3 {
		t.Errorf("Load = %+v", cfg.Load)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("DB_HOST", "hana01")
	t.Setenv("DB_PASSWD", "alt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Address != "hana01" || cfg.Database.Password != "alt" {
		t.Errorf("Database = %+v", cfg.Database)
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PASSWD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing DB_PASSWORD")
	}
	if !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Errorf("error should mention DB_PASSWORD: %v", err)
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("DB_PORT", "thirty")

	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("FromEnv() error = %v, want DB_PORT parse error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		mention string
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "DB_DRIVER"},
		{"bad port", func(c *Config) { c.Database.Port = 99999 }, "DB_PORT"},
		{"no user", func(c *Config) { c.Database.User = "" }, "DB_USER"},
		{"wide column", func(c *Config) { c.Load.ColumnBytes = 6000 }, "LOAD_COLUMN_BYTES"},
		{"bad mode", func(c *Config) { c.Load.Mode = "stream" }, "LOAD_MODE"},
		{"negative workers", func(c *Config) { c.Load.Workers = -1 }, "LOAD_WORKERS"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"no table", func(c *Config) { c.Table.Name = "" }, "TABLE_NAME"},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error should mention %s: %v", tt.mention, err)
			}
		})
	}
}

func TestValidate_SqliteNeedsNoCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "sqlite", Address: "/tmp/contacts.db"}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParamMap(t *testing.T) {
	c := DatabaseConfig{Params: []string{"sslmode=disable", " fedauth = ActiveDirectoryAzCli", "junk"}}
	m := c.ParamMap()
	if len(m) != 2 || m["sslmode"] != "disable" || m["fedauth"] != "ActiveDirectoryAzCli" {
		t.Errorf("ParamMap() = %v", m)
	}
	if (&DatabaseConfig{}).ParamMap() != nil {
		t.Error("ParamMap() of empty params should be nil")
	}
}

func TestConfigString_MasksPassword(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = "hunter2"

	str := cfg.String()
	if strings.Contains(str, "hunter2") {
		t.Error("String() should mask the password")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
