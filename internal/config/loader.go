package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// FromEnv reads configuration from environment variables and applies
// defaults without validating, so command line flags can still fill gaps.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = os.Getenv(alt)
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		// Split comma-separated values, trim whitespace
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

var (
	validDrivers = map[string]bool{"hana": true, "postgres": true, "mysql": true, "mssql": true, "sqlite": true}
	validModes   = map[string]bool{"csv": true, "single": true}
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"text": true, "json": true}
)

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if !validDrivers[strings.ToLower(c.Database.Driver)] {
		errs = append(errs, fmt.Sprintf("DB_DRIVER (%q) must be one of: hana, postgres, mysql, mssql, sqlite", c.Database.Driver))
	}
	if c.Database.Address == "" {
		errs = append(errs, "DB_ADDRESS is required")
	}
	if !c.Database.FileBacked() {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("DB_PORT (%d) must be 1-65535", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "DB_USER is required")
		}
		if c.Database.Password == "" {
			errs = append(errs, "DB_PASSWORD is required")
		}
	}

	if c.Table.Name == "" {
		errs = append(errs, "TABLE_NAME is required")
	}

	if !validModes[strings.ToLower(c.Load.Mode)] {
		errs = append(errs, fmt.Sprintf("LOAD_MODE (%q) must be one of: csv, single", c.Load.Mode))
	}
	if c.Load.TotalBytes <= 0 {
		errs = append(errs, "LOAD_TOTAL_BYTES must be positive")
	}
	// HANA caps VARCHAR at 5000 characters
	if c.Load.ColumnBytes <= 0 || c.Load.ColumnBytes > 5000 {
		errs = append(errs, fmt.Sprintf("LOAD_COLUMN_BYTES (%d) must be 1-5000", c.Load.ColumnBytes))
	}
	if c.Load.Columns <= 0 {
		errs = append(errs, "LOAD_COLUMNS must be positive")
	}
	if c.Load.CSVRecords <= 0 {
		errs = append(errs, "LOAD_CSV_RECORDS must be positive")
	}
	if c.Load.CSVFile == "" {
		errs = append(errs, "LOAD_CSV_FILE is required")
	}
	if c.Load.Workers < 0 {
		errs = append(errs, "LOAD_WORKERS must be non-negative")
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The password is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Database: {Driver: %q, Address: %q, Port: %d, User: %q, Password: [MASKED], SystemAccess: %v}, ",
		c.Database.Driver, c.Database.Address, c.Database.Port, c.Database.User, c.Database.SystemAccess)
	fmt.Fprintf(&b, "Table: {Name: %q, Drop: %v}, ", c.Table.Name, c.Table.Drop)
	fmt.Fprintf(&b, "Load: {Mode: %q, TotalBytes: %d, Workers: %d}, ", c.Load.Mode, c.Load.TotalBytes, c.Load.Workers)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
