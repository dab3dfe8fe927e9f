// Package config loads the command-line tool configuration.
//
// Values are layered with the following precedence (highest first):
// explicitly set flags, SQLITER_ environment variables, the YAML config
// file, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/tinywasm/sqliter/internal/logging"
	"github.com/tinywasm/sqliter/sqlite"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nested keys: SQLITER_DATABASE__PATH sets database.path.
const EnvPrefix = "SQLITER_"

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// DefaultFiles are looked up in the working directory when no config file is given.
var DefaultFiles = []string{"sqliter.yaml", "sqliter.yml"}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"database":   "database.path",
	"driver":     "database.driver",
	"schema":     "schema",
	"output":     "output",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// Config is the resolved tool configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Schema   string         `koanf:"schema"`
	Output   string         `koanf:"output"`
	Log      logging.Config `koanf:"log"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// DatabaseConfig mirrors sqlite.Config.
type DatabaseConfig struct {
	Driver      string `koanf:"driver"`
	Path        string `koanf:"path"`
	WALMode     bool   `koanf:"wal_mode"`
	BusyTimeout int    `koanf:"busy_timeout"`
}

// SQLite converts the section into the executor configuration.
func (d DatabaseConfig) SQLite() sqlite.Config {
	return sqlite.Config{
		Driver:      d.Driver,
		Path:        d.Path,
		WALMode:     d.WALMode,
		BusyTimeout: d.BusyTimeout,
	}
}

func defaults() map[string]any {
	return map[string]any{
		"database.driver":       sqlite.DriverModernc,
		"database.path":         "sqliter.db",
		"database.wal_mode":     true,
		"database.busy_timeout": 5,
		"schema":                "schema.yaml",
		"output":                OutputTable,
		"log.level":             "info",
		"log.format":            logging.FormatPretty,
	}
}

// findConfigFile returns explicit, or the first default file that exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves the configuration. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case sqlite.DriverModernc, sqlite.DriverMattn:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path: must not be empty"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, errors.New("database.busy_timeout: must not be negative"))
	}
	switch c.Output {
	case OutputTable, OutputJSON:
	default:
		errs = append(errs, fmt.Errorf("output: unsupported format %q", c.Output))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unsupported format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
