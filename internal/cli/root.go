// Package cli provides the sqliter command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinywasm/sqliter"
	"github.com/tinywasm/sqliter/internal/config"
	"github.com/tinywasm/sqliter/internal/logging"
	"github.com/tinywasm/sqliter/internal/schema"
	"github.com/tinywasm/sqliter/sqlite"
)

// Version is set at build time.
var Version = "0.1.0"

// appKey stores the *app in the command context.
type appKey struct{}

// app is the per-invocation state shared by the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func fromContext(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey{}).(*app)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return a, nil
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sqliter",
		Short: "sqliter - schema-driven records on SQLite",
		Long: `sqliter defines tables from a YAML schema and reads and writes validated
records through them.

Every write is checked against the schema before it reaches the database,
where values are always bound as parameters.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := logging.New(cfg.Log, cmd.ErrOrStderr())
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{cfg: cfg, logger: logger}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./sqliter.yaml)")
	pf.String("database", "", "path to the SQLite database (:memory: for a scratch database)")
	pf.String("driver", "", "SQLite driver: sqlite (pure Go) or sqlite3 (cgo)")
	pf.String("schema", "", "path to the YAML schema file")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (pretty|text|json)")
	pf.StringP("output", "o", "", "output format (table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputTable, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{sqlite.DriverModernc, sqlite.DriverMattn}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newInitCommand(),
		newDDLCommand(),
		newTypesCommand(),
		newSelectCommand(),
		newInsertCommand(),
		newUpdateCommand(),
		newDeleteCommand(),
	)
	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// loadModels reads the configured schema file.
func (a *app) loadModels() ([]*sqliter.Model, error) {
	f, err := schema.Load(a.cfg.Schema)
	if err != nil {
		return nil, err
	}
	return f.Build(sqliter.WithLogger(a.logger))
}

// openDB opens the configured database.
func (a *app) openDB() (*sqlite.DB, error) {
	return sqlite.Open(a.cfg.Database.SQLite(), a.logger)
}

// session is an open database with one Model bound to it.
type session struct {
	db    *sqlite.DB
	model *sqliter.Model
}

// openModel loads the schema, opens the database and binds the named model.
func (a *app) openModel(ctx context.Context, name string) (*session, error) {
	models, err := a.loadModels()
	if err != nil {
		return nil, err
	}
	m, ok := schema.Find(models, name)
	if !ok {
		return nil, fmt.Errorf("model %q is not declared in %s", name, a.cfg.Schema)
	}
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	if err := m.Init(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing %s: %w", name, err)
	}
	return &session{db: db, model: m}, nil
}
