package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tinywasm/sqliter"
	"github.com/tinywasm/sqliter/internal/config"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the tables of every schema model",
		Long:  "Create the table of every model declared in the schema file. Existing tables are left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			models, err := a.loadModels()
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			names := make([]string, 0, len(models))
			for _, m := range models {
				if err := m.Init(cmd.Context(), db); err != nil {
					return fmt.Errorf("initializing %s: %w", m.Name(), err)
				}
				a.logger.Info("table ready", "model", m.Name())
				names = append(names, m.Name())
			}
			if a.cfg.Output == config.OutputJSON {
				return renderJSON(cmd.OutOrStdout(), names)
			}
			for _, name := range names {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", name)
			}
			return nil
		},
	}
}

func newDDLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ddl",
		Short: "Print the CREATE TABLE statement of every schema model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			models, err := a.loadModels()
			if err != nil {
				return err
			}
			for _, m := range models {
				ddl, err := m.CreateTableSQL()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), ddl)
			}
			return nil
		},
	}
}

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the property types a schema may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			names := sqliter.TypeNames()
			if a.cfg.Output == config.OutputJSON {
				return renderJSON(cmd.OutOrStdout(), names)
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"type", "storage"})
			for _, name := range names {
				typ, err := sqliter.LookupType(name, sqliter.TypeOptions{})
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{name, typ.Class()})
			}
			t.Render()
			return nil
		},
	}
}

// queryFlags are the narrowing flags shared by select, update and delete.
type queryFlags struct {
	where  []string
	order  string
	limit  int
	offset int
}

func (q *queryFlags) register(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringArrayVarP(&q.where, "where", "w", nil, `filter such as "title = milk" (repeatable, combined with AND)`)
	if !paging {
		return
	}
	cmd.Flags().StringVar(&q.order, "order", "", `ordering such as "id DESC"`)
	cmd.Flags().IntVar(&q.limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&q.offset, "offset", 0, "rows to skip")
}

func (q *queryFlags) args(cmd *cobra.Command) *sqliter.Args {
	args := sqliter.Where(q.where...)
	args.Order = q.order
	if cmd.Flags().Changed("limit") {
		args.Take(q.limit)
	}
	if cmd.Flags().Changed("offset") {
		args.Skip(q.offset)
	}
	return args
}

func parseData(raw string) (sqliter.Record, error) {
	if raw == "" {
		return nil, fmt.Errorf("--data is required")
	}
	var rec sqliter.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("parsing --data: %w", err)
	}
	return rec, nil
}

func newSelectCommand() *cobra.Command {
	var (
		q       queryFlags
		columns []string
	)
	cmd := &cobra.Command{
		Use:   "select <model>",
		Short: "Read records of a model",
		Example: `  sqliter select tasks
  sqliter select tasks --columns title,done --where "done = 0" --order "id DESC" --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.openModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = s.db.Close() }()

			recs, err := s.model.Select(cmd.Context(), columns, q.args(cmd))
			if err != nil {
				return err
			}
			cols := columns
			if len(cols) == 0 || (len(cols) == 1 && cols[0] == "*") {
				cols = s.model.Columns()
			}
			return renderRecords(cmd.OutOrStdout(), a.cfg.Output, cols, recs)
		},
	}
	q.register(cmd, true)
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "columns to return (default: all)")
	return cmd
}

func newInsertCommand() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:     "insert <model>",
		Short:   "Insert a record",
		Example: `  sqliter insert tasks --data '{"title": "buy milk", "tags": ["home"]}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := parseData(data)
			if err != nil {
				return err
			}
			s, err := a.openModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = s.db.Close() }()

			inserted, err := s.model.Insert(cmd.Context(), rec)
			if err != nil {
				return err
			}
			return renderRecords(cmd.OutOrStdout(), a.cfg.Output, s.model.Columns(), []sqliter.Record{inserted})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "record as a JSON object")
	return cmd
}

func newUpdateCommand() *cobra.Command {
	var (
		q    queryFlags
		data string
	)
	cmd := &cobra.Command{
		Use:     "update <model>",
		Short:   "Update the records matching --where",
		Example: `  sqliter update tasks --data '{"done": true}' --where "id = 3"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := parseData(data)
			if err != nil {
				return err
			}
			s, err := a.openModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = s.db.Close() }()

			updated, err := s.model.Update(cmd.Context(), rec, q.args(cmd))
			if err != nil {
				return err
			}
			return renderRecords(cmd.OutOrStdout(), a.cfg.Output, s.model.Columns(), updated)
		},
	}
	q.register(cmd, false)
	cmd.Flags().StringVarP(&data, "data", "d", "", "fields to set as a JSON object")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var q queryFlags
	cmd := &cobra.Command{
		Use:     "delete <model>",
		Short:   "Delete the records matching --where",
		Long:    "Delete the records matching --where and print them. A delete without a valid --where is refused.",
		Example: `  sqliter delete tasks --where "id = 3"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := fromContext(cmd.Context())
			if err != nil {
				return err
			}
			s, err := a.openModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer func() { _ = s.db.Close() }()

			deleted, err := s.model.Delete(cmd.Context(), q.args(cmd))
			if err != nil {
				return err
			}
			return renderRecords(cmd.OutOrStdout(), a.cfg.Output, s.model.Columns(), deleted)
		},
	}
	q.register(cmd, false)
	return cmd
}
