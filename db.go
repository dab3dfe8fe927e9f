package sqliter

import (
	"context"
)

// Init binds exec to the Model and creates its table if it does not exist yet.
func (m *Model) Init(ctx context.Context, exec Executor) error {
	if err := m.ready(); err != nil {
		return err
	}
	if exec == nil {
		return ErrNotInitialized
	}
	m.exec = exec
	plan, err := m.plan(statement{action: ActionCreateTable})
	if err != nil {
		return err
	}
	_, err = m.run(ctx, plan)
	return err
}

// Select reads the rows matching args. A nil or ["*"] columns returns every
// declared property. Unknown columns fail before storage is touched.
func (m *Model) Select(ctx context.Context, columns []string, args *Args) ([]Record, error) {
	if err := m.bound(); err != nil {
		return nil, err
	}
	names, err := m.resolveColumns(columns)
	if err != nil {
		return nil, err
	}
	rows, err := m.selectRows(ctx, names, args)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := m.PostProcess(row, names)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Pluck reads a single column of the rows matching args as bare values.
func (m *Model) Pluck(ctx context.Context, column string, args *Args) ([]any, error) {
	if err := m.bound(); err != nil {
		return nil, err
	}
	if !m.HasProperty(column) {
		return nil, &UnknownPropertyError{Model: m.name, Property: column}
	}
	rows, err := m.selectRows(ctx, []string{column}, args)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		v, err := m.postProcessValue(row, column)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// selectRows fetches the stored rows backing names. Virtual properties have
// no column, so requesting one projects every stored column for Compute.
func (m *Model) selectRows(ctx context.Context, names []string, args *Args) ([]Row, error) {
	projection := names
	for _, name := range names {
		if m.props[name].Type.Virtual() {
			projection = m.StoredColumns()
			break
		}
	}
	clause, err := m.BuildClause(args)
	if err != nil {
		return nil, err
	}
	plan, err := m.plan(statement{action: ActionSelect, columns: projection, clause: clause})
	if err != nil {
		return nil, err
	}
	return m.all(ctx, plan)
}

// Insert writes a new row and returns it as read back from storage.
func (m *Model) Insert(ctx context.Context, props Record) (Record, error) {
	if err := m.bound(); err != nil {
		return nil, err
	}
	if err := m.validate(props); err != nil {
		return nil, err
	}
	stored, err := m.PreProcess(props)
	if err != nil {
		return nil, err
	}
	columns, values := m.writable(stored, false)
	plan, err := m.plan(statement{action: ActionInsert, columns: columns, values: values})
	if err != nil {
		return nil, err
	}
	if _, err := m.run(ctx, plan); err != nil {
		return nil, err
	}

	latest, err := m.Select(ctx, nil, (&Args{}).OrderBy(IDColumn, "DESC").Take(1))
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return nil, ErrNotFound
	}
	return latest[0], nil
}

// Update writes props to every row matching args and returns those rows
// as read back afterwards. The id column is never written.
func (m *Model) Update(ctx context.Context, props Record, args *Args) ([]Record, error) {
	if err := m.bound(); err != nil {
		return nil, err
	}
	if err := m.validate(props); err != nil {
		return nil, err
	}
	stored, err := m.PreProcess(props)
	if err != nil {
		return nil, err
	}
	columns, values := m.writable(stored, true)
	if len(columns) == 0 {
		return nil, &ValidationError{Model: m.name, Reason: "nothing to update"}
	}
	clause, err := m.BuildClause(args)
	if err != nil {
		return nil, err
	}
	plan, err := m.plan(statement{action: ActionUpdate, columns: columns, values: values, clause: clause})
	if err != nil {
		return nil, err
	}
	if _, err := m.run(ctx, plan); err != nil {
		return nil, err
	}
	return m.Select(ctx, nil, args)
}

// Delete removes the rows matching args and returns them as they were.
// At least one where entry must parse, so a Delete can never empty the table.
func (m *Model) Delete(ctx context.Context, args *Args) ([]Record, error) {
	if err := m.bound(); err != nil {
		return nil, err
	}
	clause, err := m.BuildClause(args)
	if err != nil {
		return nil, err
	}
	if clause.Conditions == 0 {
		return nil, &ValidationError{Model: m.name, Reason: "delete requires a where condition", cause: ErrUnrestrictedDelete}
	}
	snapshot, err := m.Select(ctx, nil, args)
	if err != nil {
		return nil, err
	}
	plan, err := m.plan(statement{action: ActionDelete, clause: clause})
	if err != nil {
		return nil, err
	}
	if _, err := m.run(ctx, plan); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// writable picks the stored columns present in rec, in column order.
func (m *Model) writable(rec Record, skipID bool) ([]string, []any) {
	var columns []string
	var values []any
	for _, name := range m.order {
		if skipID && name == IDColumn {
			continue
		}
		v, ok := rec[name]
		if !ok || m.props[name].Type.Virtual() {
			continue
		}
		columns = append(columns, name)
		values = append(values, v)
	}
	return columns, values
}

func (m *Model) run(ctx context.Context, plan Plan) (int64, error) {
	m.logger.Debug("exec", "model", m.name, "mode", plan.Mode, "query", plan.Query, "args", len(plan.Args))
	return m.exec.Run(ctx, plan.Query, plan.Args...)
}

func (m *Model) all(ctx context.Context, plan Plan) ([]Row, error) {
	m.logger.Debug("exec", "model", m.name, "mode", plan.Mode, "query", plan.Query, "args", len(plan.Args))
	rows, err := m.exec.All(ctx, plan.Query, plan.Args...)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}
