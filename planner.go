package sqliter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action is the kind of statement a Plan carries.
type Action int

const (
	ActionCreateTable Action = iota
	ActionSelect
	ActionInsert
	ActionUpdate
	ActionDelete
)

// statement is everything the planner needs to render one SQL statement.
// Columns and Values are parallel for inserts and updates.
type statement struct {
	action  Action
	columns []string
	values  []any
	clause  Clause
}

// plan renders stmt into SQLite SQL with bound parameters.
func (m *Model) plan(stmt statement) (Plan, error) {
	switch stmt.action {
	case ActionCreateTable:
		q, err := m.CreateTableSQL()
		if err != nil {
			return Plan{}, err
		}
		return Plan{Mode: ModeRun, Query: q}, nil

	case ActionSelect:
		q := "SELECT " + strings.Join(stmt.columns, ", ") + " FROM " + m.name
		return Plan{Mode: ModeAll, Query: withClause(q, stmt.clause), Args: stmt.clause.Params}, nil

	case ActionInsert:
		if len(stmt.columns) == 0 {
			return Plan{Mode: ModeRun, Query: "INSERT INTO " + m.name + " DEFAULT VALUES;"}, nil
		}
		marks := make([]string, len(stmt.columns))
		for i := range marks {
			marks[i] = "(?)"
		}
		q := "INSERT INTO " + m.name + " (" + strings.Join(stmt.columns, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ");"
		return Plan{Mode: ModeRun, Query: q, Args: stmt.values}, nil

	case ActionUpdate:
		sets := make([]string, len(stmt.columns))
		for i, c := range stmt.columns {
			sets[i] = c + " = (?)"
		}
		q := "UPDATE " + m.name + " SET " + strings.Join(sets, ", ")
		args := append(append([]any(nil), stmt.values...), stmt.clause.Params...)
		return Plan{Mode: ModeRun, Query: withClause(q, stmt.clause), Args: args}, nil

	case ActionDelete:
		q := "DELETE FROM " + m.name
		return Plan{Mode: ModeRun, Query: withClause(q, stmt.clause), Args: stmt.clause.Params}, nil
	}
	return Plan{}, fmt.Errorf("unsupported action %d", stmt.action)
}

func withClause(q string, c Clause) string {
	if c.SQL != "" {
		q += " " + c.SQL
	}
	return q + ";"
}

// CreateTableSQL renders the idempotent table-creation statement.
// Virtual properties have no column and non-enforced references are omitted.
func (m *Model) CreateTableSQL() (string, error) {
	if err := m.ready(); err != nil {
		return "", err
	}
	var defs, keys []string
	for _, name := range m.order {
		p := m.props[name]
		if p.Type.Virtual() {
			continue
		}
		def := []string{name, string(p.Type.Class())}
		for _, d := range p.Type.Decorators() {
			def = append(def, string(d))
		}
		if p.Default != nil {
			lit, err := m.defaultLiteral(p)
			if err != nil {
				return "", err
			}
			def = append(def, "DEFAULT", lit)
		}
		defs = append(defs, strings.Join(def, " "))
		if fk := p.Foreign; fk != nil && fk.Enforced {
			keys = append(keys, "FOREIGN KEY("+name+") REFERENCES "+fk.Table+"("+fk.Column+")")
		}
	}
	return "CREATE TABLE IF NOT EXISTS " + m.name + " (" + strings.Join(append(defs, keys...), ", ") + ");", nil
}

func (m *Model) defaultLiteral(p Property) (string, error) {
	v, err := p.Type.ToStorage(p.Default)
	if err != nil {
		return "", &ValidationError{Model: m.name, Properties: []string{p.Name}, Reason: "default value", cause: err}
	}
	return sqlLiteral(v), nil
}

// sqlLiteral renders a stored value for a DEFAULT clause.
func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case []byte:
		return "'" + strings.ReplaceAll(string(x), "'", "''") + "'"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	}
	return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "NULL"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
