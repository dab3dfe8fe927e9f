package sqliter_test

import (
	"context"

	"github.com/tinywasm/sqliter"
)

// MockExecutor records every statement and replays queued results.
type MockExecutor struct {
	ExecutedQueries []string
	ExecutedArgs    [][]any
	// Results is consumed in order by All; an exhausted queue yields no rows.
	Results    [][]sqliter.Row
	RunErr     error
	AllErr     error
	RowsAffect int64
}

func (m *MockExecutor) Run(_ context.Context, query string, args ...any) (int64, error) {
	m.ExecutedQueries = append(m.ExecutedQueries, query)
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	return m.RowsAffect, m.RunErr
}

func (m *MockExecutor) All(_ context.Context, query string, args ...any) ([]sqliter.Row, error) {
	m.ExecutedQueries = append(m.ExecutedQueries, query)
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	if m.AllErr != nil {
		return nil, m.AllErr
	}
	if len(m.Results) == 0 {
		return nil, nil
	}
	rows := m.Results[0]
	m.Results = m.Results[1:]
	return rows, nil
}

// Reset forgets recorded statements, typically after Init.
func (m *MockExecutor) Reset() {
	m.ExecutedQueries = nil
	m.ExecutedArgs = nil
}

// newTaskModel defines a small model covering every built-in type.
func newTaskModel(t interface{ Fatalf(string, ...any) }) *sqliter.Model {
	m := sqliter.New("tasks", sqliter.WithTitle("Tasks"))
	err := m.Define(
		sqliter.Property{Name: "title", Type: sqliter.Text, Default: "untitled"},
		sqliter.Property{Name: "priority", Type: sqliter.Integer, Default: 1},
		sqliter.Property{Name: "weight", Type: sqliter.Real},
		sqliter.Property{Name: "done", Type: sqliter.Bool, Default: false},
		sqliter.Property{Name: "due", Type: sqliter.Date},
		sqliter.Property{Name: "tags", Type: sqliter.Array(sqliter.ArrayOptions{Allowed: []any{"home", "work"}})},
		sqliter.Property{Name: "state", Type: sqliter.Enum},
		sqliter.Property{Name: "label", Type: sqliter.Computed(func(row sqliter.Row) any {
			return fmtLabel(row["title"], row["priority"])
		})},
	)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	return m
}
