package sqliter

// Mode selects how the Executor runs a Plan.
type Mode int

const (
	// ModeRun executes a write and yields an affected row count.
	ModeRun Mode = iota
	// ModeAll executes a read and yields rows.
	ModeAll
)

func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "run"
}

// Plan describes how the Executor should run the operation.
type Plan struct {
	Mode  Mode
	Query string
	Args  []any
}
