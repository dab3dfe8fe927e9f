package sqliter

import (
	"log/slog"
	"regexp"
)

// IDColumn is the identifier property injected into every Model.
const IDColumn = "id"

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Model is a table-backed record type compiled from a list of properties.
//
// A Model is built with New, given its schema once with Define and bound to
// an Executor with Init. The schema never changes after Define, so a Model
// may be shared between goroutines; the Executor is responsible for
// serializing statements.
type Model struct {
	name    string
	title   string
	logger  *slog.Logger
	exec    Executor
	order   []string
	props   map[string]Property
	defined bool
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets a human-readable name. It defaults to the table name.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithLogger sets the logger used for generated SQL and rejected input.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Model backed by the table name.
func New(name string, opts ...Option) *Model {
	m := &Model{
		name:   name,
		title:  name,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Define compiles the schema. The "id" property is injected first with the
// AutoID type, replacing any caller-supplied "id". A later property with an
// already used name replaces the earlier one in place.
func (m *Model) Define(props ...Property) error {
	if m.defined {
		return ErrSchemaDefined
	}
	if m.name == "" {
		return ErrEmptyTable
	}
	if !identifierRegex.MatchString(m.name) {
		return &ValidationError{Model: m.name, Reason: "table name", cause: ErrInvalidIdentifier}
	}

	order := []string{IDColumn}
	set := map[string]Property{
		IDColumn: {Name: IDColumn, Type: AutoID, Description: "Auto-ID"},
	}
	for _, p := range props {
		if p.Name == IDColumn {
			continue
		}
		if !identifierRegex.MatchString(p.Name) {
			return &ValidationError{Model: m.name, Properties: []string{p.Name}, Reason: "property name", cause: ErrInvalidIdentifier}
		}
		if fk := p.Foreign; fk != nil && (!identifierRegex.MatchString(fk.Table) || !identifierRegex.MatchString(fk.Column)) {
			return &ValidationError{Model: m.name, Properties: []string{p.Name}, Reason: "foreign key target", cause: ErrInvalidIdentifier}
		}
		if _, exists := set[p.Name]; !exists {
			order = append(order, p.Name)
		}
		set[p.Name] = p
	}

	m.order = order
	m.props = set
	m.defined = true
	m.logger.Debug("schema defined", "model", m.name, "properties", len(order))
	return nil
}

// Name returns the table name.
func (m *Model) Name() string { return m.name }

// Title returns the human-readable name.
func (m *Model) Title() string { return m.title }

// Properties returns the declared properties in column order.
func (m *Model) Properties() []Property {
	out := make([]Property, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.props[name])
	}
	return out
}

// Columns returns every declared property name in column order, virtual ones included.
func (m *Model) Columns() []string {
	return append([]string(nil), m.order...)
}

// StoredColumns returns the property names that have a table column.
func (m *Model) StoredColumns() []string {
	var out []string
	for _, name := range m.order {
		if !m.props[name].Type.Virtual() {
			out = append(out, name)
		}
	}
	return out
}

// Property looks up a declared property.
func (m *Model) Property(name string) (Property, bool) {
	p, ok := m.props[name]
	return p, ok
}

// HasProperty reports whether name is declared on the Model.
func (m *Model) HasProperty(name string) bool {
	_, ok := m.props[name]
	return ok
}

// hasColumn reports whether name is declared and stored.
func (m *Model) hasColumn(name string) bool {
	p, ok := m.props[name]
	return ok && !p.Type.Virtual()
}

func (m *Model) ready() error {
	if !m.defined {
		return ErrSchemaUndefined
	}
	return nil
}

func (m *Model) bound() error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.exec == nil {
		return ErrNotInitialized
	}
	return nil
}
