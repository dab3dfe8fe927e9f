package sqliter

// wildcard reports whether columns selects every declared property.
func wildcard(columns []string) bool {
	return len(columns) == 0 || (len(columns) == 1 && columns[0] == "*")
}

// resolveColumns expands the wildcard and checks every name is declared.
func (m *Model) resolveColumns(columns []string) ([]string, error) {
	if wildcard(columns) {
		return m.Columns(), nil
	}
	for _, name := range columns {
		if !m.HasProperty(name) {
			return nil, &UnknownPropertyError{Model: m.name, Property: name}
		}
	}
	return columns, nil
}

// PostProcess converts a stored row into a Record holding the requested
// columns. A nil or ["*"] columns selects every declared property. Stored
// columns go through FromStorage; virtual ones are computed from the whole row.
func (m *Model) PostProcess(row Row, columns []string) (Record, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	names, err := m.resolveColumns(columns)
	if err != nil {
		return nil, err
	}
	out := make(Record, len(names))
	for _, name := range names {
		v, err := m.postProcessValue(row, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// PostProcessValue converts a single column of a stored row.
func (m *Model) PostProcessValue(row Row, column string) (any, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	if !m.HasProperty(column) {
		return nil, &UnknownPropertyError{Model: m.name, Property: column}
	}
	return m.postProcessValue(row, column)
}

func (m *Model) postProcessValue(row Row, column string) (any, error) {
	t := m.props[column].Type
	if t.Virtual() {
		return t.Compute(row), nil
	}
	return t.FromStorage(row[column])
}

// PreProcess returns a copy of obj with every declared property converted to
// its stored form and every virtual property removed. Undeclared keys are
// copied unchanged; the validation gate rejects them before any write.
func (m *Model) PreProcess(obj Record) (Record, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	out := make(Record, len(obj))
	for k, v := range obj {
		p, ok := m.props[k]
		if !ok {
			out[k] = v
			continue
		}
		if p.Type.Virtual() {
			continue
		}
		stored, err := p.Type.ToStorage(v)
		if err != nil {
			return nil, &ValidationError{Model: m.name, Properties: []string{k}, Reason: "conversion failed", cause: err}
		}
		out[k] = stored
	}
	return out, nil
}
