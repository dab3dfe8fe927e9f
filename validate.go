package sqliter

import "sort"

// BadProps lists the keys of obj that are undeclared or fail their type's
// predicate: declared ones in column order, then unknown ones sorted.
// Virtual keys are declared and never checked.
func (m *Model) BadProps(obj Record) []string {
	var bad []string
	for _, name := range m.order {
		v, ok := obj[name]
		if !ok {
			continue
		}
		t := m.props[name].Type
		if t.Virtual() {
			continue
		}
		if !t.Valid(v) {
			bad = append(bad, name)
		}
	}
	var unknown []string
	for k := range obj {
		if !m.HasProperty(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return append(bad, unknown...)
}

// Verify reports whether every key of obj is declared and valid.
func (m *Model) Verify(obj Record) bool {
	bad := m.BadProps(obj)
	if len(bad) > 0 {
		m.logger.Debug("record rejected", "model", m.name, "properties", bad)
		return false
	}
	return true
}

func (m *Model) validate(obj Record) error {
	if bad := m.BadProps(obj); len(bad) > 0 {
		m.logger.Debug("record rejected", "model", m.name, "properties", bad)
		return &ValidationError{Model: m.name, Properties: bad, Reason: "invalid properties"}
	}
	return nil
}
