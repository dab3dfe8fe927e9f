package sqliter

import (
	"strconv"
	"strings"
)

// Clause is the WHERE/ORDER BY/LIMIT/OFFSET fragment of a statement
// together with the values bound to its placeholders, in order.
type Clause struct {
	SQL    string
	Params []any
	// Conditions counts the where entries that made it into SQL.
	Conditions int
}

// BuildClause assembles the narrowing clause for args.
//
// Where entries that do not parse are skipped. A parsed field must name a
// stored property because it is written into the SQL text; its value is
// always bound. Typed Conds follow Where and bind their value in stored
// form. Order is applied only for a stored property and an ASC or DESC
// direction, and negative Limit or Offset values are ignored.
func (m *Model) BuildClause(args *Args) (Clause, error) {
	var clause Clause
	if args == nil {
		return clause, nil
	}
	if err := m.ready(); err != nil {
		return clause, err
	}

	var parts []string

	var relations []string
	for _, raw := range args.Where {
		cond, ok := ParseCondition(raw)
		if !ok {
			m.logger.Debug("skipping malformed where entry", "model", m.name, "entry", raw)
			continue
		}
		if !m.hasColumn(cond.field) {
			return Clause{}, &UnknownPropertyError{Model: m.name, Property: cond.field}
		}
		relations = append(relations, cond.field+" "+cond.operator+" (?)")
		clause.Params = append(clause.Params, cond.value)
	}
	for _, cond := range args.Conds {
		if cond.field == "" || cond.operator == "" {
			m.logger.Debug("skipping empty condition", "model", m.name)
			continue
		}
		if !m.hasColumn(cond.field) {
			return Clause{}, &UnknownPropertyError{Model: m.name, Property: cond.field}
		}
		v, err := m.props[cond.field].Type.ToStorage(cond.value)
		if err != nil {
			return Clause{}, &ValidationError{Model: m.name, Properties: []string{cond.field}, Reason: "condition value", cause: err}
		}
		relations = append(relations, cond.field+" "+cond.operator+" (?)")
		clause.Params = append(clause.Params, v)
	}
	if len(relations) > 0 {
		parts = append(parts, "WHERE "+strings.Join(relations, " AND "))
		clause.Conditions = len(relations)
	}

	if order := m.orderClause(args.Order); order != "" {
		parts = append(parts, order)
	}

	hasLimit := args.Limit != nil && *args.Limit >= 0
	hasOffset := args.Offset != nil && *args.Offset >= 0
	if hasLimit {
		parts = append(parts, "LIMIT "+strconv.Itoa(*args.Limit))
	} else if hasOffset {
		// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
		parts = append(parts, "LIMIT -1")
	}
	if hasOffset {
		parts = append(parts, "OFFSET "+strconv.Itoa(*args.Offset))
	}

	clause.SQL = strings.Join(parts, " ")
	return clause, nil
}

func (m *Model) orderClause(order string) string {
	fields := strings.Fields(order)
	if len(fields) != 2 || !m.hasColumn(fields[0]) {
		return ""
	}
	dir := strings.ToUpper(fields[1])
	if dir != "ASC" && dir != "DESC" {
		return ""
	}
	return "ORDER BY " + fields[0] + " " + dir
}
