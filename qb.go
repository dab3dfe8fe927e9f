package sqliter

import "strings"

// Args narrows a Select, Update or Delete.
// A nil *Args means no filtering, ordering or paging.
type Args struct {
	// Where holds raw "<field><op><value>" entries combined with AND.
	// Their values are bound as the text after the operator.
	Where []string
	// Conds holds typed conditions, ANDed after Where. Their values are
	// converted with the property's Type before binding, so Eq("done", true)
	// matches a stored BOOL.
	Conds []Condition
	// Order is "<field> ASC" or "<field> DESC".
	Order string
	// Limit and Offset are ignored when nil or negative.
	Limit  *int
	Offset *int
}

// Where starts an Args with the given where entries.
func Where(conds ...string) *Args {
	return (&Args{}).And(conds...)
}

// Match starts an Args with the given conditions.
func Match(conds ...Condition) *Args {
	return (&Args{}).Match(conds...)
}

// And adds raw where entries.
func (a *Args) And(conds ...string) *Args {
	a.Where = append(a.Where, conds...)
	return a
}

// Match adds typed conditions.
func (a *Args) Match(conds ...Condition) *Args {
	a.Conds = append(a.Conds, conds...)
	return a
}

// OrderBy sets the ordering.
func (a *Args) OrderBy(field, dir string) *Args {
	a.Order = field + " " + strings.ToUpper(dir)
	return a
}

// Take sets the limit.
func (a *Args) Take(n int) *Args {
	a.Limit = &n
	return a
}

// Skip sets the offset.
func (a *Args) Skip(n int) *Args {
	a.Offset = &n
	return a
}
