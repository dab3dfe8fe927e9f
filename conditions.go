package sqliter

import (
	"fmt"
	"strings"
)

// Comparison operators accepted in a where entry.
const (
	OpEq  = "="
	OpNeq = "<>"
	OpLt  = "<"
	OpLte = "<="
	OpGt  = ">"
	OpGte = ">="
)

// twoCharOps are tried before their one-character prefixes.
var twoCharOps = []string{OpLte, OpGte, OpNeq}

// Condition is one parsed binary comparison of a where entry.
// It is a sealed value type constructed via ParseCondition or the helper functions.
type Condition struct {
	field    string
	operator string
	value    any
}

func (c Condition) Field() string    { return c.field }
func (c Condition) Operator() string { return c.operator }
func (c Condition) Value() any       { return c.value }

// String renders the raw where entry, e.g. "age >= 18".
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.field, c.operator, c.value)
}

// ParseCondition splits a raw "<field><op><value>" entry at its earliest
// operator. At that position a two-character operator wins over its
// one-character prefix. Field and value are trimmed. ok is false when the
// entry has no operator or no field.
func ParseCondition(raw string) (c Condition, ok bool) {
	idx := strings.IndexAny(raw, "<=>")
	if idx < 0 {
		return Condition{}, false
	}
	op := raw[idx : idx+1]
	for _, candidate := range twoCharOps {
		if strings.HasPrefix(raw[idx:], candidate) {
			op = candidate
			break
		}
	}
	field := strings.TrimSpace(raw[:idx])
	if field == "" {
		return Condition{}, false
	}
	return Condition{
		field:    field,
		operator: op,
		value:    strings.TrimSpace(raw[idx+len(op):]),
	}, true
}

// The helpers below build typed conditions for Args.Match. The value is kept
// as given and converted by the property's Type when the clause is built.

// Eq creates a condition for checking equality.
func Eq(field string, value any) Condition {
	return Condition{field: field, operator: OpEq, value: value}
}

// Neq creates a condition for checking inequality.
func Neq(field string, value any) Condition {
	return Condition{field: field, operator: OpNeq, value: value}
}

// Gt creates a condition for checking if a value is greater than another.
func Gt(field string, value any) Condition {
	return Condition{field: field, operator: OpGt, value: value}
}

// Gte creates a condition for checking if a value is greater than or equal to another.
func Gte(field string, value any) Condition {
	return Condition{field: field, operator: OpGte, value: value}
}

// Lt creates a condition for checking if a value is less than another.
func Lt(field string, value any) Condition {
	return Condition{field: field, operator: OpLt, value: value}
}

// Lte creates a condition for checking if a value is less than or equal to another.
func Lte(field string, value any) Condition {
	return Condition{field: field, operator: OpLte, value: value}
}
