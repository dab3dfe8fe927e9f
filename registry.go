package sqliter

import (
	"fmt"
	"sort"
)

// TypeOptions parameterizes factory types looked up by name.
type TypeOptions struct {
	// Allowed is the allow-list for ARRAY and FLAGS.
	Allowed []any
}

var registry = map[string]func(TypeOptions) Type{
	AutoID.Name():  func(TypeOptions) Type { return AutoID },
	Text.Name():    func(TypeOptions) Type { return Text },
	Enum.Name():    func(TypeOptions) Type { return Enum },
	Integer.Name(): func(TypeOptions) Type { return Integer },
	Real.Name():    func(TypeOptions) Type { return Real },
	Bool.Name():    func(TypeOptions) Type { return Bool },
	Date.Name():    func(TypeOptions) Type { return Date },
	UTCDate.Name(): func(TypeOptions) Type { return UTCDate },
	"ARRAY":        func(o TypeOptions) Type { return Array(ArrayOptions{Allowed: o.Allowed}) },
	"FLAGS":        func(o TypeOptions) Type { return Array(ArrayOptions{Allowed: o.Allowed}) },
}

// LookupType returns the catalog type called name. VIRTUAL is not
// available here because it needs a Go function; use Computed.
func LookupType(name string, opts TypeOptions) (Type, error) {
	factory, ok := registry[name]
	if !ok {
		return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return factory(opts), nil
}

// TypeNames lists the catalog in alphabetical order.
func TypeNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
