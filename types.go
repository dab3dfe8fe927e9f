package sqliter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// isoLayout matches the ISO-8601 rendering used for dates read from storage.
const isoLayout = "2006-01-02T15:04:05.000Z"

// dateLayouts are the string forms a Date value may be written with.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Type is an immutable descriptor telling the Model how to validate,
// serialize and deserialize one kind of value.
// It is a sealed value type constructed via NewType or the built-in catalog.
type Type struct {
	name        string
	class       StorageClass
	decorators  []Decorator
	toStorage   func(v any) (any, error)
	fromStorage func(v any) (any, error)
	check       func(v any) bool
	compute     func(row Row) any
}

// TypeOption configures a Type built with NewType.
type TypeOption func(*Type)

// WithDecorators appends column constraints.
func WithDecorators(d ...Decorator) TypeOption {
	return func(t *Type) { t.decorators = append(t.decorators, d...) }
}

// WithToStorage sets the application to storage conversion.
func WithToStorage(fn func(v any) (any, error)) TypeOption {
	return func(t *Type) { t.toStorage = fn }
}

// WithFromStorage sets the storage to application conversion.
func WithFromStorage(fn func(v any) (any, error)) TypeOption {
	return func(t *Type) { t.fromStorage = fn }
}

// WithCheck sets the validity predicate.
func WithCheck(fn func(v any) bool) TypeOption {
	return func(t *Type) { t.check = fn }
}

// NewType builds a custom descriptor.
func NewType(name string, class StorageClass, opts ...TypeOption) Type {
	t := Type{name: name, class: class}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func (t Type) Name() string        { return t.name }
func (t Type) Class() StorageClass { return t.class }
func (t Type) Virtual() bool       { return t.class == ClassVirtual }

// Decorators returns a copy of the column constraints.
func (t Type) Decorators() []Decorator {
	return append([]Decorator(nil), t.decorators...)
}

// Valid reports whether v is acceptable input. Types without a predicate accept anything.
func (t Type) Valid(v any) (ok bool) {
	if t.check == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return t.check(v)
}

// ToStorage converts an application value into its stored form.
func (t Type) ToStorage(v any) (any, error) {
	if t.toStorage == nil {
		return v, nil
	}
	return t.toStorage(v)
}

// FromStorage converts a stored value back into its application form.
func (t Type) FromStorage(v any) (any, error) {
	if t.fromStorage == nil {
		return v, nil
	}
	return t.fromStorage(v)
}

// Compute derives a virtual value from the whole stored row.
// It returns nil for non-virtual types.
func (t Type) Compute(row Row) any {
	if t.compute == nil {
		return nil
	}
	return t.compute(row)
}

// Built-in catalog.
var (
	// AutoID is the engine-managed identifier injected into every Model.
	AutoID = NewType("AUTO_ID", ClassInteger,
		WithDecorators(DecoratorPrimaryKey, DecoratorAutoIncrement),
		WithCheck(isInteger),
	)

	Text = NewType("TEXT", ClassText, WithCheck(isString))

	// Enum shares the Text contract; the name only documents intent.
	Enum = NewType("ENUM", ClassText, WithCheck(isString))

	Integer = NewType("INTEGER", ClassInteger,
		WithToStorage(func(v any) (any, error) {
			if v == nil {
				return nil, nil
			}
			return parseInt(v)
		}),
		WithCheck(func(v any) bool {
			_, err := parseInt(v)
			return err == nil
		}),
	)

	Real = NewType("REAL", ClassReal,
		WithToStorage(func(v any) (any, error) {
			if v == nil {
				return nil, nil
			}
			return parseFloat(v)
		}),
		WithCheck(func(v any) bool {
			_, err := parseFloat(v)
			return err == nil
		}),
	)

	Bool = NewType("BOOL", ClassInteger,
		WithToStorage(func(v any) (any, error) {
			if truthy(v) {
				return int64(1), nil
			}
			return int64(0), nil
		}),
		WithFromStorage(func(v any) (any, error) {
			n, err := parseInt(v)
			if err != nil {
				return v == true, nil
			}
			return n == 1, nil
		}),
		WithCheck(func(v any) bool {
			_, ok := v.(bool)
			return ok
		}),
	)

	// Date stores epoch milliseconds and reads back an ISO-8601 UTC string.
	Date = newDate("ISO_DATE")

	// UTCDate is an alias of Date kept for schemas that name it explicitly.
	UTCDate = newDate("UTC_DATE")
)

func newDate(name string) Type {
	return NewType(name, ClassInteger,
		WithToStorage(func(v any) (any, error) {
			if v == nil {
				return nil, nil
			}
			ts, err := parseTime(v)
			if err != nil {
				return nil, err
			}
			return ts.UnixMilli(), nil
		}),
		WithFromStorage(func(v any) (any, error) {
			if v == nil {
				return nil, nil
			}
			ms, err := parseInt(v)
			if err != nil {
				return nil, fmt.Errorf("decoding date %v: %w", v, err)
			}
			return time.UnixMilli(ms).UTC().Format(isoLayout), nil
		}),
		WithCheck(func(v any) bool {
			_, err := parseTime(v)
			return err == nil
		}),
	)
}

// ArrayOptions restricts the Array type.
type ArrayOptions struct {
	// Allowed, when not empty, is the only set of values elements may take.
	Allowed []any
}

// Array returns a descriptor storing a sequence as JSON text.
// With an allow-list the descriptor is named FLAGS.
func Array(opts ArrayOptions) Type {
	name := "ARRAY"
	allowed := append([]any(nil), opts.Allowed...)
	if len(allowed) > 0 {
		name = "FLAGS"
	}
	return NewType(name, ClassText,
		WithToStorage(func(v any) (any, error) {
			if isNil(v) {
				return "[]", nil
			}
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encoding array: %w", err)
			}
			return string(b), nil
		}),
		WithFromStorage(func(v any) (any, error) {
			var raw string
			switch s := v.(type) {
			case nil:
				return []any{}, nil
			case string:
				raw = s
			case []byte:
				raw = string(s)
			default:
				return nil, fmt.Errorf("decoding array: unexpected stored type %T", v)
			}
			if strings.TrimSpace(raw) == "" {
				return []any{}, nil
			}
			out := []any{}
			if err := json.Unmarshal([]byte(raw), &out); err != nil {
				return nil, fmt.Errorf("decoding array: %w", err)
			}
			return out, nil
		}),
		WithCheck(func(v any) bool {
			rv := reflect.ValueOf(v)
			if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
				return false
			}
			if len(allowed) == 0 {
				return true
			}
			for i := 0; i < rv.Len(); i++ {
				if !containsValue(allowed, rv.Index(i).Interface()) {
					return false
				}
			}
			return true
		}),
	)
}

// Computed returns a read-only virtual descriptor whose value is fn applied to the stored row.
func Computed(fn func(row Row) any) Type {
	t := NewType("VIRTUAL", ClassVirtual)
	t.compute = fn
	return t
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		_, err := truncInt(float64(n))
		return err == nil && float64(n) == math.Trunc(float64(n))
	case float64:
		_, err := truncInt(n)
		return err == nil && n == math.Trunc(n)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// truthy mirrors the loose notion of truth used when encoding booleans.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	}
	if f, err := parseFloat(v); err == nil {
		return f != 0
	}
	return !isNil(v)
}

func parseInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	case string:
		return parseIntString(n)
	case []byte:
		return parseIntString(string(n))
	case json.Number:
		return parseIntString(n.String())
	}
	f, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	return truncInt(f)
}

func parseIntString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return truncInt(f)
}

// truncInt drops the fraction of f. Values outside the int64 range are
// rejected; converting them is implementation-defined.
func truncInt(f float64) (int64, error) {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("integer out of range: %v", f)
	}
	return int64(math.Trunc(f)), nil
}

func parseFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float32:
		f = float64(n)
	case float64:
		f = n
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		i, err := parseInt(n)
		if err != nil {
			return 0, err
		}
		f = float64(i)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		f = p
	case []byte:
		return parseFloat(string(n))
	case json.Number:
		return parseFloat(n.String())
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("not a number: NaN")
	}
	return f, nil
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid date: %q", t)
	case bool, nil:
		return time.Time{}, fmt.Errorf("invalid date: %v", v)
	}
	ms, err := parseInt(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// containsValue compares numbers by value so JSON-decoded float64 elements
// still match integer allow-list entries.
func containsValue(list []any, v any) bool {
	for _, candidate := range list {
		if reflect.DeepEqual(candidate, v) {
			return true
		}
		a, errA := parseFloat(candidate)
		b, errB := parseFloat(v)
		if errA == nil && errB == nil && isNumber(candidate) && isNumber(v) && a == b {
			return true
		}
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}
