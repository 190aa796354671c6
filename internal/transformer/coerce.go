// Package transformer turns raw CSV cells into typed values and assembles
// typed records against a schema.
//
// Coercion never fails: a cell that is missing or does not parse as its
// declared type becomes a null of that type. The per-column work is compiled
// once per run into a Plan so the hot loop does no header lookups.
package transformer

import (
	"strconv"

	"csv2parquet/internal/schema"
)

// coerceFn converts one present raw cell. ok=false means "not parseable".
type coerceFn func(s string) (Value, bool)

// coercers is the dispatch table keyed by schema type.
var coercers = [...]coerceFn{
	schema.TypeLong: func(s string) (Value, bool) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, false
		}
		return Long(v), true
	},
	schema.TypeDouble: func(s string) (Value, bool) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, false
		}
		return Double(v), true
	},
	schema.TypeFloat: func(s string) (Value, bool) {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, false
		}
		return Float(float32(v)), true
	},
	schema.TypeString: func(s string) (Value, bool) {
		if s == "" {
			return Value{}, false
		}
		return String(s), true
	},
}

// lookupCoercer returns the coercer for t, or nil for unsupported types.
func lookupCoercer(t schema.Type) coerceFn {
	if int(t) >= len(coercers) {
		return nil
	}
	return coercers[t]
}

// Coerce converts raw into a Value of type t.
//
// present=false means the cell does not exist in the row (column missing
// from the header or the row is short). Absent cells, unparseable cells and
// empty strings all yield Null(t); callers cannot tell them apart. Float
// overflow (strconv.ErrRange) counts as unparseable. Unsupported types yield
// Null(t) as well.
func Coerce(t schema.Type, raw string, present bool) Value {
	if !present {
		return Null(t)
	}
	fn := lookupCoercer(t)
	if fn == nil {
		return Null(t)
	}
	v, ok := fn(raw)
	if !ok {
		return Null(t)
	}
	return v
}
