package transformer

import (
	"fmt"
	"strconv"

	"csv2parquet/internal/schema"
)

// Value is a typed cell: a schema type tag, a validity bit and the payload
// for that type. The zero Value is an untyped null.
type Value struct {
	typ   schema.Type
	valid bool
	i     int64
	d     float64
	f     float32
	s     string
}

// Null returns a null of type t.
func Null(t schema.Type) Value { return Value{typ: t} }

// Long returns a non-null long.
func Long(v int64) Value { return Value{typ: schema.TypeLong, valid: true, i: v} }

// Double returns a non-null double.
func Double(v float64) Value { return Value{typ: schema.TypeDouble, valid: true, d: v} }

// Float returns a non-null float.
func Float(v float32) Value { return Value{typ: schema.TypeFloat, valid: true, f: v} }

// String returns a non-null string.
func String(v string) Value { return Value{typ: schema.TypeString, valid: true, s: v} }

// Type returns the type tag.
func (v Value) Type() schema.Type { return v.typ }

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return !v.valid }

// Long returns the int64 payload; ok is false for nulls and other types.
func (v Value) Long() (int64, bool) { return v.i, v.valid && v.typ == schema.TypeLong }

// Double returns the float64 payload.
func (v Value) Double() (float64, bool) { return v.d, v.valid && v.typ == schema.TypeDouble }

// Float returns the float32 payload.
func (v Value) Float() (float32, bool) { return v.f, v.valid && v.typ == schema.TypeFloat }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.s, v.valid && v.typ == schema.TypeString }

// Interface returns the payload as int64, float64, float32 or string, or nil
// for a null. This is the representation handed to the columnar writer.
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.typ {
	case schema.TypeLong:
		return v.i
	case schema.TypeDouble:
		return v.d
	case schema.TypeFloat:
		return v.f
	case schema.TypeString:
		return v.s
	}
	return nil
}

// GoString renders v for test failure messages.
func (v Value) GoString() string {
	if !v.valid {
		return fmt.Sprintf("null(%s)", v.typ)
	}
	switch v.typ {
	case schema.TypeLong:
		return strconv.FormatInt(v.i, 10)
	case schema.TypeDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case schema.TypeFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32) + "f"
	case schema.TypeString:
		return strconv.Quote(v.s)
	}
	return "?"
}
