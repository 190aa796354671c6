// Package schema models the record schema that drives a conversion run and
// loads it from an Avro-style record definition.
//
// A schema is an ordered list of named scalar fields. Field order is the
// positional order used when building output records and when declaring the
// Parquet columns; names are unique.
package schema

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Type enumerates the scalar types a field may declare.
type Type uint8

const (
	// TypeUnknown is the zero value; it never appears in a loaded Schema.
	TypeUnknown Type = iota
	// TypeLong is a 64-bit signed integer (Avro "long").
	TypeLong
	// TypeDouble is a double-precision float (Avro "double").
	TypeDouble
	// TypeFloat is a single-precision float (Avro "float").
	TypeFloat
	// TypeString is UTF-8 text (Avro "string").
	TypeString
)

// String returns the Avro primitive name of t.
func (t Type) String() string {
	switch t {
	case TypeLong:
		return "long"
	case TypeDouble:
		return "double"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Supported reports whether t is one of the four convertible scalars.
func (t Type) Supported() bool {
	return t >= TypeLong && t <= TypeString
}

// ParseType maps an Avro primitive name onto a Type. Names outside the four
// supported scalars return (TypeUnknown, false).
func ParseType(name string) (Type, bool) {
	switch strings.TrimSpace(name) {
	case "long":
		return TypeLong, true
	case "double":
		return TypeDouble, true
	case "float":
		return TypeFloat, true
	case "string":
		return TypeString, true
	default:
		return TypeUnknown, false
	}
}

// Field is a single named, typed column.
type Field struct {
	Name string
	Type Type
	// Nullable is set when the declared type was a two-branch union
	// (e.g. ["null","long"]).
	Nullable bool
}

// Schema is the resolved, read-only schema of one run.
type Schema struct {
	// Name is the record name from the definition (may be empty).
	Name   string
	Fields []Field

	// Skipped lists fields dropped at load time because their declared type
	// is not supported. They are informational only.
	Skipped []*SchemaError

	index map[string]int
}

// New builds a Schema from fields, indexing them by name. Callers are
// responsible for name uniqueness; Load enforces it.
func New(name string, fields []Field) *Schema {
	s := &Schema{Name: name, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.Fields) }

// Lookup returns the field with the given name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Names returns field names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Fingerprint returns a stable hash of the resolved field list (name, type
// and nullability, in order). Two schema files that resolve to the same
// fields share a fingerprint.
func (s *Schema) Fingerprint() uint64 {
	var b strings.Builder
	for _, f := range s.Fields {
		b.WriteString(f.Name)
		b.WriteByte(0)
		b.WriteString(f.Type.String())
		b.WriteByte(0)
		b.WriteString(strconv.FormatBool(f.Nullable))
		b.WriteByte('\n')
	}
	return xxh3.HashString(b.String())
}
