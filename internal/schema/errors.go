package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors matched through errors.Is on a *SchemaError.
var (
	// ErrMalformed reports a schema document that cannot be parsed or is not
	// a record definition. It is fatal to a run.
	ErrMalformed = errors.New("malformed schema")

	// ErrUnsupportedType reports a field whose declared type does not resolve
	// to one of the supported scalars. The field is dropped; loading goes on.
	ErrUnsupportedType = errors.New("unsupported field type")
)

// ErrorKind classifies a SchemaError.
type ErrorKind int

const (
	KindMalformed ErrorKind = iota + 1
	KindUnsupportedType
)

// SchemaError is returned (or collected in Schema.Skipped) by the loader.
type SchemaError struct {
	Kind ErrorKind
	// Field is the offending field name, empty for document-level errors.
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	var kind string
	switch e.Kind {
	case KindMalformed:
		kind = ErrMalformed.Error()
	case KindUnsupportedType:
		kind = ErrUnsupportedType.Error()
	default:
		kind = "schema error"
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %v", kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", kind, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels.
func (e *SchemaError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Kind == KindMalformed
	case ErrUnsupportedType:
		return e.Kind == KindUnsupportedType
	}
	return false
}

func malformed(format string, a ...any) *SchemaError {
	return &SchemaError{Kind: KindMalformed, Err: fmt.Errorf(format, a...)}
}

func unsupported(field string, format string, a ...any) *SchemaError {
	return &SchemaError{Kind: KindUnsupportedType, Field: field, Err: fmt.Errorf(format, a...)}
}
