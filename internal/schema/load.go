package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// nameRE is the Avro name grammar; field names also become Parquet column
// names and must not contain tag separators.
var nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadFile opens path and loads the schema it contains.
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses an Avro-style record definition:
//
//	{
//	  "type": "record",
//	  "name": "trip",
//	  "fields": [
//	    { "name": "id",   "type": "long" },
//	    { "name": "note", "type": ["null", "string"] }
//	  ]
//	}
//
// JSON documents are decoded with encoding/json; anything else is decoded as
// YAML, so the same definition may be written in YAML block style.
//
// Document-level problems return a *SchemaError of KindMalformed. A field
// whose type does not resolve to long, double, float or string is logged,
// recorded in Schema.Skipped and left out of the result.
func Load(r io.Reader) (*Schema, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	tree, err := decodeTree(raw)
	if err != nil {
		return nil, err
	}
	return fromTree(tree)
}

// decodeTree turns raw text into a generic key/value tree.
func decodeTree(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, malformed("empty document")
	}

	var tree any
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &tree); err != nil {
			return nil, malformed("decode json: %v", err)
		}
		return tree, nil
	}
	if err := yaml.Unmarshal(trimmed, &tree); err != nil {
		return nil, malformed("decode yaml: %v", err)
	}
	return tree, nil
}

func fromTree(tree any) (*Schema, error) {
	doc, ok := tree.(map[string]any)
	if !ok {
		return nil, malformed("top level is %s, want an object", describe(tree))
	}
	if t, present := doc["type"]; present {
		if ts, _ := t.(string); ts != "record" {
			return nil, malformed("top-level type is %v, want \"record\"", t)
		}
	}
	name, _ := doc["name"].(string)

	rawFields, present := doc["fields"]
	if !present {
		return nil, malformed("missing \"fields\"")
	}
	list, ok := rawFields.([]any)
	if !ok {
		return nil, malformed("\"fields\" is %s, want a list", describe(rawFields))
	}

	fields := make([]Field, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	var skipped []*SchemaError

	for i, rf := range list {
		fm, ok := rf.(map[string]any)
		if !ok {
			return nil, malformed("fields[%d] is %s, want an object", i, describe(rf))
		}
		fname, _ := fm["name"].(string)
		if fname == "" {
			return nil, malformed("fields[%d] has no name", i)
		}
		if !nameRE.MatchString(fname) {
			return nil, malformed("fields[%d] has invalid name %q", i, fname)
		}
		if _, dup := seen[fname]; dup {
			return nil, malformed("duplicate field name %q", fname)
		}
		seen[fname] = struct{}{}

		typ, nullable, serr := resolve(fname, fm["type"])
		if serr != nil {
			log.Printf("schema: skipping field: %v", serr)
			skipped = append(skipped, serr)
			continue
		}
		fields = append(fields, Field{Name: fname, Type: typ, Nullable: nullable})
	}

	s := New(name, fields)
	s.Skipped = skipped
	return s, nil
}

// resolve determines the effective scalar type of a field declaration.
//
// A two-branch union uses its second branch and marks the field nullable.
// This is a positional rule of the schema format (["null", T]); it does not
// search the branches for a non-null type.
func resolve(field string, decl any) (Type, bool, *SchemaError) {
	if union, ok := decl.([]any); ok {
		if len(union) != 2 {
			return TypeUnknown, false, unsupported(field, "union with %d branches", len(union))
		}
		t, err := primitive(field, union[1])
		if err != nil {
			return TypeUnknown, false, err
		}
		return t, true, nil
	}
	t, err := primitive(field, decl)
	return t, false, err
}

// primitive resolves a bare type name or an object with a primitive "type".
func primitive(field string, decl any) (Type, *SchemaError) {
	switch v := decl.(type) {
	case string:
		if t, ok := ParseType(v); ok {
			return t, nil
		}
		return TypeUnknown, unsupported(field, "type %q", v)
	case map[string]any:
		name, ok := v["type"].(string)
		if !ok {
			return TypeUnknown, unsupported(field, "complex type %v", v["type"])
		}
		if t, ok := ParseType(name); ok {
			return t, nil
		}
		return TypeUnknown, unsupported(field, "type %q", name)
	case nil:
		return TypeUnknown, unsupported(field, "missing type")
	default:
		return TypeUnknown, unsupported(field, "type declaration %s", describe(decl))
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
