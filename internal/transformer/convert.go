package transformer

import (
	"log"
	"strings"

	"golang.org/x/text/unicode/norm"

	"csv2parquet/internal/schema"
)

// utf8BOM may prefix the first header cell of files saved by spreadsheet tools.
const utf8BOM = "\uFEFF"

// Record is one typed output row. Values are held in schema order; a field
// that was skipped during conversion is left as an untyped null and reported
// as unset by Get.
type Record struct {
	names  []string
	values []Value
	set    []bool
}

// Len returns the number of schema fields.
func (r Record) Len() int { return len(r.values) }

// Values returns the typed values in schema order.
func (r Record) Values() []Value { return r.values }

// Get returns the value for the named field; ok is false when the field is
// unknown or was not populated.
func (r Record) Get(name string) (Value, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], r.set[i]
		}
	}
	return Value{}, false
}

// Row returns the record as Go values aligned to schema order, nil for nulls.
// This is the shape the Parquet writer consumes.
func (r Record) Row() []any {
	out := make([]any, len(r.values))
	for i, v := range r.values {
		out[i] = v.Interface()
	}
	return out
}

// Map returns populated fields as name -> Go value (nil for nulls).
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for i, n := range r.names {
		if r.set[i] {
			out[n] = r.values[i].Interface()
		}
	}
	return out
}

// colPlan is the precompiled conversion of one schema field.
type colPlan struct {
	name   string
	typ    schema.Type
	src    int // header position, -1 when the column is missing
	coerce coerceFn
}

// Plan converts raw rows sharing one header into typed Records.
type Plan struct {
	cols    []colPlan
	names   []string
	missing []string
}

// Compile builds a Plan for schema s against the input header. Header and
// field names are matched after trimming edge space, dropping a leading BOM
// and NFC normalization; the first occurrence of a repeated header wins.
func Compile(s *schema.Schema, header []string) *Plan {
	srcIdx := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = canonical(h)
		if _, dup := srcIdx[h]; dup {
			continue
		}
		srcIdx[h] = i
	}

	p := &Plan{
		cols:  make([]colPlan, len(s.Fields)),
		names: make([]string, len(s.Fields)),
	}
	for i, f := range s.Fields {
		src, ok := srcIdx[canonical(f.Name)]
		if !ok {
			src = -1
			p.missing = append(p.missing, f.Name)
		}
		p.cols[i] = colPlan{name: f.Name, typ: f.Type, src: src, coerce: lookupCoercer(f.Type)}
		p.names[i] = f.Name
	}
	return p
}

// Missing lists schema fields that have no column in the header. Those
// fields are null in every record.
func (p *Plan) Missing() []string { return p.missing }

// Convert builds the typed Record for one raw row. A field whose column is
// missing, or whose position is past the end of a short row, is treated as
// absent. A field with an unsupported type is logged and left unset.
func (p *Plan) Convert(row []string) Record {
	rec := Record{
		names:  p.names,
		values: make([]Value, len(p.cols)),
		set:    make([]bool, len(p.cols)),
	}
	for i, c := range p.cols {
		if c.coerce == nil {
			log.Printf("transform: unknown data type %s for field %q; skipping", c.typ, c.name)
			continue
		}
		raw, present := "", false
		if c.src >= 0 && c.src < len(row) {
			raw, present = row[c.src], true
		}
		rec.values[i] = Coerce(c.typ, raw, present)
		rec.set[i] = true
	}
	return rec
}

// Convert is a one-shot helper: it compiles a Plan for header and converts
// a single row. Streaming callers should Compile once instead.
func Convert(s *schema.Schema, header, row []string) Record {
	return Compile(s, header).Convert(row)
}

// canonical normalizes a column or field name for matching.
func canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
