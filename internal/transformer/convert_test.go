package transformer

import (
	"reflect"
	"testing"

	"csv2parquet/internal/schema"
)

func twoFieldSchema() *schema.Schema {
	return schema.New("r", []schema.Field{
		{Name: "f1", Type: schema.TypeString},
		{Name: "f2", Type: schema.TypeLong, Nullable: true},
	})
}

func TestPlanConvert_RoundTrip(t *testing.T) {
	t.Parallel()

	p := Compile(twoFieldSchema(), []string{"f1", "f2"})

	rows := [][]string{{"a", "1"}, {"b", "x"}}
	want := []map[string]any{
		{"f1": "a", "f2": int64(1)},
		{"f1": "b", "f2": nil},
	}

	for i, row := range rows {
		got := p.Convert(row).Map()
		if !reflect.DeepEqual(got, want[i]) {
			t.Fatalf("row %d: Convert = %#v, want %#v", i, got, want[i])
		}
	}
}

func TestPlanConvert_LooksUpByHeaderPosition(t *testing.T) {
	t.Parallel()

	// Header order differs from schema order.
	p := Compile(twoFieldSchema(), []string{"extra", "f2", "f1"})
	rec := p.Convert([]string{"ignored", "7", "text"})

	if got := rec.Row(); !reflect.DeepEqual(got, []any{"text", int64(7)}) {
		t.Fatalf("Row = %#v, want [text 7]", got)
	}
}

func TestPlanConvert_MissingHeaderColumnIsNull(t *testing.T) {
	t.Parallel()

	s := schema.New("r", []schema.Field{
		{Name: "f1", Type: schema.TypeString},
		{Name: "gone", Type: schema.TypeDouble},
	})
	p := Compile(s, []string{"f1", "other"})

	if got := p.Missing(); !reflect.DeepEqual(got, []string{"gone"}) {
		t.Fatalf("Missing = %v, want [gone]", got)
	}

	for _, row := range [][]string{{"a", "1.5"}, {"b", "2.5"}, {"", ""}} {
		rec := p.Convert(row)
		v, ok := rec.Get("gone")
		if !ok || !v.IsNull() {
			t.Fatalf("gone = %#v (set=%v), want null", v, ok)
		}
		f1, _ := rec.Get("f1")
		if row[0] == "" {
			if !f1.IsNull() {
				t.Fatalf("f1 = %#v, want null for empty text", f1)
			}
			continue
		}
		if s, ok := f1.Str(); !ok || s != row[0] {
			t.Fatalf("f1 = %#v, want %q", f1, row[0])
		}
	}
}

func TestPlanConvert_ShortRowIsAbsent(t *testing.T) {
	t.Parallel()

	p := Compile(twoFieldSchema(), []string{"f1", "f2"})
	rec := p.Convert([]string{"only"})

	want := map[string]any{"f1": "only", "f2": nil}
	if got := rec.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Map = %#v, want %#v", got, want)
	}
}

func TestCompile_HeaderMatching(t *testing.T) {
	t.Parallel()

	s := schema.New("r", []schema.Field{
		{Name: "id", Type: schema.TypeLong},
		{Name: "caf\u00e9", Type: schema.TypeString},
	})
	// BOM on the first cell, edge spaces and a decomposed "é" (e + U+0301).
	header := []string{"\uFEFFid", " cafe\u0301 ", "id"}
	p := Compile(s, header)

	if len(p.Missing()) != 0 {
		t.Fatalf("Missing = %v, want none", p.Missing())
	}
	rec := p.Convert([]string{"5", "espresso", "9"})
	if got := rec.Row(); !reflect.DeepEqual(got, []any{int64(5), "espresso"}) {
		t.Fatalf("Row = %#v; first duplicate header must win", got)
	}
}

func TestPlanConvert_UnsupportedFieldIsSkipped(t *testing.T) {
	t.Parallel()

	s := schema.New("r", []schema.Field{
		{Name: "odd", Type: schema.TypeUnknown},
		{Name: "n", Type: schema.TypeLong},
	})
	rec := Compile(s, []string{"odd", "n"}).Convert([]string{"v", "3"})

	if _, ok := rec.Get("odd"); ok {
		t.Fatalf("unsupported field must be left unset")
	}
	if got := rec.Map(); !reflect.DeepEqual(got, map[string]any{"n": int64(3)}) {
		t.Fatalf("Map = %#v", got)
	}
	if rec.Len() != 2 {
		t.Fatalf("Len = %d, want 2", rec.Len())
	}
}

func TestConvert_OneShot(t *testing.T) {
	t.Parallel()

	rec := Convert(twoFieldSchema(), []string{"f2", "f1"}, []string{"12.5", "z"})
	want := map[string]any{"f1": "z", "f2": nil}
	if got := rec.Map(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Map = %#v, want %#v", got, want)
	}
}
