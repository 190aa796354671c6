package probe

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"csv2parquet/internal/datasource/file"
	"csv2parquet/internal/schema"
)

// memSource serves a fixed byte slice.
type memSource struct {
	data []byte
}

func (m *memSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

//
// ---- readCSVSample / helpers -----------------------------------------------
//

// TestReadCSVSample_SkipMalformedAndWidth ensures rows with wrong field counts
// are skipped, while good rows are returned at header width.
func TestReadCSVSample_SkipMalformedAndWidth(t *testing.T) {
	t.Parallel()

	csv := "" +
		"a,b,c\n" +
		"1,2,3\n" + // good
		"4,5\n" + // short -> skipped
		"9,10,11\n" // good

	headers, rows := readCSVSample([]byte(csv), ',', 0)
	if got, want := strings.Join(headers, "|"), "a|b|c"; got != want {
		t.Fatalf("headers=%q; want %q", got, want)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows)=%d; want 2", len(rows))
	}
	for i, r := range rows {
		if len(r) != len(headers) {
			t.Fatalf("row %d width=%d; want %d", i, len(r), len(headers))
		}
	}
}

func TestReadCSVSample_MaxRows(t *testing.T) {
	t.Parallel()

	_, rows := readCSVSample([]byte("a\n1\n2\n3\n"), ',', 2)
	if len(rows) != 2 {
		t.Fatalf("len(rows)=%d; want 2", len(rows))
	}
}

// TestStripUTF8BOM verifies BOM removal from the first header cell.
func TestStripUTF8BOM(t *testing.T) {
	t.Parallel()
	got := stripUTF8BOM([]string{"\uFEFFname", " age "})
	if !reflect.DeepEqual(got, []string{"name", "age"}) {
		t.Fatalf("stripUTF8BOM = %q", got)
	}
}

func TestCutToLastNewline(t *testing.T) {
	t.Parallel()
	if got := string(cutToLastNewline([]byte("a,b\n1,2\n3,"))); got != "a,b\n1,2\n" {
		t.Fatalf("cutToLastNewline = %q", got)
	}
	if got := string(cutToLastNewline([]byte("a,b"))); got != "a,b" {
		t.Fatalf("cutToLastNewline without newline = %q", got)
	}
}

//
// ---- inference ---------------------------------------------------------------
//

func TestInferType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		vals []string
		want schema.Type
	}{
		{nil, schema.TypeString},
		{[]string{"1", "-2", "30"}, schema.TypeLong},
		{[]string{"1", "2.5", "1e3"}, schema.TypeDouble},
		{[]string{"1", "x"}, schema.TypeString},
		{[]string{"99999999999999999999"}, schema.TypeDouble},
		{[]string{"true", "false"}, schema.TypeString},
	}
	for _, c := range cases {
		if got := inferType(c.vals); got != c.want {
			t.Errorf("inferType(%q) = %s, want %s", c.vals, got, c.want)
		}
	}
}

func TestNormalizeFieldName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Jméno Řidiče":  "jmeno_ridice",
		"  Datum-od.  ": "datum_od",
		"2024 total":    "_2024_total",
		"%%%":           "col",
		"already_ok":    "already_ok",
		"a -- b":        "a_b",
	}
	for in, want := range cases {
		if got := normalizeFieldName(in); got != want {
			t.Errorf("normalizeFieldName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInferColumns_NamesAndNullability(t *testing.T) {
	t.Parallel()

	headers := []string{"ID", "fare", "id", "Město"}
	rows := [][]string{
		{"1", "2.5", "7", "Brno"},
		{"2", "", "8", "Praha"},
	}
	cols := inferColumns(headers, rows)

	want := []column{
		{header: "ID", name: "ID", typ: schema.TypeLong},
		{header: "fare", name: "fare", typ: schema.TypeDouble, nullable: true},
		{header: "id", name: "id_2", typ: schema.TypeLong},
		{header: "Město", name: "mesto", typ: schema.TypeString},
	}
	if !reflect.DeepEqual(cols, want) {
		t.Fatalf("inferColumns = %#v\nwant %#v", cols, want)
	}
}

//
// ---- Probe -------------------------------------------------------------------
//

// TestProbe_SchemaLoadsBack checks that the proposed schema is accepted by
// the schema loader with the inferred types.
func TestProbe_SchemaLoadsBack(t *testing.T) {
	t.Parallel()

	src := &memSource{data: []byte("\uFEFFid;fare;city\n1;12.5;Brno\n2;;Praha\n3;4;X")}
	res, err := Probe(context.Background(), src, Options{Delimiter: ';', Name: "/data/trips.csv"})
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if res.Rows != 3 {
		t.Fatalf("Rows = %d, want 3", res.Rows)
	}
	if len(res.Renamed) != 0 {
		t.Fatalf("Renamed = %v, want none", res.Renamed)
	}

	s, err := schema.Load(bytes.NewReader(res.Schema))
	if err != nil {
		t.Fatalf("Load proposed schema: %v\n%s", err, res.Schema)
	}
	if s.Name != "trips" {
		t.Fatalf("record name = %q, want trips", s.Name)
	}
	want := []schema.Field{
		{Name: "id", Type: schema.TypeLong},
		{Name: "fare", Type: schema.TypeDouble, Nullable: true},
		{Name: "city", Type: schema.TypeString},
	}
	if !reflect.DeepEqual(s.Fields, want) {
		t.Fatalf("Fields = %#v, want %#v", s.Fields, want)
	}
}

func TestProbe_TruncatedSampleDropsPartialRow(t *testing.T) {
	t.Parallel()

	// The limit ends inside "x"; that row must not be sampled as a string.
	data := "n\n1\n2\n3x\n"
	res, err := Probe(context.Background(), &memSource{data: []byte(data)}, Options{MaxBytes: len(data) - 2})
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if res.Rows != 2 {
		t.Fatalf("Rows = %d, want 2", res.Rows)
	}
	if !strings.Contains(string(res.Schema), `"type": "long"`) {
		t.Fatalf("schema = %s, want n as long", res.Schema)
	}
}

func TestProbe_RenamedHeaders(t *testing.T) {
	t.Parallel()

	src := &memSource{data: []byte("Počet kusů,ok\n1,2\n")}
	res, err := Probe(context.Background(), src, Options{})
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if got := res.Renamed["Počet kusů"]; got != "pocet_kusu" {
		t.Fatalf("Renamed = %v", res.Renamed)
	}
	if !reflect.DeepEqual(res.Fields, []string{"pocet_kusu", "ok"}) {
		t.Fatalf("Fields = %v", res.Fields)
	}
}

func TestProbe_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Probe(context.Background(), &memSource{}, Options{}); err == nil {
		t.Fatalf("expected error for empty input")
	}

	missing := file.NewLocal(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := Probe(context.Background(), missing, Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Probe(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestDecodeDelimiter(t *testing.T) {
	t.Parallel()

	ok := map[string]rune{"": ',', ";": ';', `\t`: '\t', "tab": '\t', "|": '|'}
	for in, want := range ok {
		got, err := DecodeDelimiter(in)
		if err != nil || got != want {
			t.Errorf("DecodeDelimiter(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{";;", "ab"} {
		if _, err := DecodeDelimiter(in); err == nil {
			t.Errorf("DecodeDelimiter(%q) expected error", in)
		}
	}
}
