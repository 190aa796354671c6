// Package probe samples the head of a delimited file and proposes an
// Avro-style record schema for it: one field per header, typed long, double
// or string from the sampled values, nullable when the sample has empties.
//
// The proposal is a starting point. Headers that are not valid field names
// are normalized, and such columns will not match the file until either the
// header or the schema is edited; Result.Renamed lists them.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"csv2parquet/internal/datasource"
)

// Defaults for Options.
const (
	DefaultMaxBytes   = 1 << 20
	DefaultSampleRows = 10_000
)

// Options control the sampling.
type Options struct {
	// MaxBytes to sample from the start of the input.
	MaxBytes int
	// SampleRows caps the data rows considered.
	SampleRows int
	// Delimiter (single rune). If zero, ',' is used.
	Delimiter rune
	// Name is the record name; normalized. Defaults to "record".
	Name string
}

// Result is the proposed schema plus what inference saw.
type Result struct {
	// Schema is the rendered record definition (indented JSON).
	Schema []byte
	// Headers is the original header row.
	Headers []string
	// Fields are the proposed field names, aligned with Headers.
	Fields []string
	// Renamed maps headers that had to be normalized to their field name.
	Renamed map[string]string
	// Rows is the number of sampled data rows.
	Rows int
}

type avroField struct {
	Name string `json:"name"`
	Type any    `json:"type"`
}

type avroRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

// Probe reads up to opt.MaxBytes from src and infers a schema.
func Probe(ctx context.Context, src datasource.Source, opt Options) (Result, error) {
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = DefaultMaxBytes
	}
	if opt.SampleRows <= 0 {
		opt.SampleRows = DefaultSampleRows
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = ','
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return Result{}, err
	}
	defer rc.Close()

	// One byte past the limit tells a truncated sample from a short file.
	data, err := io.ReadAll(io.LimitReader(rc, int64(opt.MaxBytes)+1))
	if err != nil {
		return Result{}, fmt.Errorf("probe: read sample: %w", err)
	}
	if len(data) > opt.MaxBytes {
		data = cutToLastNewline(data[:opt.MaxBytes])
	}

	headers, rows := readCSVSample(data, opt.Delimiter, opt.SampleRows)
	if len(headers) == 0 {
		return Result{}, fmt.Errorf("probe: no header found in the first %d bytes", opt.MaxBytes)
	}

	cols := inferColumns(headers, rows)
	res := Result{
		Headers: headers,
		Fields:  make([]string, len(cols)),
		Rows:    len(rows),
	}
	rec := avroRecord{
		Type:   "record",
		Name:   recordName(opt.Name),
		Fields: make([]avroField, len(cols)),
	}
	for i, c := range cols {
		res.Fields[i] = c.name
		if c.name != c.header {
			if res.Renamed == nil {
				res.Renamed = map[string]string{}
			}
			res.Renamed[c.header] = c.name
		}
		var typ any = c.typ.String()
		if c.nullable {
			typ = []string{"null", c.typ.String()}
		}
		rec.Fields[i] = avroField{Name: c.name, Type: typ}
	}

	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("probe: render schema: %w", err)
	}
	res.Schema = append(body, '\n')
	return res, nil
}

// recordName derives a record name from a file name or label.
func recordName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "record"
	}
	return normalizeFieldName(name)
}

// DecodeDelimiter converts a user-supplied string into a single rune
// delimiter. Empty means ','; "\t" and "tab" mean a tab.
func DecodeDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("delimiter %q must be exactly one character", s)
	}
	return r, nil
}
