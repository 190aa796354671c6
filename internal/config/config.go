// Package config defines the configuration model of a conversion run.
//
// A Run is assembled by the CLI from its flags and a few environment
// overrides; nothing is read from a config file. Writer parameters that are
// part of the output contract (suffix, codec, row group and page size) are
// fixed constants rather than knobs.
//
// Example of a resolved run rendered as JSON (trimmed):
//
//	{
//	  "job": "csv2parquet",
//	  "source": { "kind": "file", "path": "trips.csv" },
//	  "schema_path": "trips.avsc",
//	  "parser": { "kind": "csv", "options": { "comma": ",", "trim_space": false } },
//	  "sink": { "kind": "parquet", "path": "trips.csv.parquet", "compression": "SNAPPY", ... }
//	}
package config

import (
	"encoding/json"
	"os"
	"strconv"
)

// Fixed output parameters.
const (
	// OutputSuffix is appended to the input path to name the output file.
	OutputSuffix = ".parquet"

	// Compression is the only codec the sink writes.
	Compression = "SNAPPY"

	// RowGroupSize is the target row group ("block") size in bytes.
	RowGroupSize int64 = 1024 * 1024

	// PageSize is the target data page size in bytes.
	PageSize int64 = 16 * 1024 * 1024

	// DefaultJob names the run for metrics when no job is given.
	DefaultJob = "csv2parquet"

	// DefaultLogEvery is the progress log interval in rows.
	DefaultLogEvery = 50_000
)

// Run is the full description of one conversion.
type Run struct {
	// Job is the logical job name used for metrics labeling.
	Job string `json:"job"`

	// ID identifies this run in logs and metrics grouping.
	ID string `json:"id,omitempty"`

	// Source describes where the delimited input comes from.
	Source Source `json:"source"`

	// SchemaPath is the schema definition file.
	SchemaPath string `json:"schema_path"`

	// Parser configures the tokenizer.
	Parser Parser `json:"parser"`

	// Sink describes the columnar output.
	Sink Sink `json:"sink"`

	// Verify re-reads the output footer after close and compares row counts.
	Verify bool `json:"verify"`

	// LogEvery is the progress log interval in rows; <= 0 disables progress logs.
	LogEvery int `json:"log_every"`
}

// Source identifies the input. Current kind: "file".
type Source struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Parser selects how raw bytes become rows. Current kind: "csv".
type Parser struct {
	Kind string `json:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), trim_space (bool), lazy_quotes (bool),
	//   fields_per_record (int)
	Options Options `json:"options"`
}

// Sink selects the output writer. Current kind: "parquet".
type Sink struct {
	Kind         string `json:"kind"`
	Path         string `json:"path"`
	Compression  string `json:"compression"`
	RowGroupSize int64  `json:"row_group_size"`
	PageSize     int64  `json:"page_size"`

	// Overwrite allows replacing an existing output file.
	Overwrite bool `json:"overwrite"`
}

// NewRun returns a Run for csvPath and schemaPath with every default applied
// and environment overrides resolved.
func NewRun(csvPath, schemaPath string) Run {
	return Run{
		Job:        DefaultJob,
		Source:     Source{Kind: "file", Path: csvPath},
		SchemaPath: schemaPath,
		Parser: Parser{
			Kind:    "csv",
			// Cells reach the coercer verbatim; text keeps its whitespace.
			Options: Options{"comma": ",", "trim_space": false},
		},
		Sink: Sink{
			Kind:         "parquet",
			Path:         OutputPath(csvPath),
			Compression:  Compression,
			RowGroupSize: RowGroupSize,
			PageSize:     PageSize,
		},
		LogEvery: getenvInt("CSV2PARQUET_LOG_EVERY", DefaultLogEvery),
	}
}

// OutputPath derives the output location from the input path.
func OutputPath(csvPath string) string { return csvPath + OutputSuffix }

// String renders the run as compact JSON for logs.
func (r Run) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "<unprintable run>"
	}
	return string(b)
}

func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// Options is a small helper to fetch typed values from a free-form map. It
// performs minimal coercion and returns the provided default when a key is
// absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so float64 is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character settings such as a delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}
