// Package parquet implements the "parquet" sink on top of
// github.com/xitongsys/parquet-go. Every schema field becomes an OPTIONAL
// column so that values which fail coercion can be stored as nulls.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"

	"github.com/xitongsys/parquet-go-source/local"
	pq "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"csv2parquet/internal/schema"
	"csv2parquet/internal/storage"
	"csv2parquet/internal/transformer"
)

// Kind is the sink kind this package registers.
const Kind = "parquet"

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		return Open(ctx, cfg)
	})
	storage.RegisterCounter(Kind, CountRows)
}

// Sink streams records into a single Parquet file.
type Sink struct {
	path   string
	file   source.ParquetFile
	pw     *writer.CSVWriter
	rows   int64
	closed bool
}

// Open creates the output file and prepares the writer. An existing file is
// refused with storage.ErrOutputExists unless cfg.Overwrite is set.
func Open(ctx context.Context, cfg storage.Config) (*Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Schema == nil || cfg.Schema.Len() == 0 {
		return nil, errors.New("parquet: schema has no fields")
	}
	md, err := Metadata(cfg.Schema)
	if err != nil {
		return nil, err
	}
	codec, err := pq.CompressionCodecFromString(strings.ToUpper(cfg.Compression))
	if err != nil {
		return nil, fmt.Errorf("parquet: compression %q: %w", cfg.Compression, err)
	}

	if !cfg.Overwrite {
		if _, err := os.Stat(cfg.Path); err == nil {
			return nil, fmt.Errorf("parquet: %s: %w", cfg.Path, storage.ErrOutputExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("parquet: stat %s: %w", cfg.Path, err)
		}
	}

	fw, err := local.NewLocalFileWriter(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("parquet: create %s: %w", cfg.Path, err)
	}
	pw, err := writer.NewCSVWriter(md, fw, 1)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet: writer: %w", err)
	}
	pw.CompressionType = codec
	if cfg.RowGroupSize > 0 {
		pw.RowGroupSize = cfg.RowGroupSize
	}
	if cfg.PageSize > 0 {
		pw.PageSize = cfg.PageSize
	}

	log.Printf("parquet: opened %s columns=%d compression=%s row_group=%d page=%d",
		cfg.Path, len(md), codec, pw.RowGroupSize, pw.PageSize)
	return &Sink{path: cfg.Path, file: fw, pw: pw}, nil
}

// Write appends one record. Values arrive in schema order.
func (s *Sink) Write(rec transformer.Record) error {
	if s.closed {
		return errors.New("parquet: write after close")
	}
	if err := s.pw.Write(rec.Row()); err != nil {
		return fmt.Errorf("parquet: write row %d: %w", s.rows+1, err)
	}
	s.rows++
	return nil
}

// Rows returns the number of records accepted so far.
func (s *Sink) Rows() int64 { return s.rows }

// Close flushes the last row group, writes the footer and closes the file.
// Both steps always run; their errors are joined.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if err := s.pw.WriteStop(); err != nil {
		errs = append(errs, fmt.Errorf("parquet: finalize %s: %w", s.path, err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("parquet: close %s: %w", s.path, err))
	}
	return errors.Join(errs...)
}

// Metadata renders the parquet-go column tags for s.
//
// parquet-go upper-cases the first letter of each name internally, so names
// differing only in that letter would land on the same column; such schemas
// are rejected here rather than producing a corrupt file.
func Metadata(s *schema.Schema) ([]string, error) {
	md := make([]string, 0, s.Len())
	seen := make(map[string]string, s.Len())
	for _, f := range s.Fields {
		key := headToUpper(f.Name)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("parquet: fields %q and %q map to the same column", prev, f.Name)
		}
		seen[key] = f.Name

		pt, err := physical(f.Type)
		if err != nil {
			return nil, fmt.Errorf("parquet: field %q: %w", f.Name, err)
		}
		md = append(md, fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", f.Name, pt))
	}
	return md, nil
}

func physical(t schema.Type) (string, error) {
	switch t {
	case schema.TypeLong:
		return "type=INT64", nil
	case schema.TypeDouble:
		return "type=DOUBLE", nil
	case schema.TypeFloat:
		return "type=FLOAT", nil
	case schema.TypeString:
		return "type=BYTE_ARRAY, convertedtype=UTF8", nil
	default:
		return "", fmt.Errorf("no parquet mapping for type %s", t)
	}
}

func headToUpper(name string) string {
	r := []rune(name)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

// CountRows reads the footer of the file at path and returns its row count.
func CountRows(path string) (int64, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return 0, fmt.Errorf("parquet: open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		return 0, fmt.Errorf("parquet: read footer %s: %w", path, err)
	}
	defer pr.ReadStop()
	return pr.GetNumRows(), nil
}
