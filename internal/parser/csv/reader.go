// Package csv streams delimited text as a header plus ordered rows of raw
// cells. It never buffers the whole input; one record is held at a time.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"csv2parquet/internal/config"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// ErrRead wraps every tokenizer failure other than end of input.
var ErrRead = errors.New("csv read")

// Reader yields the header and then one row per call to Next.
//
// Options (all optional):
//   - comma (string; first rune used; default ',')
//   - trim_space (bool; default false) trims edge whitespace of every data
//     cell; header cells are always trimmed
//   - lazy_quotes (bool; default false) → csv.Reader.LazyQuotes
//   - fields_per_record (int; 0=variable, >0=enforce)
//
// Reader is not safe for concurrent use.
type Reader struct {
	src  io.ReadCloser
	cr   *csv.Reader
	trim bool

	header     []string
	headerRead bool
	headerErr  error
	line       int
	closed     bool
}

// NewReader wraps src. The header is read lazily on the first call to Header
// or Next. Closing the Reader closes src.
func NewReader(src io.ReadCloser, opt config.Options) *Reader {
	cr := csv.NewReader(src)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.ReuseRecord = true
	if n := opt.Int("fields_per_record", 0); n > 0 {
		cr.FieldsPerRecord = n
	} else {
		cr.FieldsPerRecord = -1 // tolerant by default
	}

	return &Reader{
		src:  src,
		cr:   cr,
		trim: opt.Bool("trim_space", false),
	}
}

// Header returns the column names. It returns io.EOF when the input holds no
// records at all.
func (r *Reader) Header() ([]string, error) {
	if r.headerRead {
		return r.header, r.headerErr
	}
	r.headerRead = true

	rec, err := r.read()
	if err != nil {
		r.headerErr = err
		return nil, err
	}

	hdr := make([]string, len(rec))
	for i, h := range rec {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if hasEdgeSpace(h) {
			h = strings.TrimSpace(h)
		}
		hdr[i] = h
	}
	r.header = hdr
	return r.header, nil
}

// Next returns the next data row. The returned slice is only valid until the
// following call. At end of input Next returns io.EOF; a file that is empty
// or holds only a header also reports io.EOF on the first call.
func (r *Reader) Next() ([]string, error) {
	if _, err := r.Header(); err != nil {
		return nil, err
	}
	rec, err := r.read()
	if err != nil {
		return nil, err
	}
	if r.trim {
		for i, v := range rec {
			if hasEdgeSpace(v) {
				rec[i] = strings.TrimSpace(v)
			}
		}
	}
	return rec, nil
}

// Line returns the number of records read so far, header included.
func (r *Reader) Line() int { return r.line }

// Close closes the underlying source. Repeated calls are no-ops.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}

func (r *Reader) read() ([]string, error) {
	rec, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	r.line++
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %w", ErrRead, r.line, err)
	}
	return rec, nil
}

// hasEdgeSpace reports whether s starts or ends with whitespace; it lets the
// hot path skip strings.TrimSpace for the common clean cell.
func hasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsSpace(rune(s[0])) || unicode.IsSpace(rune(s[len(s)-1]))
}
