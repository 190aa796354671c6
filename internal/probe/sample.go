package probe

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

// readCSVSample parses a byte sample into a header and the data rows that
// match the header width.
//
// Best-effort mode: variable field counts are allowed by the tokenizer,
// records that fail to parse are skipped instead of failing the read, and
// rows whose width differs from the header are dropped so that inference
// only sees aligned columns.
func readCSVSample(data []byte, delim rune, maxRows int) ([]string, [][]string) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	// Header: skip malformed/empty lines until a usable one or EOF.
	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return []string{}, [][]string{}
		}
		if err != nil || len(rec) == 0 {
			continue
		}
		headers = stripUTF8BOM(rec)
		break
	}

	rows := make([][]string, 0, 64)
	want := len(headers)
	for maxRows <= 0 || len(rows) < maxRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != want {
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows
}

// stripUTF8BOM removes a UTF-8 BOM from the first header field and trims
// edge space from every header.
func stripUTF8BOM(headers []string) []string {
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

// cutToLastNewline drops a trailing partial record from a byte sample.
func cutToLastNewline(data []byte) []byte {
	if i := bytes.LastIndexByte(data, '\n'); i > 0 {
		return data[:i+1]
	}
	return data
}
