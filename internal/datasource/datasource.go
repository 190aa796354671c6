// Package datasource abstracts where the delimited input comes from.
package datasource

import (
	"context"
	"fmt"
	"io"

	"csv2parquet/internal/datasource/file"
)

// Source opens the raw input stream. The caller owns the returned reader and
// must close it exactly once.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New returns the Source for kind. Only "file" is built in.
func New(kind, path string) (Source, error) {
	switch kind {
	case "file", "":
		return file.NewLocal(path), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", kind)
	}
}
