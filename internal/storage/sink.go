// Package storage contains sink-agnostic contracts and the sink factory.
//
// Concrete sinks live in subpackages and register themselves from init();
// importing the wiring package internal/storage/all makes every
// built-in kind available. Callers only depend on the Sink interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"csv2parquet/internal/schema"
	"csv2parquet/internal/transformer"
)

// ErrOutputExists is returned by sinks that refuse to replace an existing
// output when Config.Overwrite is false.
var ErrOutputExists = errors.New("output already exists")

// Sink consumes typed records written against the schema it was opened with.
// Write is called sequentially; the record is not retained after it returns.
// Close finalizes the output and must be called exactly once, even after a
// failed Write.
type Sink interface {
	Write(rec transformer.Record) error
	Close() error
}

// Config carries everything a sink needs to open its output.
type Config struct {
	Kind         string
	Path         string
	Schema       *schema.Schema
	Compression  string
	RowGroupSize int64
	PageSize     int64
	Overwrite    bool
}

// Factory opens a Sink for cfg.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

// Counter reads back the number of rows stored in a finished output.
type Counter func(path string) (int64, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
	counters  = map[string]Counter{}
)

// Register registers (or replaces) the factory for kind. It is typically
// called from a sink package's init().
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// RegisterCounter registers (or replaces) the row counter for kind.
func RegisterCounter(kind string, c Counter) {
	mu.Lock()
	defer mu.Unlock()
	counters[kind] = c
}

// CountRows returns the row count of the output of the given kind at path.
func CountRows(kind, path string) (int64, error) {
	mu.RLock()
	c, ok := counters[kind]
	mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("sink.kind=%s cannot count rows", kind)
	}
	return c(path)
}

// New opens a sink of cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported sink.kind=%s", cfg.Kind)
	}
	if cfg.Schema == nil {
		return nil, fmt.Errorf("sink %s: schema is required", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
