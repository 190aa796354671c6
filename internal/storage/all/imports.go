// Package all wires the built-in sinks into the storage factory.
//
// It exists purely for side effects: importing it (even as a blank import)
// runs the init functions of each concrete sink, which register their
// factories with the storage package. Today that is:
//
//   - "parquet" (csv2parquet/internal/storage/parquet)
//
// Typical usage, in cmd/csv2parquet or a similar wiring layer:
//
//	import (
//	    _ "csv2parquet/internal/storage/all"
//
//	    "csv2parquet/internal/storage"
//	)
//
//	sink, err := storage.New(ctx, storage.Config{Kind: "parquet", Path: out, Schema: s})
//
// The rest of the application depends only on storage.Sink.
package all

import (
	_ "csv2parquet/internal/storage/parquet"
)
