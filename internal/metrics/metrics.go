// Package metrics is a small, backend-agnostic facade for recording
// operational metrics of a conversion run.
//
// A global, pluggable Backend defaults to a no-op, so instrumentation is
// always safe to call. Concrete systems (Prometheus Pushgateway, DogStatsD)
// live in subpackages and are installed with SetBackend.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal           = "csv2parquet_step_total"
	StepDurationSeconds = "csv2parquet_step_duration_seconds"
	RecordsTotal        = "csv2parquet_records_total"
	OutputBytesTotal    = "csv2parquet_output_bytes_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline step
// (open_source, load_schema, open_sink, stream, close_sink, verify).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds used by the pipeline:
//   - "written"    rows accepted by the sink
//   - "null_cells" cells stored as null after coercion
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordOutputBytes adds the size of a finished output file.
func RecordOutputBytes(job string, n int64) {
	if n <= 0 {
		return
	}
	backend.IncCounter(OutputBytesTotal, float64(n), Labels{
		"job": job,
	})
}
