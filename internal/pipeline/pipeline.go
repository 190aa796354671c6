// Package pipeline runs one conversion: it opens the delimited input, loads
// the schema, opens the Parquet sink and streams every row through the
// converter into the sink, one row at a time.
//
// Cleanup is scoped: the input is closed exactly once on every exit path and
// the sink, once opened, is always closed after the last write attempt. A
// sink close failure after an otherwise clean stream becomes the run error,
// since the output would lack its footer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"csv2parquet/internal/config"
	"csv2parquet/internal/datasource"
	"csv2parquet/internal/metrics"
	csvparser "csv2parquet/internal/parser/csv"
	"csv2parquet/internal/schema"
	"csv2parquet/internal/storage"
	"csv2parquet/internal/transformer"
)

// State is the lifecycle position of a run.
type State int

const (
	Idle State = iota
	SourceOpen
	SchemaReady
	SinkOpen
	Streaming
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SourceOpen:
		return "source_open"
	case SchemaReady:
		return "schema_ready"
	case SinkOpen:
		return "sink_open"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Empty-input outcomes reported in Stats.Empty.
const (
	EmptyNone = ""
	// EmptyFile means the input held no bytes at all.
	EmptyFile = "empty_file"
	// EmptyHeaderOnly means the input held a header row and no data rows.
	EmptyHeaderOnly = "header_only"
)

// Stats summarizes a finished run.
type Stats struct {
	Written   int64
	NullCells int64
	State     State
	// Empty is EmptyFile or EmptyHeaderOnly when the first pull found no
	// data row; otherwise EmptyNone.
	Empty       string
	Output      string
	Fingerprint uint64
	Elapsed     time.Duration
}

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	openSourceFn = func(ctx context.Context, src config.Source) (io.ReadCloser, error) {
		ds, err := datasource.New(src.Kind, src.Path)
		if err != nil {
			return nil, err
		}
		return ds.Open(ctx)
	}

	loadSchemaFn = schema.LoadFile

	newSinkFn = storage.New

	countRowsFn = storage.CountRows
)

// Pipeline executes a single config.Run.
type Pipeline struct {
	cfg   config.Run
	state State
}

// New returns a pipeline for cfg. An empty job name falls back to
// config.DefaultJob.
func New(cfg config.Run) *Pipeline {
	if cfg.Job == "" {
		cfg.Job = config.DefaultJob
	}
	return &Pipeline{cfg: cfg, state: Idle}
}

// State returns the state reached so far.
func (p *Pipeline) State() State { return p.state }

// Run performs the conversion. Stats are valid on every return, including
// errors; Stats.Written counts rows the sink accepted.
func (p *Pipeline) Run(ctx context.Context) (st Stats, err error) {
	start := time.Now()
	job := p.cfg.Job
	st.Output = p.cfg.Sink.Path

	defer func() {
		if err != nil {
			p.state = Failed
		} else {
			p.state = Closed
		}
		st.State = p.state
		st.Elapsed = time.Since(start)
		metrics.RecordRow(job, "written", st.Written)
		metrics.RecordRow(job, "null_cells", st.NullCells)
		log.Printf("pipeline: finished id=%s state=%s written=%d null_cells=%d elapsed=%s",
			p.cfg.ID, p.state, st.Written, st.NullCells, st.Elapsed.Truncate(time.Millisecond))
	}()

	// Idle → SourceOpen
	t0 := time.Now()
	rc, err := openSourceFn(ctx, p.cfg.Source)
	metrics.RecordStep(job, "open_source", err, time.Since(t0))
	if err != nil {
		log.Printf("pipeline: open source %s: %v", p.cfg.Source.Path, err)
		return st, fmt.Errorf("open source: %w", err)
	}
	rd := csvparser.NewReader(rc, p.cfg.Parser.Options)
	defer func() {
		if cerr := rd.Close(); cerr != nil {
			log.Printf("pipeline: close source: %v", cerr)
		}
	}()
	p.state = SourceOpen

	// SourceOpen → SchemaReady
	t0 = time.Now()
	sch, err := loadSchemaFn(p.cfg.SchemaPath)
	metrics.RecordStep(job, "load_schema", err, time.Since(t0))
	if err != nil {
		log.Printf("pipeline: load schema %s: %v", p.cfg.SchemaPath, err)
		return st, fmt.Errorf("load schema: %w", err)
	}
	if sch.Len() == 0 {
		err = fmt.Errorf("schema %s has no convertible fields", p.cfg.SchemaPath)
		log.Printf("pipeline: %v", err)
		return st, err
	}
	st.Fingerprint = sch.Fingerprint()
	log.Printf("pipeline: schema name=%q fields=%d skipped=%d fingerprint=%016x",
		sch.Name, sch.Len(), len(sch.Skipped), st.Fingerprint)
	p.state = SchemaReady

	// SchemaReady → SinkOpen
	t0 = time.Now()
	sink, err := newSinkFn(ctx, storage.Config{
		Kind:         p.cfg.Sink.Kind,
		Path:         p.cfg.Sink.Path,
		Schema:       sch,
		Compression:  p.cfg.Sink.Compression,
		RowGroupSize: p.cfg.Sink.RowGroupSize,
		PageSize:     p.cfg.Sink.PageSize,
		Overwrite:    p.cfg.Sink.Overwrite,
	})
	metrics.RecordStep(job, "open_sink", err, time.Since(t0))
	if err != nil {
		log.Printf("pipeline: open sink %s: %v", p.cfg.Sink.Path, err)
		return st, fmt.Errorf("open sink: %w", err)
	}
	p.state = SinkOpen

	sinkClosed := false
	closeSink := func() error {
		if sinkClosed {
			return nil
		}
		sinkClosed = true
		t := time.Now()
		cerr := sink.Close()
		metrics.RecordStep(job, "close_sink", cerr, time.Since(t))
		return cerr
	}
	defer func() {
		if cerr := closeSink(); cerr != nil {
			log.Printf("pipeline: close sink: %v", cerr)
			if err == nil {
				err = fmt.Errorf("close sink: %w", cerr)
			}
		}
	}()

	// SinkOpen → Streaming
	p.state = Streaming
	t0 = time.Now()
	err = p.stream(ctx, rd, sch, sink, &st)
	metrics.RecordStep(job, "stream", err, time.Since(t0))
	if err != nil {
		log.Printf("pipeline: stream: %v", err)
		return st, err
	}

	if st.Empty != EmptyNone {
		return st, nil
	}

	if err = closeSink(); err != nil {
		log.Printf("pipeline: close sink: %v", err)
		return st, fmt.Errorf("close sink: %w", err)
	}
	if fi, serr := os.Stat(p.cfg.Sink.Path); serr == nil {
		metrics.RecordOutputBytes(job, fi.Size())
	}

	if p.cfg.Verify {
		t0 = time.Now()
		err = p.verify(st.Written)
		metrics.RecordStep(job, "verify", err, time.Since(t0))
		if err != nil {
			log.Printf("pipeline: verify: %v", err)
			return st, err
		}
	}
	return st, nil
}

// stream pulls rows until end of input, converting and writing each one.
func (p *Pipeline) stream(ctx context.Context, rd *csvparser.Reader, sch *schema.Schema, sink storage.Sink, st *Stats) error {
	row, err := rd.Next()
	if errors.Is(err, io.EOF) {
		if hdr, _ := rd.Header(); hdr == nil {
			st.Empty = EmptyFile
			log.Printf("pipeline: empty input: %s is an empty file; nothing to write", p.cfg.Source.Path)
		} else {
			st.Empty = EmptyHeaderOnly
			log.Printf("pipeline: empty input: %s has only a header row; nothing to write", p.cfg.Source.Path)
		}
		return nil
	}
	if err != nil {
		return err
	}

	header, err := rd.Header()
	if err != nil {
		return err
	}
	plan := transformer.Compile(sch, header)
	if missing := plan.Missing(); len(missing) > 0 {
		log.Printf("pipeline: header lacks %d schema field(s) %v; they will be null", len(missing), missing)
	}

	logEvery := int64(p.cfg.LogEvery)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec := plan.Convert(row)
		if err := sink.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", rd.Line(), err)
		}
		st.Written++
		for _, v := range rec.Values() {
			if v.IsNull() {
				st.NullCells++
			}
		}
		if logEvery > 0 && st.Written%logEvery == 0 {
			log.Printf("pipeline: progress written=%d", st.Written)
		}

		row, err = rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// verify re-reads the output footer and compares its row count.
func (p *Pipeline) verify(written int64) error {
	n, err := countRowsFn(p.cfg.Sink.Kind, p.cfg.Sink.Path)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if n != written {
		return fmt.Errorf("verify: footer reports %d rows, wrote %d", n, written)
	}
	log.Printf("pipeline: verified rows=%d output=%s", n, p.cfg.Sink.Path)
	return nil
}
