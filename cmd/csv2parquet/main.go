// Command csv2parquet converts a delimited text file into a SNAPPY-compressed
// Parquet file next to it, typed by an Avro-style record schema.
//
//	csv2parquet --csvFile trips.csv --schema trips.avsc
//
// The output is written to <csvFile>.parquet. With --infer-schema the command
// samples the input instead and prints a proposed schema to stdout:
//
//	csv2parquet --csvFile trips.csv --infer-schema > trips.avsc
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"csv2parquet/internal/config"
	"csv2parquet/internal/datasource/file"
	"csv2parquet/internal/metrics"
	"csv2parquet/internal/metrics/datadog"
	"csv2parquet/internal/metrics/prompush"
	"csv2parquet/internal/pipeline"
	"csv2parquet/internal/probe"

	// register all sinks with the storage factory.
	_ "csv2parquet/internal/storage/all"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	csvFile    string
	schema     string
	delimiter  string
	overwrite  bool
	verify     bool
	infer      bool
	verbose    bool
	job        string
	backend    string
	gatewayURL string
	dogstatsd  string
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	opt, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	delim, err := probe.DecodeDelimiter(opt.delimiter)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if opt.infer {
		return inferSchema(ctx, opt.csvFile, delim, stdout)
	}

	cfg := config.NewRun(opt.csvFile, opt.schema)
	cfg.ID = uuid.NewString()
	cfg.Job = opt.job
	cfg.Verify = opt.verify
	cfg.Sink.Overwrite = opt.overwrite
	cfg.Parser.Options["comma"] = string(delim)

	issues := config.ValidateRun(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return 1
	}

	flush := setupMetrics(opt, cfg)
	defer flush()

	if opt.verbose {
		log.Printf("run: %s", cfg)
	}
	start := time.Now()

	st, runErr := pipeline.New(cfg).Run(ctx)
	fmt.Fprintf(stdout, "Total of %d records written into parquetfile\n", st.Written)

	if opt.verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	if runErr != nil {
		log.Printf("csv2parquet: %v", runErr)
		return 1
	}
	return 0
}

// inferSchema prints a proposed schema for csvFile.
func inferSchema(ctx context.Context, csvFile string, delim rune, stdout io.Writer) int {
	res, err := probe.Probe(ctx, file.NewLocal(csvFile), probe.Options{
		Delimiter: delim,
		Name:      csvFile,
	})
	if err != nil {
		log.Printf("csv2parquet: infer schema: %v", err)
		return 1
	}
	for _, h := range res.Headers {
		if name, ok := res.Renamed[h]; ok {
			log.Printf("probe: header %q proposed as field %q; rename the header or edit the schema", h, name)
		}
	}
	log.Printf("probe: sampled rows=%d fields=%d", res.Rows, len(res.Fields))
	if _, err := stdout.Write(res.Schema); err != nil {
		log.Printf("csv2parquet: write schema: %v", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opt options

	fs := flag.NewFlagSet("csv2parquet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opt.csvFile, "csvFile", "", "delimited input file (required)")
	fs.StringVar(&opt.schema, "schema", "", "Avro record schema file (required)")
	fs.StringVar(&opt.delimiter, "delimiter", ",", `field delimiter (single character, or "tab")`)
	fs.BoolVar(&opt.overwrite, "overwrite", false, "replace an existing output file")
	fs.BoolVar(&opt.verify, "verify", false, "re-read the output footer and compare row counts")
	fs.BoolVar(&opt.infer, "infer-schema", false, "print a proposed schema for --csvFile and exit")
	fs.BoolVar(&opt.verbose, "v", false, "enable verbose logs")
	fs.StringVar(&opt.job, "job", config.DefaultJob, "job name used for metrics")
	fs.StringVar(&opt.backend, "metrics-backend", "", "metrics backend: none, pushgateway, datadog (overrides env METRICS_BACKEND)")
	fs.StringVar(&opt.gatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fs.StringVar(&opt.dogstatsd, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: csv2parquet --csvFile <input> --schema <schema> [flags]\n")
		fmt.Fprintf(fs.Output(), "       csv2parquet --csvFile <input> --infer-schema [--delimiter <d>]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opt, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return opt, fmt.Errorf("unexpected arguments")
	}
	if opt.infer {
		if opt.csvFile == "" {
			fmt.Fprintln(stderr, "--infer-schema requires --csvFile")
			fs.Usage()
			return opt, fmt.Errorf("missing required flag")
		}
		return opt, nil
	}
	if opt.csvFile == "" || opt.schema == "" {
		fmt.Fprintln(stderr, "both --csvFile and --schema are required")
		fs.Usage()
		return opt, fmt.Errorf("missing required flag")
	}
	return opt, nil
}

// setupMetrics installs the selected backend and returns the flush to run at
// exit. Backend selection: flag → env → none.
func setupMetrics(opt options, cfg config.Run) func() {
	nop := func() {}

	name := firstNonEmpty(opt.backend, os.Getenv("METRICS_BACKEND"))
	switch name {
	case "pushgateway":
		gwURL := firstNonEmpty(opt.gatewayURL, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091")
		b, err := prompush.NewBackend(cfg.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return nop
		}
		metrics.SetBackend(b.WithRunID(cfg.ID))
		log.Printf("metrics: url=%v, backend=%v, job_name=%v run_id=%v", gwURL, name, cfg.Job, cfg.ID)

	case "datadog":
		addr := firstNonEmpty(opt.dogstatsd, os.Getenv("DOGSTATSD_ADDR"), "127.0.0.1:8125")
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			GlobalTags: []string{"job:" + cfg.Job, "run_id:" + cfg.ID},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return nop
		}
		metrics.SetBackend(b)
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, name, cfg.Job)

	case "", "none":
		if opt.verbose {
			log.Printf("metrics: disabled (backend=%q)", name)
		}
		return nop

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
		return nop
	}

	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
