// This file adds a lightweight validator for Run values. It performs static
// checks and returns a list of issues (errors and warnings) that the CLI
// surfaces before any file is opened.

package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the run (e.g. "sink.path").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateRun performs static validation of a Run without touching the
// filesystem. It does not mutate r.
func ValidateRun(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will be unlabeled",
		})
	}
	if strings.TrimSpace(r.SchemaPath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema_path",
			Message:  "schema path must not be empty",
		})
	}

	issues = append(issues, validateSource(r.Source)...)
	issues = append(issues, validateParser(r.Parser)...)
	issues = append(issues, validateSink(r.Sink, r.Source)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	if s.Kind != "file" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unsupported source kind %q", s.Kind),
		})
	}
	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "input path must not be empty",
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q", p.Kind),
		})
		return issues
	}

	comma := p.Options.String("comma", ",")
	if utf8.RuneCountInString(comma) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("delimiter %q must be exactly one character", comma),
		})
	} else if r := []rune(comma)[0]; r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("delimiter %q is not allowed", comma),
		})
	}
	return issues
}

func validateSink(s Sink, src Source) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  "sink kind must not be empty",
		})
	}
	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.path",
			Message:  "output path must not be empty",
		})
	} else if s.Path == src.Path {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.path",
			Message:  "output path must differ from the input path",
		})
	}
	if !strings.EqualFold(s.Compression, Compression) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.compression",
			Message:  fmt.Sprintf("compression %q is not supported; only %s is written", s.Compression, Compression),
		})
	}
	if s.RowGroupSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.row_group_size",
			Message:  fmt.Sprintf("row_group_size=%d must be positive", s.RowGroupSize),
		})
	}
	if s.PageSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.page_size",
			Message:  fmt.Sprintf("page_size=%d must be positive", s.PageSize),
		})
	}
	return issues
}
