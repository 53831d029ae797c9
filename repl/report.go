package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Entry is one action recorded in the session report.
type Entry struct {
	Timestamp time.Time `toml:"timestamp"`
	Action    string    `toml:"action"`
	Path      string    `toml:"path"`
	Language  string    `toml:"language"`
	Cached    bool      `toml:"cached"`
	Error     string    `toml:"error,omitempty"`
	LinesIn   int       `toml:"lines_in"`
	LinesOut  int       `toml:"lines_out"`
}

// Report appends TOML [[entry]] tables to a file. A nil *Report discards.
type Report struct {
	w io.WriteCloser
}

// OpenReport opens path for appending. An empty path returns a nil Report.
func OpenReport(path string) (*Report, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	return &Report{w: f}, nil
}

// Record writes e as a single [[entry]] table.
func (r *Report) Record(e Entry) error {
	if r == nil {
		return nil
	}
	doc := struct {
		Entry []Entry `toml:"entry"`
	}{[]Entry{e}}

	if err := toml.NewEncoder(r.w).Encode(doc); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	_, err := io.WriteString(r.w, "\n")
	return err
}

// Close closes the underlying file.
func (r *Report) Close() error {
	if r == nil {
		return nil
	}
	return r.w.Close()
}

// countLines returns the number of lines in text, counting a final
// unterminated line.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
