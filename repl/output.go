package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"
)

// termWriter wraps a file and converts \n to \r\n when the file is a
// terminal (raw mode disables the kernel's NL→CRNL translation). When
// the file is redirected, \n passes through unchanged.
func termWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return &crlfWriter{w: f}
	}
	return f
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

// queryRecord is one TOML session-log entry: the query the user
// committed with Enter and the response the engine produced for it.
type queryRecord struct {
	Timestamp string   `toml:"timestamp"`
	Seq       string   `toml:"seq"`
	Query     string   `toml:"query"`
	Matched   int      `toml:"matched"`
	Matches   []string `toml:"matches"`
}

// writeEntry appends one [[queries]] record to w.
func writeEntry(w io.Writer, seq, query string, matches []string) {
	rec := queryRecord{
		Timestamp: time.Now().Format(time.RFC3339),
		Seq:       seq,
		Query:     query,
		Matched:   len(matches),
		Matches:   matches,
	}
	fmt.Fprintln(w, "[[queries]]")
	if err := toml.NewEncoder(w).Encode(rec); err != nil {
		fmt.Fprintf(os.Stderr, "toml encode: %v\n", err)
	}
	fmt.Fprintln(w)
}
