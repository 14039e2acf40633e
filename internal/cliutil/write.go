// Package cliutil provides utilities for CLI operations.
package cliutil

import (
	"fmt"
	"io"
	"os"
)

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// WriteList writes a header line followed by one indented line per item.
// Nothing is written for an empty list.
func WriteList(w io.Writer, header string, items []string) {
	if len(items) == 0 {
		return
	}
	Writef(w, "%s (%d):\n", header, len(items))
	for _, item := range items {
		Writef(w, "  - %s\n", item)
	}
}
