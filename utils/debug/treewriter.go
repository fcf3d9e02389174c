// Package debug has helpers producing human readable dumps for debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter renders indented tree dumps.
type TreeWriter struct {
	w    *strings.Builder
	unit string
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w:    &strings.Builder{},
		unit: "  ",
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString(tw.unit)
	}
}

func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Text writes labeled value quoted, so whitespace is visible. Empty values
// are skipped.
func (tw *TreeWriter) Text(depth int, label, value string) {
	if value == "" {
		return
	}
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(strconv.Quote(value))
	tw.w.WriteByte('\n')
}
