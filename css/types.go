package css

import (
	"fmt"
	"io"
	"strings"
)

// DefaultIndent is indentation unit used when none is configured.
const DefaultIndent = "  "

// Declaration is a single "property: value" pair. Value keeps everything after
// the colon, including "!important".
type Declaration struct {
	Property string
	Value    string
}

// Rule is a ruleset: selector list and its block.
type Rule struct {
	Selectors []string
	Items     []Item
}

// AtRule is an @-rule, either ending with semicolon (@import, @charset) or
// having a block (@media, @font-face, @page).
type AtRule struct {
	Name    string // with leading "@"
	Prelude string
	Block   bool
	Items   []Item
}

// Item is a single entry of a stylesheet or of a block.
// Exactly one of the fields is non-nil.
type Item struct {
	Comment     *string
	Declaration *Declaration
	Rule        *Rule
	AtRule      *AtRule
	Raw         *string // tokens parser could not attribute to any rule
}

func (it Item) block() bool {
	return it.Rule != nil || (it.AtRule != nil && it.AtRule.Block)
}

// Stylesheet is a parsed CSS stylesheet which keeps all source items in
// order, only whitespace is lost.
type Stylesheet struct {
	Items []Item
}

// Write renders stylesheet: one declaration per line, blocks indented with
// indent unit, blank line between top level items and before nested blocks.
func (s *Stylesheet) Write(w io.Writer, indent string) (int64, error) {
	cw := &countingWriter{w: w}
	writeItems(cw, s.Items, 0, indent)
	return cw.n, cw.err
}

func writeItems(w *countingWriter, items []Item, depth int, indent string) {
	prefix := strings.Repeat(indent, depth)
	for i, it := range items {
		if i > 0 && (depth == 0 || it.block() || items[i-1].block()) {
			w.printf("\n")
		}
		switch {
		case it.Comment != nil:
			w.printf("%s/*%s*/\n", prefix, strings.TrimSuffix(strings.TrimPrefix(*it.Comment, "/*"), "*/"))
		case it.Declaration != nil:
			w.printf("%s%s: %s;\n", prefix, it.Declaration.Property, it.Declaration.Value)
		case it.Raw != nil:
			w.printf("%s%s\n", prefix, *it.Raw)
		case it.Rule != nil:
			w.printf("%s%s {\n", prefix, strings.Join(it.Rule.Selectors, ", "))
			writeItems(w, it.Rule.Items, depth+1, indent)
			w.printf("%s}\n", prefix)
		case it.AtRule != nil:
			head := it.AtRule.Name
			if it.AtRule.Prelude != "" {
				head += " " + it.AtRule.Prelude
			}
			if !it.AtRule.Block {
				w.printf("%s%s;\n", prefix, head)
				continue
			}
			w.printf("%s%s {\n", prefix, head)
			writeItems(w, it.AtRule.Items, depth+1, indent)
			w.printf("%s}\n", prefix)
		}
	}
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) printf(format string, args ...any) {
	if cw.err != nil {
		return
	}
	n, err := fmt.Fprintf(cw.w, format, args...)
	cw.n += int64(n)
	cw.err = err
}
