// Package pretty rewrites whitespace of parsed e-book documents so that
// serialized result is indented and readable. Only whitespace-only text
// and tails are changed, nodes are never created or removed.
package pretty

import (
	"strings"

	"ebpretty/tree"
)

// IsSpace reports whether s is empty or consists only of XML whitespace
// (tab, newline, form feed, carriage return and space).
func IsSpace(s string) bool {
	return strings.Trim(s, "\t\n\f\r ") == ""
}

// IndentXML indents n on the assumption that elements with children have no
// textual content of their own and nothing follows closing tags. This holds
// for OPF, NCX and container.xml. When it does not output is just less pretty,
// nothing is lost.
func IndentXML(n *tree.Node, level int, indent string) {
	if (n.Text == "" && len(n.Children) > 0) || (n.Text != "" && IsSpace(n.Text)) {
		n.Text = "\n" + strings.Repeat(indent, level+1)
	}
	for i, c := range n.Children {
		IndentXML(c, level+1, indent)
		if IsSpace(c.Tail) {
			l := level + 1
			if i == len(n.Children)-1 {
				l--
			}
			c.Tail = "\n" + strings.Repeat(indent, l)
		}
	}
}
