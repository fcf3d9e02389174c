package pretty

import (
	"strings"

	"ebpretty/tree"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "audio": true, "blockquote": true,
	"body": true, "canvas": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "li": true, "noscript": true, "ol": true,
	"output": true, "p": true, "pre": true, "script": true, "section": true, "style": true,
	"table": true, "tbody": true, "td": true, "tfoot": true, "thead": true, "tr": true,
	"ul": true, "video": true,
}

func isSVGRoot(n *tree.Node) bool {
	return n.IsElement(tree.NSSVG, "svg")
}

// IsBlock reports whether node is rendered on its own line. Comments and
// processing instructions count as blocks.
func IsBlock(n *tree.Node) bool {
	if n.Kind != tree.KindElement {
		return true
	}
	return (n.Name.Space == tree.NSXHTML && blockTags[n.Name.Local]) || isSVGRoot(n)
}

// HasOnlyBlocks reports whether element content consists of block children
// separated by whitespace, so it is safe to re-indent it.
func HasOnlyBlocks(n *tree.Node) bool {
	if n.Kind != tree.KindElement || len(n.Children) == 0 {
		return false
	}
	if !IsSpace(n.Text) {
		return false
	}
	for _, c := range n.Children {
		if !IsBlock(c) || !IsSpace(c.Tail) {
			return false
		}
	}
	return true
}

func rowContext(n *tree.Node) bool {
	if n.Kind != tree.KindElement {
		return false
	}
	switch n.Name.Local {
	case "tr", "td", "th":
		return true
	}
	return false
}

// IndentBlock surrounds block children of parent with blank lines and
// recurses into child blocks which contain only other blocks. Inline and mixed
// content is left alone; SVG is indented as plain XML. Trailing whitespace of
// parent text and of child tails is replaced by the separator even when the
// text is not blank ("Lead " becomes "Lead" followed by separator), so
// repeated runs produce the same result.
func IndentBlock(parent *tree.Node, level int, indent string) {
	parent.Text = trimSpaceRight(parent.Text)
	sep := "\n\n"
	if rowContext(parent) {
		sep = "\n"
	}
	parent.Text += sep + strings.Repeat(indent, level)

	for i, c := range parent.Children {
		switch {
		case isSVGRoot(c):
			IndentXML(c, level, indent)
		case IsBlock(c) && HasOnlyBlocks(c):
			IndentBlock(c, level+1, indent)
		}
		l := level
		if i == len(parent.Children)-1 {
			l--
		}
		c.Tail = trimSpaceRight(c.Tail) + sep + strings.Repeat(indent, l)
	}
}

// trimSpaceRight drops trailing XML whitespace, whitespace-only strings
// become empty.
func trimSpaceRight(s string) string {
	return strings.TrimRight(s, "\t\n\f\r ")
}
