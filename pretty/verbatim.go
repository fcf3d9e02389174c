package pretty

import (
	"strings"

	"ebpretty/tree"
)

// ambientIndent returns whitespace the element is positioned at: what
// follows the last newline of text preceding it. Elements that do not start
// on a line of their own have no ambient indent.
func ambientIndent(ix *tree.Index, n *tree.Node) (string, bool) {
	var before string
	if prev := ix.Previous(n); prev != nil {
		before = prev.Tail
	} else if parent := ix.Parent(n); parent != nil {
		before = parent.Text
	}
	if before == "" {
		return "", false
	}
	last := before[strings.LastIndexByte(before, '\n')+1:]
	if !IsSpace(last) {
		return "", false
	}
	return last, true
}

// FixVerbatim re-indents content of script and style elements to the ambient
// indent. Style content is reformatted with restyle first, if it fails the
// original text is used. Elements without clean ambient indent are not
// touched.
func FixVerbatim(t *tree.Tree, restyle func(string) (string, error)) {
	ix := tree.NewIndex(t.Root)
	tree.Walk(t.Root, func(n *tree.Node) {
		if n.Kind != tree.KindElement || n.Text == "" {
			return
		}
		if n.Name.Local != "script" && n.Name.Local != "style" {
			return
		}
		indent, ok := ambientIndent(ix, n)
		if !ok {
			return
		}
		text := n.Text
		if n.Name.Local == "style" && restyle != nil {
			if s, err := restyle(text); err == nil {
				text = s
			}
		}
		n.Text = reindent(text, indent)
	})
}

// reindent dedents text and prefixes every non-empty line with indent. Result
// starts with a newline and ends with a line holding the indent alone, so the
// closing tag lines up with the opening one. Blank text becomes "\n"+indent.
func reindent(text, indent string) string {
	lines := dedent(text)

	// leading and trailing blank lines would accumulate on every pass
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var sb strings.Builder
	sb.WriteByte('\n')
	for _, l := range lines {
		if l != "" {
			sb.WriteString(indent)
			sb.WriteString(l)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(indent)
	return sb.String()
}

// dedent splits text into lines and removes whitespace prefix common to all
// non-blank lines. Blank lines become empty.
func dedent(text string) []string {
	lines := splitLines(text)

	var (
		margin string
		seen   bool
	)
	for i, l := range lines {
		rest := strings.TrimLeft(l, " \t")
		if rest == "" {
			lines[i] = ""
			continue
		}
		ws := l[:len(l)-len(rest)]
		if !seen {
			margin, seen = ws, true
			continue
		}
		margin = commonPrefix(margin, ws)
	}
	if margin != "" {
		for i := range lines {
			lines[i] = strings.TrimPrefix(lines[i], margin)
		}
	}
	return lines
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
