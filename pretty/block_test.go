package pretty

import (
	"slices"
	"testing"

	"ebpretty/tree"
)

func xhtml(local string, children ...*tree.Node) *tree.Node {
	return tree.NewElement(tree.NSXHTML, local, children...)
}

func parseBody(t *testing.T, body string) *tree.Tree {
	t.Helper()
	tr, err := tree.ParseXML([]byte(`<body xmlns="http://www.w3.org/1999/xhtml">` + body + `</body>`))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}
	return tr
}

func serialize(t *testing.T, tr *tree.Tree) string {
	t.Helper()
	out, err := tr.Bytes(false)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	return string(out)
}

func TestIsBlock(t *testing.T) {
	tests := []struct {
		name string
		node *tree.Node
		want bool
	}{
		{"paragraph", xhtml("p"), true},
		{"table cell", xhtml("td"), true},
		{"span", xhtml("span"), false},
		{"foreign p", tree.NewElement("urn:other", "p"), false},
		{"svg root", tree.NewElement(tree.NSSVG, "svg"), true},
		{"svg rect", tree.NewElement(tree.NSSVG, "rect"), false},
		{"comment", tree.NewComment("x"), true},
		{"processing instruction", &tree.Node{Kind: tree.KindProcInst}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlock(tt.node); got != tt.want {
				t.Errorf("IsBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasOnlyBlocks(t *testing.T) {
	withTail := func(n *tree.Node, tail string) *tree.Node {
		n.Tail = tail
		return n
	}
	withText := func(n *tree.Node, text string) *tree.Node {
		n.Text = text
		return n
	}

	tests := []struct {
		name string
		node *tree.Node
		want bool
	}{
		{"no children", xhtml("div"), false},
		{"comment", tree.NewComment("x"), false},
		{"blocks", withText(xhtml("div", withTail(xhtml("p"), "\n"), xhtml("ul")), "\n  "), true},
		{"blocks and comment", xhtml("div", xhtml("p"), tree.NewComment("c")), true},
		{"leading text", withText(xhtml("div", xhtml("p")), "text"), false},
		{"inline child", xhtml("div", xhtml("p"), xhtml("span")), false},
		{"trailing text", xhtml("div", withTail(xhtml("p"), " more ")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasOnlyBlocks(tt.node); got != tt.want {
				t.Errorf("HasOnlyBlocks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndentBlock(t *testing.T) {
	tr := parseBody(t, `<p>a</p><div><p>b</p><p>c</p></div><table><tr><td>x</td></tr></table>`)
	IndentBlock(tr.Root, 1, "  ")

	want := `<body xmlns="http://www.w3.org/1999/xhtml">` +
		"\n\n  <p>a</p>" +
		"\n\n  <div>\n\n    <p>b</p>\n\n    <p>c</p>\n\n  </div>" +
		"\n\n  <table>\n\n    <tr>\n      <td>x</td>\n    </tr>\n\n  </table>" +
		"\n\n</body>"
	if got := serialize(t, tr); got != want {
		t.Errorf("IndentBlock() result:\n%q\nwant:\n%q", got, want)
	}
}

func TestIndentBlock_MixedContentUntouched(t *testing.T) {
	tr := parseBody(t, `<div>text<p>x</p></div><p>a <em>b</em> c</p>`)
	IndentBlock(tr.Root, 1, "  ")

	div, p := tr.Root.Children[0], tr.Root.Children[1]
	if div.Text != "text" || div.Children[0].Tail != "" {
		t.Errorf("mixed content of div changed: text %q inner tail %q", div.Text, div.Children[0].Tail)
	}
	if p.Text != "a " || p.Children[0].Tail != " c" {
		t.Errorf("inline content changed: text %q em tail %q", p.Text, p.Children[0].Tail)
	}
	if div.Tail != "\n\n  " || p.Tail != "\n\n" {
		t.Errorf("block separators: div tail %q, p tail %q", div.Tail, p.Tail)
	}
}

func TestIndentBlock_SVG(t *testing.T) {
	tr := parseBody(t, `<svg xmlns="http://www.w3.org/2000/svg"><rect/><circle/></svg>`)
	IndentBlock(tr.Root, 1, "  ")

	svg := tr.Root.Children[0]
	if svg.Text != "\n    " {
		t.Errorf("svg text = %q, want %q", svg.Text, "\n    ")
	}
	if svg.Children[0].Tail != "\n    " || svg.Children[1].Tail != "\n  " {
		t.Errorf("svg children tails = %q %q", svg.Children[0].Tail, svg.Children[1].Tail)
	}
	if svg.Tail != "\n\n" {
		t.Errorf("svg tail = %q", svg.Tail)
	}
}

func TestIndentBlock_TrailingWhitespaceOfText(t *testing.T) {
	tr := parseBody(t, "<div><p>x</p></div> \n<p>y</p>")
	IndentBlock(tr.Root, 1, "  ")
	if got := tr.Root.Children[0].Tail; got != "\n\n  " {
		t.Errorf("whitespace tail = %q, want %q", got, "\n\n  ")
	}
}

func TestIndentBlock_MeaningfulTextTrimmed(t *testing.T) {
	p := xhtml("p")
	p.Tail = "Tail \t"
	body := xhtml("body", p)
	body.Text = "Lead "

	IndentBlock(body, 1, "  ")
	if want := "Lead\n\n  "; body.Text != want {
		t.Errorf("text = %q, want %q", body.Text, want)
	}
	if want := "Tail\n\n"; p.Tail != want {
		t.Errorf("tail = %q, want %q", p.Tail, want)
	}
}

func TestIndentBlock_IdempotentAndPreserving(t *testing.T) {
	inputs := []string{
		`<p>a</p><div><p>b</p><p>c</p></div><table><tr><td>x</td></tr></table>`,
		`<div>text<p>x</p></div><p>a <em>b</em> c</p>`,
		"\n   <h1>title</h1>\n\n\n<!-- note --><ul><li>one</li>\n\t<li>two <b>2</b></li></ul>  trailing",
		`<blockquote><div><div><p>deep</p></div></div></blockquote><svg xmlns="http://www.w3.org/2000/svg"><g><path d="M0 0"/></g></svg>`,
	}

	for _, in := range inputs {
		tr := parseBody(t, in)
		before := tree.Content(tr.Root)

		IndentBlock(tr.Root, 1, "  ")
		once := serialize(t, tr)
		if after := tree.Content(tr.Root); !slices.Equal(before, after) {
			t.Errorf("content changed for %q:\nbefore %q\nafter  %q", in, before, after)
		}

		IndentBlock(tr.Root, 1, "  ")
		if twice := serialize(t, tr); twice != once {
			t.Errorf("not idempotent for %q:\nonce  %q\ntwice %q", in, once, twice)
		}
	}
}
