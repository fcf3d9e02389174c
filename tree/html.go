package tree

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses content document. Well formed XHTML is read as XML,
// anything else goes through HTML5 parser and is turned into XHTML tree.
func ParseHTML(data []byte) (*Tree, bool, error) {
	if t, err := ParseXML(data); err == nil {
		return t, false, nil
	}
	t, err := parseTagSoup(data)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func parseTagSoup(data []byte) (*Tree, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	t := &Tree{}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.DoctypeNode:
			t.Prolog = append(t.Prolog, &Node{Kind: KindDirective, Data: "DOCTYPE " + c.Data, Tail: "\n"})
		case html.CommentNode:
			n := &Node{Kind: KindComment, Data: c.Data, Tail: "\n"}
			if t.Root == nil {
				t.Prolog = append(t.Prolog, n)
			} else {
				t.Epilog = append(t.Epilog, n)
			}
		case html.ElementNode:
			if t.Root == nil && c.DataAtom == atom.Html {
				t.Root = fromHTML(c, true)
			}
		}
	}
	if t.Root == nil {
		return nil, fmt.Errorf("html document has no root element")
	}
	if _, ok := t.Root.Lookup("xmlns"); !ok {
		t.Root.Attrs = append([]Attr{{Key: "xmlns", Value: NSXHTML}}, t.Root.Attrs...)
	}
	return t, nil
}

func htmlNamespace(n *html.Node) string {
	switch n.Namespace {
	case "svg":
		return NSSVG
	case "math":
		return "http://www.w3.org/1998/Math/MathML"
	}
	return NSXHTML
}

func fromHTML(h *html.Node, root bool) *Node {
	n := &Node{Kind: KindElement, Name: Name{Space: htmlNamespace(h), Local: h.Data}}
	for _, a := range h.Attr {
		// foreign attributes (xlink:href, xml:lang) come with namespace prefix
		n.Attrs = append(n.Attrs, Attr{Prefix: a.Namespace, Key: a.Key, Value: a.Val})
	}
	if !root && n.Name.Space != NSXHTML && h.Parent != nil && h.Parent.Namespace != h.Namespace {
		// root of foreign content has to declare its namespace
		if _, ok := n.Lookup("xmlns"); !ok {
			n.Attrs = append(n.Attrs, Attr{Key: "xmlns", Value: n.Name.Space})
		}
		if n.Name.Space == NSSVG && !hasAttr(n.Attrs, "xmlns", "xlink") {
			n.Attrs = append(n.Attrs, Attr{Prefix: "xmlns", Key: "xlink", Value: "http://www.w3.org/1999/xlink"})
		}
	}

	var last *Node
	appendText := func(s string) {
		if last == nil {
			n.Text += s
		} else {
			last.Tail += s
		}
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			appendText(c.Data)
		case html.CommentNode:
			last = &Node{Kind: KindComment, Data: c.Data}
			n.Children = append(n.Children, last)
		case html.ElementNode:
			last = fromHTML(c, false)
			n.Children = append(n.Children, last)
		}
	}
	return n
}

func hasAttr(attrs []Attr, prefix, key string) bool {
	for _, a := range attrs {
		if a.Prefix == prefix && a.Key == key {
			return true
		}
	}
	return false
}
