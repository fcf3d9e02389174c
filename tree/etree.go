package tree

import (
	"fmt"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ParseXML parses well formed XML data.
func ParseXML(data []byte) (*Tree, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// FromDocument converts etree document. Consecutive character data tokens are
// merged into text or tail of the preceding node.
func FromDocument(doc *etree.Document) (*Tree, error) {
	t := &Tree{}

	var last *Node
	for _, tok := range doc.Child {
		switch v := tok.(type) {
		case *etree.CharData:
			if last != nil {
				last.Tail += v.Data
			}
		case *etree.Element:
			if t.Root != nil {
				return nil, fmt.Errorf("document has more than one root element: %s", v.FullTag())
			}
			t.Root = fromElement(v)
			last = t.Root
		default:
			n := fromToken(tok)
			if n == nil {
				continue
			}
			if t.Root == nil {
				t.Prolog = append(t.Prolog, n)
			} else {
				t.Epilog = append(t.Epilog, n)
			}
			last = n
		}
	}
	if t.Root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return t, nil
}

func fromToken(tok etree.Token) *Node {
	switch v := tok.(type) {
	case *etree.Element:
		return fromElement(v)
	case *etree.Comment:
		return &Node{Kind: KindComment, Data: v.Data}
	case *etree.ProcInst:
		return &Node{Kind: KindProcInst, Name: Name{Local: v.Target}, Data: v.Inst}
	case *etree.Directive:
		return &Node{Kind: KindDirective, Data: v.Data}
	}
	return nil
}

func fromElement(e *etree.Element) *Node {
	n := &Node{
		Kind:   KindElement,
		Name:   Name{Space: e.NamespaceURI(), Local: e.Tag},
		Prefix: e.Space,
	}
	if len(e.Attr) > 0 {
		n.Attrs = make([]Attr, 0, len(e.Attr))
		for _, a := range e.Attr {
			n.Attrs = append(n.Attrs, Attr{Prefix: a.Space, Key: a.Key, Value: a.Value})
		}
	}

	var last *Node
	for _, tok := range e.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			if last == nil {
				n.Text += cd.Data
			} else {
				last.Tail += cd.Data
			}
			continue
		}
		if c := fromToken(tok); c != nil {
			n.Children = append(n.Children, c)
			last = c
		}
	}
	return n
}

// voidElements never have content in HTML serialization.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Document converts tree back to etree document. When html is set, empty
// XHTML elements which are not void get explicit end tags, so that browsers
// do not treat "<div/>" as an open tag.
func (t *Tree) Document(html bool) *etree.Document {
	doc := etree.NewDocument()
	add := func(n *Node) {
		doc.AddChild(toToken(n, html))
		if n.Tail != "" {
			doc.AddChild(etree.NewText(n.Tail))
		}
	}
	for _, n := range t.Prolog {
		add(n)
	}
	add(t.Root)
	for _, n := range t.Epilog {
		add(n)
	}
	return doc
}

func toToken(n *Node, html bool) etree.Token {
	switch n.Kind {
	case KindComment:
		return etree.NewComment(n.Data)
	case KindProcInst:
		return etree.NewProcInst(n.Name.Local, n.Data)
	case KindDirective:
		return etree.NewDirective(n.Data)
	}

	e := etree.NewElement(n.Name.Local)
	e.Space = n.Prefix
	for _, a := range n.Attrs {
		e.CreateAttr(a.FullKey(), a.Value)
	}
	if n.Text != "" {
		e.AddChild(etree.NewText(n.Text))
	}
	for _, c := range n.Children {
		e.AddChild(toToken(c, html))
		if c.Tail != "" {
			e.AddChild(etree.NewText(c.Tail))
		}
	}
	if html && len(e.Child) == 0 && n.Name.Space == NSXHTML && !voidElements[n.Name.Local] {
		e.AddChild(etree.NewText(""))
	}
	return e
}

// Bytes serializes tree.
func (t *Tree) Bytes(html bool) ([]byte, error) {
	return t.Document(html).WriteToBytes()
}
