// Package tree defines the document model pretty-printers operate on: a tree
// of nodes where character data is kept as leading text of a node and tail of
// its children.
package tree

import "strings"

// Well known namespaces.
const (
	NSXHTML = "http://www.w3.org/1999/xhtml"
	NSSVG   = "http://www.w3.org/2000/svg"
	NSOPF   = "http://www.idpf.org/2007/opf"
	NSDC    = "http://purl.org/dc/elements/1.1/"
)

// Kind tells what a node is.
type Kind int

const (
	KindElement Kind = iota
	KindComment
	KindProcInst
	KindDirective
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindComment:
		return "comment"
	case KindProcInst:
		return "procinst"
	case KindDirective:
		return "directive"
	default:
		return "unknown"
	}
}

// Name is namespace qualified element name.
type Name struct {
	Space string // namespace URI
	Local string
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Attr is a single attribute as it appeared in the source.
type Attr struct {
	Prefix string
	Key    string
	Value  string
}

// FullKey returns attribute key with prefix, if any.
func (a Attr) FullKey() string {
	if a.Prefix == "" {
		return a.Key
	}
	return a.Prefix + ":" + a.Key
}

// Node is a single tree node. For elements Text holds content before the
// first child (or all content when there are no children), Tail of every
// node holds content after it up to the next sibling or parent's end tag.
// Comments, processing instructions and directives keep their payload in Data
// and never have Text or Children.
type Node struct {
	Kind     Kind
	Name     Name // for processing instructions Local is the target
	Prefix   string
	Attrs    []Attr
	Text     string
	Tail     string
	Data     string
	Children []*Node

	// ID is assigned by NewIndex.
	ID int
}

// NewElement creates detached element node.
func NewElement(space, local string, children ...*Node) *Node {
	return &Node{Kind: KindElement, Name: Name{Space: space, Local: local}, Children: children}
}

// NewComment creates detached comment node.
func NewComment(data string) *Node {
	return &Node{Kind: KindComment, Data: data}
}

// IsElement reports whether node is an element with given namespace URI and
// local name.
func (n *Node) IsElement(space, local string) bool {
	return n != nil && n.Kind == KindElement && n.Name.Space == space && n.Name.Local == local
}

// Get returns value of unprefixed attribute key or empty string.
func (n *Node) Get(key string) string {
	v, _ := n.Lookup(key)
	return v
}

// Lookup returns value of unprefixed attribute and whether it was present.
func (n *Node) Lookup(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Prefix == "" && a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Set replaces or adds unprefixed attribute.
func (n *Node) Set(key, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Prefix == "" && n.Attrs[i].Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// Child returns first direct child element with requested name.
func (n *Node) Child(space, local string) *Node {
	for _, c := range n.Children {
		if c.IsElement(space, local) {
			return c
		}
	}
	return nil
}

// Walk visits n and all its descendants in document order.
func Walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// FindAll returns all elements in the subtree rooted at n (n included) with
// requested name in document order.
func FindAll(n *Node, space, local string) []*Node {
	var res []*Node
	Walk(n, func(x *Node) {
		if x.IsElement(space, local) {
			res = append(res, x)
		}
	})
	return res
}

// Tree is a parsed document: root element surrounded by document level
// nodes (XML declaration, DOCTYPE, comments). Tails of prolog and epilog nodes
// hold document level whitespace.
type Tree struct {
	Prolog []*Node
	Root   *Node
	Epilog []*Node
}

// Content returns document order sequence of element names and text
// fragments with whitespace runs collapsed. Pretty-printing must never change
// it.
func Content(n *Node) []string {
	var res []string
	var visit func(x *Node)
	visit = func(x *Node) {
		switch x.Kind {
		case KindElement:
			res = append(res, "<"+x.Name.String()+">")
		default:
			res = append(res, "<"+x.Kind.String()+">"+x.Data)
		}
		if s := collapse(x.Text); s != "" {
			res = append(res, s)
		}
		for _, c := range x.Children {
			visit(c)
		}
		res = append(res, "</>")
		if s := collapse(x.Tail); s != "" {
			res = append(res, s)
		}
	}
	visit(n)
	return res
}

func collapse(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\t' || r == '\n' || r == '\f' || r == '\r' || r == ' '
	}), " ")
}
