package tree

import (
	"ebpretty/utils/debug"
)

// Dump renders tree structure with text and tails quoted, for debug reports.
func Dump(t *Tree) string {
	tw := debug.NewTreeWriter()
	for _, n := range t.Prolog {
		dumpNode(tw, n, 0)
	}
	dumpNode(tw, t.Root, 0)
	for _, n := range t.Epilog {
		dumpNode(tw, n, 0)
	}
	return tw.String()
}

func dumpNode(tw *debug.TreeWriter, n *Node, depth int) {
	switch n.Kind {
	case KindElement:
		tw.Line(depth, "%s", n.Name)
	default:
		tw.Line(depth, "%s %q", n.Kind, n.Data)
	}
	tw.Text(depth+1, "text", n.Text)
	for _, c := range n.Children {
		dumpNode(tw, c, depth+1)
	}
	tw.Text(depth, "tail", n.Tail)
}
