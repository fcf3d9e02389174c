package tree

// Index is navigation table for a tree: node ids are positions in preorder,
// for every id it keeps parent id and previous sibling id (-1 when absent).
// Index is a snapshot, it has to be rebuilt when tree structure changes.
type Index struct {
	nodes  []*Node
	parent []int
	prev   []int
}

// NewIndex assigns ids to all nodes of the tree rooted at root and builds
// navigation tables.
func NewIndex(root *Node) *Index {
	ix := &Index{}
	ix.add(root, -1, -1)
	return ix
}

func (ix *Index) add(n *Node, parent, prev int) {
	n.ID = len(ix.nodes)
	ix.nodes = append(ix.nodes, n)
	ix.parent = append(ix.parent, parent)
	ix.prev = append(ix.prev, prev)

	last := -1
	for _, c := range n.Children {
		ix.add(c, n.ID, last)
		last = c.ID
	}
}

// Len returns number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.nodes)
}

// Node returns node by id or nil.
func (ix *Index) Node(id int) *Node {
	if id < 0 || id >= len(ix.nodes) {
		return nil
	}
	return ix.nodes[id]
}

func (ix *Index) known(n *Node) bool {
	return n != nil && n.ID >= 0 && n.ID < len(ix.nodes) && ix.nodes[n.ID] == n
}

// Parent returns parent of n, nil for root or nodes not in the index.
func (ix *Index) Parent(n *Node) *Node {
	if !ix.known(n) {
		return nil
	}
	return ix.Node(ix.parent[n.ID])
}

// Previous returns previous sibling of n or nil.
func (ix *Index) Previous(n *Node) *Node {
	if !ix.known(n) {
		return nil
	}
	return ix.Node(ix.prev[n.ID])
}
