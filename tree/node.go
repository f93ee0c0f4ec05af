package tree

import "github.com/tsawler/pdfinspect/core"

// Node wraps one object of the document for display.
type Node struct {
	tree     *Tree
	id       NodeID
	parent   NodeID
	children []NodeID

	object  core.Object
	variant Variant
	label   string
	key     string
	hasKey  bool
	number  int

	recursive  bool
	unresolved bool
	expanded   bool
}

// ID returns the node's id within its tree.
func (n *Node) ID() NodeID { return n.id }

// Object returns the wrapped object.
func (n *Node) Object() core.Object { return n.object }

// Variant returns the page tree specialization of the node. Reference nodes
// take the variant of the object they point to.
func (n *Node) Variant() Variant { return n.variant }

// Kind returns the kind of the wrapped object.
func (n *Node) Kind() Kind { return KindOf(n.object) }

// Label returns the display caption.
func (n *Node) Label() string { return n.label }

func (n *Node) String() string { return n.label }

// Key returns the dictionary key the node was created for, or "".
func (n *Node) Key() string { return n.key }

// IsDictionaryNode reports whether the node is the entry key of a
// dictionary.
func (n *Node) IsDictionaryNode(key string) bool {
	return n.hasKey && n.key == key
}

// IsIndirectReference reports whether the wrapped object is a reference.
func (n *Node) IsIndirectReference() bool {
	_, ok := n.object.(core.IndirectRef)
	return ok
}

// IsIndirect reports whether the node is a reference or was created for an
// indirect object by number.
func (n *Node) IsIndirect() bool {
	return n.IsIndirectReference() || n.number > NotIndirect
}

// Number returns the referenced object number for reference nodes, the
// object number given at creation otherwise, or NotIndirect.
func (n *Node) Number() int {
	if ref, ok := n.object.(core.IndirectRef); ok {
		return ref.Number
	}
	return n.number
}

// IsRecursive reports whether the node is a reference back to one of its
// ancestors. Recursive nodes have no children.
func (n *Node) IsRecursive() bool { return n.recursive }

// IsUnresolved reports whether the node is a reference to an object that is
// not in the store. It is known after the node has been expanded.
func (n *Node) IsUnresolved() bool { return n.unresolved }

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.tree.Node(n.parent) }

// Depth returns the number of ancestors of the node.
func (n *Node) Depth() int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return depth
}

// Expanded reports whether the children of the node have been built.
func (n *Node) Expanded() bool { return n.expanded }

// Expand builds the children of the node once. It does nothing for
// recursive nodes.
func (n *Node) Expand() { n.tree.expand(n) }

// Children expands the node if needed and returns its children in display
// order.
func (n *Node) Children() []*Node {
	n.Expand()
	children := make([]*Node, len(n.children))
	for i, id := range n.children {
		children[i] = n.tree.nodes[id]
	}
	return children
}

// Ancestor returns the node a recursive reference points back to, or nil
// when the node is not recursive.
func (n *Node) Ancestor() *Node {
	if !n.recursive {
		return nil
	}
	return n.tree.indirectAncestor(n.Parent(), n.Number())
}

// PageNumber returns the 1-based page number of a Page node. It needs a
// page index (see WithPageIndex) and an indirect node.
func (n *Node) PageNumber() (int, bool) {
	if n.tree.pages == nil || n.variant != Page || !n.IsIndirect() {
		return 0, false
	}
	return n.tree.pages.PageNumber(n.Number())
}

// LeafCount returns the number of pages below a PageTree node. It needs a
// page index (see WithPageIndex).
func (n *Node) LeafCount() (int, bool) {
	if n.tree.pages == nil || n.variant != PageTree || !n.IsIndirect() {
		return 0, false
	}
	return n.tree.pages.LeafCount(n.Number())
}
