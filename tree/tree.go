package tree

import (
	"github.com/tsawler/pdfinspect/core"
	"github.com/tsawler/pdfinspect/pages"
)

// NotIndirect is the number of a node that is neither a reference nor the
// root display of an indirect object.
const NotIndirect = -1

// NodeID identifies a node within its Tree.
type NodeID int

// noParent is the parent of root nodes.
const noParent NodeID = -1

// Resolver looks up indirect objects by number. *store.ObjectStore
// implements it.
type Resolver interface {
	Get(num int) (core.Object, bool)
}

// Tree owns every node built over one object store. Nodes link to their
// parent by NodeID, so the object graph never becomes a pointer cycle.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	resolver Resolver
	pages    *pages.Index
	nodes    []*Node
}

// Option configures a Tree
type Option func(*Tree)

// WithPageIndex lets Page nodes report their page number.
func WithPageIndex(idx *pages.Index) Option {
	return func(t *Tree) {
		t.pages = idx
	}
}

// New creates an empty tree that resolves references through r.
func New(r Resolver, opts ...Option) *Tree {
	t := &Tree{resolver: r}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Len returns the number of nodes built so far.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// NewNode creates a root node wrapping obj.
func (t *Tree) NewNode(obj core.Object) *Node {
	return t.add(obj, noParent)
}

// NewIndirectNode creates a root node for obj, the value of indirect object
// number.
func (t *Tree) NewIndirectNode(obj core.Object, number int) *Node {
	n := t.add(obj, noParent)
	n.number = number
	return n
}

// NewDictEntryNode creates a root node for dict[key], labelled with the
// entry it came from.
func (t *Tree) NewDictEntryNode(dict core.Dict, key string) *Node {
	return t.addEntry(dict, key, noParent)
}

// Object creates a root node for the stored indirect object number. It
// returns false when the object is not stored.
func (t *Tree) Object(number int) (*Node, bool) {
	obj, ok := t.resolver.Get(number)
	if !ok {
		return nil, false
	}
	return t.NewIndirectNode(obj, number), true
}

func (t *Tree) add(obj core.Object, parent NodeID) *Node {
	n := &Node{
		tree:    t,
		id:      NodeID(len(t.nodes)),
		parent:  parent,
		object:  obj,
		variant: Classify(t.target(obj)),
		label:   Caption(obj),
		number:  NotIndirect,
	}
	t.nodes = append(t.nodes, n)
	return n
}

func (t *Tree) addEntry(dict core.Dict, key string, parent NodeID) *Node {
	n := t.add(dict[key], parent)
	n.label = DictEntryCaption(dict, key)
	n.key = key
	n.hasKey = true
	return n
}

// target follows obj when it is a reference to a stored object.
func (t *Tree) target(obj core.Object) core.Object {
	if ref, ok := obj.(core.IndirectRef); ok {
		if resolved, ok := t.resolver.Get(ref.Number); ok {
			return resolved
		}
	}
	return obj
}

// expand builds the children of n. References are followed one level: the
// children of a reference node are the entries of the object it points to.
func (t *Tree) expand(n *Node) {
	if n.expanded || n.recursive {
		return
	}
	n.expanded = true

	content := n.object
	if ref, ok := content.(core.IndirectRef); ok {
		resolved, ok := t.resolver.Get(ref.Number)
		if !ok {
			n.unresolved = true
			return
		}
		content = resolved
	}

	switch v := content.(type) {
	case core.Dict:
		t.expandDict(n, v, Classify(v))
	case *core.Stream:
		t.expandDict(n, v.Dict, Classify(v))
	case core.Array:
		for _, elem := range v {
			t.attach(n, t.add(elem, n.id))
		}
	}
}

func (t *Tree) expandDict(n *Node, dict core.Dict, variant Variant) {
	for _, key := range orderedKeys(dict, variant) {
		t.attach(n, t.addEntry(dict, key, n.id))
	}
}

// attach adds child to n. A reference child pointing back at an indirect
// node on the path from n to the root is marked recursive and stays a leaf.
func (t *Tree) attach(n *Node, child *Node) {
	n.children = append(n.children, child.id)

	if !child.IsIndirectReference() {
		return
	}
	if t.indirectAncestor(n, child.Number()) != nil {
		child.recursive = true
	}
}

// indirectAncestor returns the first node, starting at n and walking up,
// that is indirect with the given number.
func (t *Tree) indirectAncestor(n *Node, number int) *Node {
	for n != nil {
		if n.IsIndirect() && n.Number() == number {
			return n
		}
		n = t.Node(n.parent)
	}
	return nil
}
