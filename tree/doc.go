// Package tree presents the object graph of a loaded document as a finite
// tree.
//
// Indirect references make the object graph cyclic: a page points to its
// parent Pages node, which lists the page among its kids. The tree follows
// references lazily as nodes are expanded and stops at any reference whose
// target is already indirect on the path to the root. Such a node is marked
// recursive, has no children, and [Node.Ancestor] returns the node it points
// back to.
//
// Nodes live in an arena owned by a [Tree]. Children are built on the first
// call to [Node.Expand] or [Node.Children]:
//
//	t := tree.New(objects, tree.WithPageIndex(idx))
//	root, ok := t.Object(1)
//	for _, child := range root.Children() {
//	    fmt.Println(child.Label())
//	}
//
// # Captions
//
// Arrays and streams are labelled "Array" and "Stream", references
// "Indirect reference: 7 0 R", and dictionary entries "/Key: value".
// Dictionaries with /Type /Page or /Pages are classified as [Page] or
// [PageTree] nodes, and their most useful keys are listed first.
package tree
