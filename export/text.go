package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/pdfinspect/tree"
)

// Text writes node and its descendants as an indented outline, one node per
// line. depth is the number of levels below node to print; a negative depth
// prints the whole subtree.
func Text(w io.Writer, node *tree.Node, depth int) error {
	tw := &textWriter{w: w}
	tw.node(node, 0, depth)
	return tw.err
}

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) node(n *tree.Node, level, depth int) {
	if tw.err != nil {
		return
	}

	expand := depth < 0 || level < depth
	if expand {
		n.Expand()
	}

	line := strings.Repeat("  ", level) + n.Label()
	if notes := Annotations(n); len(notes) > 0 {
		line += " (" + strings.Join(notes, ", ") + ")"
	}
	if _, err := fmt.Fprintln(tw.w, line); err != nil {
		tw.err = fmt.Errorf("failed to write node %d: %w", n.ID(), err)
		return
	}

	if !expand {
		return
	}
	for _, child := range n.Children() {
		tw.node(child, level+1, depth)
	}
}

// Annotations returns the notes shown next to a node label: its page
// number or page count, and whether it is recursive or unresolved. A
// recursive node only links back to its ancestor, so it gets no page notes.
func Annotations(n *tree.Node) []string {
	var notes []string
	if !n.IsRecursive() {
		if page, ok := n.PageNumber(); ok {
			notes = append(notes, fmt.Sprintf("page %d", page))
		}
		if count, ok := n.LeafCount(); ok {
			notes = append(notes, pluralPages(count))
		}
	}
	if n.IsRecursive() {
		if anc := n.Ancestor(); anc != nil {
			notes = append(notes, fmt.Sprintf("recursive, see depth %d", anc.Depth()))
		} else {
			notes = append(notes, "recursive")
		}
	}
	if n.IsUnresolved() {
		notes = append(notes, "unresolved")
	}
	return notes
}

func pluralPages(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}
