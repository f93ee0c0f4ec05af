package export

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/pdfinspect/tree"
)

// HTML writes node and its descendants as nested lists. Every item carries
// the node kind in data-kind and an id of the form "node-N"; recursive
// references link to the item of their ancestor. depth has the same meaning
// as for Text.
func HTML(w io.Writer, node *tree.Node, depth int) error {
	root := element(atom.Ul, html.Attribute{Key: "class", Val: "pdftree"})
	root.AppendChild(item(node, 0, depth))

	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("failed to render tree: %w", err)
	}
	return nil
}

func item(n *tree.Node, level, depth int) *html.Node {
	expand := depth < 0 || level < depth
	if expand {
		n.Expand()
	}

	li := element(atom.Li,
		html.Attribute{Key: "id", Val: nodeID(n)},
		html.Attribute{Key: "data-kind", Val: n.Kind().String()},
	)
	if classes := itemClasses(n); classes != "" {
		li.Attr = append(li.Attr, html.Attribute{Key: "class", Val: classes})
	}

	label := &html.Node{Type: html.TextNode, Data: n.Label()}
	if anc := n.Ancestor(); anc != nil {
		a := element(atom.A, html.Attribute{Key: "href", Val: "#" + nodeID(anc)})
		a.AppendChild(label)
		li.AppendChild(a)
	} else {
		li.AppendChild(label)
	}

	if notes := Annotations(n); len(notes) > 0 {
		note := element(atom.Span, html.Attribute{Key: "class", Val: "note"})
		note.AppendChild(&html.Node{Type: html.TextNode, Data: " (" + strings.Join(notes, ", ") + ")"})
		li.AppendChild(note)
	}

	if !expand {
		return li
	}
	children := n.Children()
	if len(children) == 0 {
		return li
	}
	ul := element(atom.Ul)
	for _, child := range children {
		ul.AppendChild(item(child, level+1, depth))
	}
	li.AppendChild(ul)

	return li
}

func itemClasses(n *tree.Node) string {
	var classes []string
	switch {
	case n.IsRecursive():
		classes = append(classes, "recursive")
	case n.Variant() == tree.Page:
		classes = append(classes, "page")
	case n.Variant() == tree.PageTree:
		classes = append(classes, "pages")
	}
	if n.IsUnresolved() {
		classes = append(classes, "unresolved")
	}
	return strings.Join(classes, " ")
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func nodeID(n *tree.Node) string {
	return fmt.Sprintf("node-%d", n.ID())
}
