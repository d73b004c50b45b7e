package tree

import (
	"strings"

	"github.com/specialistvlad/sandplan/internal/layers"
)

// TerminalSuffix is appended to the rendered kind of a terminal node.
const TerminalSuffix = ":terminal-dependency"

// Node is one component placement in a dependency tree.
type Node struct {
	Name     string
	Kind     string
	Terminal bool
	Children []*Node
}

// Label returns the kind as rendered, with the terminal suffix if any.
func (n *Node) Label() string {
	if n.Terminal {
		return n.Kind + TerminalSuffix
	}
	return n.Kind
}

// String renders the tree one node per line as name(kind), indented with
// one tab per level.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b, 0)
	return b.String()
}

func (n *Node) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("\t", depth))
	b.WriteString(n.Name)
	b.WriteByte('(')
	b.WriteString(n.Label())
	b.WriteString(")\n")
	for _, c := range n.Children {
		c.write(b, depth+1)
	}
}

// Layers groups the component names of the tree by depth, deepest first.
// A name placed at several depths is kept only in the deepest one, the
// first layer that needs it built. Empty layers are dropped.
func (n *Node) Layers() layers.Schedule {
	var byDepth [][]string
	var walk func(node *Node, depth int)
	walk = func(node *Node, depth int) {
		if depth == len(byDepth) {
			byDepth = append(byDepth, nil)
		}
		byDepth[depth] = append(byDepth[depth], node.Name)
		for _, c := range node.Children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)

	seen := map[string]bool{}
	out := make(layers.Schedule, 0, len(byDepth))
	for depth := len(byDepth) - 1; depth >= 0; depth-- {
		var layer []string
		for _, name := range byDepth[depth] {
			if !seen[name] {
				seen[name] = true
				layer = append(layer, name)
			}
		}
		out = append(out, layers.NewLayer(layer...))
	}
	return out.Compact()
}

// Order returns every component of the tree once, in build order.
func (n *Node) Order() []string {
	return n.Layers().Members()
}
