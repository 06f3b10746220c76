package state

import (
	"fmt"
	"strings"

	"github.com/npillmayer/outline/node"
	tp "github.com/xlab/treeprint"
)

// Dump renders the tree of a snapshot for debugging. Selection points are
// marked with ▶ (anchor) and ◀ (focus).
func Dump(s *Snapshot) string {
	printer := tp.New()
	root := printer.AddBranch(label(s, s.Root()))
	for _, ch := range s.Root().Children {
		dumpNode(s, root, ch)
	}
	return fmt.Sprintf("v%d %s\n%s", s.Version(), s.selection, printer.String())
}

func dumpNode(s *Snapshot, printer tp.Tree, key node.Key) {
	n := Lookup(s, key)
	if n == nil {
		printer.AddNode(fmt.Sprintf("%s (missing)", key))
		return
	}
	if n.IsLeaf() || len(n.Children) == 0 {
		printer.AddNode(label(s, n))
		return
	}
	branch := printer.AddBranch(label(s, n))
	for _, ch := range n.Children {
		dumpNode(s, branch, ch)
	}
}

func label(s *Snapshot, n *node.Node) string {
	var sb strings.Builder
	sb.WriteString(n.String())
	if sel := s.selection; sel != nil {
		if sel.Anchor.Key == n.Key {
			fmt.Fprintf(&sb, " ▶%d", sel.Anchor.Offset)
		}
		if sel.Focus.Key == n.Key {
			fmt.Fprintf(&sb, " ◀%d", sel.Focus.Offset)
		}
	}
	return sb.String()
}
