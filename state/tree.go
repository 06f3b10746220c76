package state

import (
	"strings"

	"github.com/npillmayer/outline/node"
)

// Reader is anything able to look up nodes by key: committed snapshots as well
// as the pending view of a transaction.
type Reader interface {
	Node(node.Key) (*node.Node, bool)
}

// maxDepth bounds walks up the parent chain. A longer chain means the tree
// has a cycle.
const maxDepth = 1 << 16

// Lookup returns the node for key or nil.
func Lookup(r Reader, key node.Key) *node.Node {
	n, _ := r.Node(key)
	return n
}

// Parent returns the parent node of key, or nil for the root and for detached nodes.
func Parent(r Reader, key node.Key) *node.Node {
	n := Lookup(r, key)
	if n == nil || n.Parent == node.NoKey {
		return nil
	}
	return Lookup(r, n.Parent)
}

// IsAttached is true if key is reachable from the root through parent links
// which are confirmed by the parents' child lists.
func IsAttached(r Reader, key node.Key) bool {
	for i := 0; i < maxDepth; i++ {
		if key == node.RootKey {
			return true
		}
		n := Lookup(r, key)
		if n == nil || n.Parent == node.NoKey {
			return false
		}
		p := Lookup(r, n.Parent)
		if p == nil || p.IndexOf(key) < 0 {
			return false
		}
		key = n.Parent
	}
	return false
}

// Path returns the child-index path from the root to key.
func Path(r Reader, key node.Key) ([]int, bool) {
	var rev []int
	for i := 0; i < maxDepth; i++ {
		if key == node.RootKey {
			path := make([]int, len(rev))
			for j := range rev {
				path[j] = rev[len(rev)-1-j]
			}
			return path, true
		}
		n := Lookup(r, key)
		if n == nil || n.Parent == node.NoKey {
			return nil, false
		}
		p := Lookup(r, n.Parent)
		if p == nil {
			return nil, false
		}
		at := p.IndexOf(key)
		if at < 0 {
			return nil, false
		}
		rev = append(rev, at)
		key = n.Parent
	}
	return nil, false
}

// IndexOf returns the index of key within its parent's children, or -1.
func IndexOf(r Reader, key node.Key) int {
	p := Parent(r, key)
	if p == nil {
		return -1
	}
	return p.IndexOf(key)
}

// PrevSibling returns the previous sibling of key, or nil.
func PrevSibling(r Reader, key node.Key) *node.Node {
	p := Parent(r, key)
	if p == nil {
		return nil
	}
	if at := p.IndexOf(key); at > 0 {
		return Lookup(r, p.Children[at-1])
	}
	return nil
}

// NextSibling returns the next sibling of key, or nil.
func NextSibling(r Reader, key node.Key) *node.Node {
	p := Parent(r, key)
	if p == nil {
		return nil
	}
	if at := p.IndexOf(key); at >= 0 && at+1 < len(p.Children) {
		return Lookup(r, p.Children[at+1])
	}
	return nil
}

// Ancestors returns the keys of all ancestors of key, starting with its parent.
func Ancestors(r Reader, key node.Key) []node.Key {
	var anc []node.Key
	for n := Parent(r, key); n != nil && len(anc) < maxDepth; n = Parent(r, n.Key) {
		anc = append(anc, n.Key)
	}
	return anc
}

// IsAncestor is true if anc is a proper ancestor of key.
func IsAncestor(r Reader, anc, key node.Key) bool {
	for _, a := range Ancestors(r, key) {
		if a == anc {
			return true
		}
	}
	return false
}

// CommonAncestor returns the nearest common ancestor of a and b, which may be
// a or b itself.
func CommonAncestor(r Reader, a, b node.Key) node.Key {
	mark := map[node.Key]bool{a: true}
	for _, k := range Ancestors(r, a) {
		mark[k] = true
	}
	if mark[b] {
		return b
	}
	for _, k := range Ancestors(r, b) {
		if mark[k] {
			return k
		}
	}
	return node.RootKey
}

// BlockOf returns the nearest block holding inline content which contains
// key, or key itself if it is such a block. It returns nil if there is none,
// e.g. for the root.
func BlockOf(r Reader, key node.Key) *node.Node {
	n := Lookup(r, key)
	for i := 0; n != nil && i < maxDepth; i++ {
		if n.IsBlock() && n.Kind.HoldsInline() {
			return n
		}
		n = Lookup(r, n.Parent)
	}
	return nil
}

// FirstLeaf returns the first leaf below key in document order. If the descent
// ends at an element without children, that element is returned.
func FirstLeaf(r Reader, key node.Key) *node.Node {
	n := Lookup(r, key)
	for n != nil && n.IsElement() && len(n.Children) > 0 {
		n = Lookup(r, n.Children[0])
	}
	return n
}

// LastLeaf returns the last leaf below key in document order. If the descent
// ends at an element without children, that element is returned.
func LastLeaf(r Reader, key node.Key) *node.Node {
	n := Lookup(r, key)
	for n != nil && n.IsElement() && len(n.Children) > 0 {
		n = Lookup(r, n.Children[len(n.Children)-1])
	}
	return n
}

// NextLeaf returns the first leaf following the subtree of key in document
// order, or nil. Childless elements count as leaves.
func NextLeaf(r Reader, key node.Key) *node.Node {
	for n := Lookup(r, key); n != nil && n.Key != node.RootKey; n = Parent(r, n.Key) {
		if sib := NextSibling(r, n.Key); sib != nil {
			return FirstLeaf(r, sib.Key)
		}
	}
	return nil
}

// PrevLeaf returns the last leaf preceding the subtree of key in document
// order, or nil. Childless elements count as leaves.
func PrevLeaf(r Reader, key node.Key) *node.Node {
	for n := Lookup(r, key); n != nil && n.Key != node.RootKey; n = Parent(r, n.Key) {
		if sib := PrevSibling(r, n.Key); sib != nil {
			return LastLeaf(r, sib.Key)
		}
	}
	return nil
}

// NextLeafInBlock returns the leaf following key if it lives in the same block.
func NextLeafInBlock(r Reader, key node.Key) *node.Node {
	return leafInSameBlock(r, key, NextLeaf(r, key))
}

// PrevLeafInBlock returns the leaf preceding key if it lives in the same block.
func PrevLeafInBlock(r Reader, key node.Key) *node.Node {
	return leafInSameBlock(r, key, PrevLeaf(r, key))
}

func leafInSameBlock(r Reader, key node.Key, l *node.Node) *node.Node {
	if l == nil {
		return nil
	}
	b1, b2 := BlockOf(r, key), BlockOf(r, l.Key)
	if b1 == nil || b2 == nil || b1.Key != b2.Key || l.Key == b1.Key {
		return nil
	}
	return l
}

// Leaves returns all leaves from leaf `from` to leaf `to` (inclusive), in
// document order. Childless elements count as leaves.
func Leaves(r Reader, from, to node.Key) []*node.Node {
	var leaves []*node.Node
	n := Lookup(r, from)
	for n != nil {
		leaves = append(leaves, n)
		if n.Key == to {
			break
		}
		n = NextLeaf(r, n.Key)
	}
	return leaves
}

// Subtree returns key and the keys of all its descendants, in pre-order.
func Subtree(r Reader, key node.Key) []node.Key {
	var keys []node.Key
	seen := make(map[node.Key]bool)
	var walk func(node.Key)
	walk = func(k node.Key) {
		n := Lookup(r, k)
		if n == nil || seen[k] {
			return
		}
		seen[k] = true
		keys = append(keys, k)
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	walk(key)
	return keys
}

// TextContentOf returns the text below key. Blocks on the top level are
// separated by an empty line, nested blocks by a newline, line breaks
// produce a newline.
func TextContentOf(r Reader, key node.Key) string {
	var sb strings.Builder
	writeText(r, Lookup(r, key), &sb)
	return sb.String()
}

func writeText(r Reader, n *node.Node, sb *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Kind {
	case node.KindText:
		sb.WriteString(n.Text)
		return
	case node.KindLineBreak:
		sb.WriteByte('\n')
		return
	}
	sep := "\n"
	if n.Kind == node.KindRoot {
		sep = "\n\n"
	}
	for i, ch := range n.Children {
		c := Lookup(r, ch)
		if i > 0 && c != nil && c.IsBlock() {
			sb.WriteString(sep)
		}
		writeText(r, c, sb)
	}
}
