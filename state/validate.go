package state

import (
	"errors"
	"fmt"

	"github.com/npillmayer/outline/node"
)

// ErrMalformedTree is returned if a node table violates the tree invariants.
var ErrMalformedTree = errors.New("malformed document tree")

// ErrDetachedSelection is returned if a selection point does not resolve to an
// attached node, or its offset is out of range.
var ErrDetachedSelection = errors.New("selection references detached node")

// ValidateNodes checks the tree invariants for a set of nodes:
//
// ▪︎ every attached node has a parent whose child list contains it exactly once,
// ▪︎ every child of an element links back to the element,
// ▪︎ the root has no parent and is an element of kind root,
// ▪︎ children are compatible with their parent's kind,
// ▪︎ no key is its own ancestor.
//
// Keys not present in r are ignored.
func ValidateNodes(r Reader, keys []node.Key) error {
	for _, key := range keys {
		n := Lookup(r, key)
		if n == nil {
			continue
		}
		if err := validateNode(r, n); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAll checks the tree invariants for every node of a table and
// requires every node to be reachable from the root.
func ValidateAll(t Table) error {
	var err error
	t.Range(func(k node.Key, n *node.Node) bool {
		if err = validateNode(tableReader{t}, n); err != nil {
			return false
		}
		if !IsAttached(tableReader{t}, k) {
			err = fmt.Errorf("%w: node %s is not reachable from root", ErrMalformedTree, k)
			return false
		}
		return true
	})
	return err
}

func validateNode(r Reader, n *node.Node) error {
	malformed := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrMalformedTree, fmt.Sprintf(format, args...))
	}
	if n.Key == node.RootKey {
		if n.Kind != node.KindRoot || n.Parent != node.NoKey {
			return malformed("root must be of kind root and have no parent, is %v", n)
		}
	} else if n.Kind == node.KindRoot {
		return malformed("node %s of kind root is not the root", n.Key)
	}
	if n.Parent != node.NoKey {
		p := Lookup(r, n.Parent)
		if p == nil {
			return malformed("node %s has dangling parent %s", n.Key, n.Parent)
		}
		if cnt := count(p.Children, n.Key); cnt != 1 {
			return malformed("parent %s lists child %s %d times", p.Key, n.Key, cnt)
		}
		if IsAncestor(r, n.Key, n.Key) {
			return malformed("node %s is its own ancestor", n.Key)
		}
	}
	if n.IsLeaf() && len(n.Children) > 0 {
		return malformed("leaf %s has children", n.Key)
	}
	seen := make(map[node.Key]bool, len(n.Children))
	for _, ch := range n.Children {
		if seen[ch] {
			return malformed("node %s lists child %s twice", n.Key, ch)
		}
		seen[ch] = true
		c := Lookup(r, ch)
		if c == nil {
			return malformed("node %s has dangling child %s", n.Key, ch)
		}
		if c.Parent != n.Key {
			return malformed("child %s of %s links to parent %q", ch, n.Key, c.Parent)
		}
		if !Accepts(n.Kind, c.Kind) {
			return malformed("%s %s cannot hold %s %s", n.Kind, n.Key, c.Kind, ch)
		}
	}
	return nil
}

// Accepts is the content model of the document tree: it tells if an
// element of kind parent may hold a child of kind child.
func Accepts(parent, child node.Kind) bool {
	switch {
	case parent == node.KindRoot:
		return child.Caps().Block && child != node.KindListItem
	case parent == node.KindList:
		return child == node.KindListItem
	case parent.HoldsInline():
		return child.Caps().Inline && !(parent == node.KindOverflow && child == node.KindOverflow)
	}
	return false
}

func count(keys []node.Key, key node.Key) int {
	c := 0
	for _, k := range keys {
		if k == key {
			c++
		}
	}
	return c
}

// ValidateSelection checks that both points of sel resolve to attached nodes
// of the right type, with offsets in range. A nil selection is valid.
func ValidateSelection(r Reader, sel *Selection) error {
	if sel == nil {
		return nil
	}
	for _, p := range []Point{sel.Anchor, sel.Focus} {
		if err := ValidatePoint(r, p); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePoint checks a single selection point.
func ValidatePoint(r Reader, p Point) error {
	n := Lookup(r, p.Key)
	if n == nil || !IsAttached(r, p.Key) {
		return fmt.Errorf("%w: point %s", ErrDetachedSelection, p)
	}
	switch {
	case p.Type == TextPoint && !n.IsText():
		return fmt.Errorf("%w: text point %s on %s", ErrDetachedSelection, p, n.Kind)
	case p.Type == ElementPoint && !n.IsElement():
		return fmt.Errorf("%w: element point %s on %s", ErrDetachedSelection, p, n.Kind)
	case p.Offset < 0 || p.Offset > n.Len():
		return fmt.Errorf("%w: offset of point %s out of range 0…%d", ErrDetachedSelection, p, n.Len())
	}
	return nil
}

// tableReader adapts a bare table to interface Reader.
type tableReader struct {
	t Table
}

func (tr tableReader) Node(key node.Key) (*node.Node, bool) {
	return tr.t.Get(key)
}

// TableReader wraps a node table as a Reader.
func TableReader(t Table) Reader {
	return tableReader{t}
}
