package node

import (
	"fmt"
	"unicode/utf8"
)

// Node is the building block of a document tree. Nodes stored in a committed
// snapshot are frozen; clients modify a node only through a clone handed out by
// a transaction (see package editor).
//
// Kind-specific fields are zero for kinds which do not use them.
type Node struct {
	Key      Key      // identity within a node table
	Kind     Kind     // variant tag
	Parent   Key      // NoKey for the root and for detached nodes
	Children []Key    // elements only; authoritative child order
	Text     string   // text nodes
	Format   Format   // text nodes
	Mode     TextMode // text nodes
	Tag      string   // heading level "h1"…"h6", list type "bullet"/"number"
	Language string   // code blocks
}

// NewText creates a detached text node.
func NewText(key Key, text string, format Format) *Node {
	return &Node{Key: key, Kind: KindText, Text: text, Format: format}
}

// NewElement creates a detached element node of a given kind.
func NewElement(key Key, kind Kind) *Node {
	assertThat(kind.Caps().Element, "kind %s is not an element", kind)
	n := &Node{Key: key, Kind: kind}
	switch kind {
	case KindHeading:
		n.Tag = "h1"
	case KindList:
		n.Tag = "bullet"
	}
	return n
}

// NewLineBreak creates a detached line break.
func NewLineBreak(key Key) *Node {
	return &Node{Key: key, Kind: KindLineBreak}
}

// NewRoot creates an empty root node.
func NewRoot() *Node {
	return &Node{Key: RootKey, Kind: KindRoot}
}

// Clone returns a deep copy of n. The clone does not share the children slice.
func (n *Node) Clone() *Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]Key, len(n.Children))
		copy(c.Children, n.Children)
	}
	return &c
}

func (n *Node) String() string {
	if n == nil {
		return "(nil)"
	}
	if n.Kind == KindText {
		return fmt.Sprintf("(%s %s %q %s)", n.Kind, n.Key, n.Text, n.Format)
	}
	return fmt.Sprintf("(%s %s #ch=%d)", n.Kind, n.Key, len(n.Children))
}

// IsText is true for text nodes.
func (n *Node) IsText() bool {
	return n.Kind == KindText
}

// IsElement is true for nodes which accept children.
func (n *Node) IsElement() bool {
	return n.Kind.Caps().Element
}

// IsLeaf is true for text, line breaks and other childless inline nodes.
func (n *Node) IsLeaf() bool {
	return n.Kind.Caps().Leaf
}

// IsBlock is true for block-level elements.
func (n *Node) IsBlock() bool {
	return n.Kind.Caps().Block
}

// IsImmutable is true for leaves which may only be deleted as a whole:
// atomic kinds and token text.
func (n *Node) IsImmutable() bool {
	return n.Kind.Caps().Atomic || (n.Kind == KindText && n.Mode == ModeImmutable)
}

// IsSimpleText is true for normal-mode text nodes, the only ones which may be
// merged with their siblings.
func (n *Node) IsSimpleText() bool {
	return n.Kind == KindText && n.Mode == ModeNormal
}

// Len returns the length of a node in offset units: runes for text nodes,
// children for elements, 0 for atomic leaves.
func (n *Node) Len() int {
	switch {
	case n.Kind == KindText:
		return utf8.RuneCountInString(n.Text)
	case n.IsElement():
		return len(n.Children)
	}
	return 0
}

// IndexOf returns the index of a child key, or -1.
func (n *Node) IndexOf(child Key) int {
	for i, ch := range n.Children {
		if ch == child {
			return i
		}
	}
	return -1
}

// Equal compares all fields of two nodes.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if n.Key != other.Key || n.Kind != other.Kind || n.Parent != other.Parent ||
		n.Text != other.Text || n.Format != other.Format || n.Mode != other.Mode ||
		n.Tag != other.Tag || n.Language != other.Language {
		return false
	}
	return keysEqual(n.Children, other.Children)
}

func keysEqual(a, b []Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
