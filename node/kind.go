package node

import "errors"

// ErrUnknownKind is returned if a serialized node names a type we cannot
// instantiate.
var ErrUnknownKind = errors.New("unknown node type")

// Key identifies a node within a node table.
type Key string

// RootKey is the key of the single root node of every document.
const RootKey Key = "root"

// NoKey is the empty key. It is used as parent key of the root and of detached nodes.
const NoKey Key = ""

// Kind tags the variant of a node.
type Kind uint8

// Node kinds. KindUnknown is never a valid kind for a node in a table.
const (
	KindUnknown Kind = iota
	KindRoot
	KindParagraph
	KindHeading
	KindQuote
	KindList
	KindListItem
	KindCode
	KindOverflow
	KindText
	KindLineBreak
)

// Capabilities describes what a kind of node is able to do.
type Capabilities struct {
	Leaf    bool // node never has children
	Element bool // node accepts children
	Block   bool // node is a block-level container
	Inline  bool // node lives inside a block
	Text    bool // node carries text
	Atomic  bool // node is deleted as a whole, never partially
}

var capabilities = [...]Capabilities{
	KindUnknown:   {},
	KindRoot:      {Element: true},
	KindParagraph: {Element: true, Block: true},
	KindHeading:   {Element: true, Block: true},
	KindQuote:     {Element: true, Block: true},
	KindList:      {Element: true, Block: true},
	KindListItem:  {Element: true, Block: true},
	KindCode:      {Element: true, Block: true},
	KindOverflow:  {Element: true, Inline: true},
	KindText:      {Leaf: true, Inline: true, Text: true},
	KindLineBreak: {Leaf: true, Inline: true, Atomic: true},
}

var kindNames = [...]string{
	KindUnknown:   "unknown",
	KindRoot:      "root",
	KindParagraph: "paragraph",
	KindHeading:   "heading",
	KindQuote:     "quote",
	KindList:      "list",
	KindListItem:  "listitem",
	KindCode:      "code",
	KindOverflow:  "overflow",
	KindText:      "text",
	KindLineBreak: "linebreak",
}

// Caps returns the capability table entry for a kind.
func (k Kind) Caps() Capabilities {
	if int(k) >= len(capabilities) {
		return Capabilities{}
	}
	return capabilities[k]
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// KindFromString resolves a kind name as produced by Kind.String.
func KindFromString(s string) (Kind, error) {
	for k, name := range kindNames {
		if k != int(KindUnknown) && name == s {
			return Kind(k), nil
		}
	}
	return KindUnknown, ErrUnknownKind
}

// HoldsInline is true for elements whose children are inline nodes,
// i.e. blocks which are not containers of other blocks.
func (k Kind) HoldsInline() bool {
	return (k.Caps().Block && k != KindList) || k == KindOverflow
}
