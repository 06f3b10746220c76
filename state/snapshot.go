package state

import (
	"sort"

	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/persistent/hamt"
)

// Table is the node table of a snapshot. It is persistent: deriving a new
// table shares all untouched nodes with the original.
type Table = hamt.Map[node.Key, *node.Node]

// Flags describe how a snapshot came into existence.
type Flags uint8

const (
	// Dirty marks snapshots produced by node mutations, as opposed to
	// snapshots which differ from their predecessor by selection only.
	Dirty Flags = 1 << iota
	// Historic marks snapshots replayed by undo/redo.
	Historic
)

// Snapshot is an immutable document state.
type Snapshot struct {
	nodes     Table
	selection *Selection
	version   uint64
	flags     Flags
	tags      []string
}

// New creates version 0 of an empty document, consisting of a root node only.
func New() *Snapshot {
	return &Snapshot{nodes: Table{}.With(node.RootKey, node.NewRoot())}
}

// Make freezes a node table and a selection into a snapshot. Nodes stored in
// t must not be modified afterwards.
func Make(t Table, sel *Selection, version uint64, flags Flags, tags ...string) *Snapshot {
	return &Snapshot{
		nodes:     t,
		selection: sel.Clone(),
		version:   version,
		flags:     flags,
		tags:      tags,
	}
}

// Derive returns a new snapshot sharing the node table and selection of s,
// with a new version, flags and tags.
func (s *Snapshot) Derive(version uint64, flags Flags, tags ...string) *Snapshot {
	return Make(s.nodes, s.selection, version, flags, tags...)
}

// Node returns the node for a key.
func (s *Snapshot) Node(key node.Key) (*node.Node, bool) {
	return s.nodes.Get(key)
}

// Has is true if the snapshot contains a node for key.
func (s *Snapshot) Has(key node.Key) bool {
	return s.nodes.Has(key)
}

// Root returns the root node.
func (s *Snapshot) Root() *node.Node {
	root, ok := s.nodes.Get(node.RootKey)
	assertThat(ok, "snapshot without root")
	return root
}

// Table returns the node table of s. As the table is persistent, handing it
// out does not endanger the immutability of s.
func (s *Snapshot) Table() Table {
	return s.nodes
}

// Selection returns a copy of the selection of s, or nil.
func (s *Snapshot) Selection() *Selection {
	return s.selection.Clone()
}

// Version returns the version number of s.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Flags returns the flags of s.
func (s *Snapshot) Flags() Flags {
	return s.flags
}

// IsDirty is true if s was produced by node mutations.
func (s *Snapshot) IsDirty() bool {
	return s.flags&Dirty != 0
}

// IsHistoric is true if s was produced by undo/redo.
func (s *Snapshot) IsHistoric() bool {
	return s.flags&Historic != 0
}

// Tags returns the update tags s was produced with.
func (s *Snapshot) Tags() []string {
	return s.tags
}

// HasTag is true if s was produced by an update with the given tag.
func (s *Snapshot) HasTag(tag string) bool {
	for _, t := range s.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Len returns the number of nodes in s.
func (s *Snapshot) Len() int {
	return s.nodes.Len()
}

// Keys returns the sorted keys of all nodes in s.
func (s *Snapshot) Keys() []node.Key {
	keys := s.nodes.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// TextContent returns the text of the whole document.
func (s *Snapshot) TextContent() string {
	return TextContentOf(s, node.RootKey)
}
