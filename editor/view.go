package editor

import (
	"fmt"

	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// View is the mutation handle of a transaction. It is bound to a pending
// snapshot and must not be retained after the update callback returns.
//
// Nodes returned by Node are shared with committed snapshots and must not be
// modified. To change a node, call Writable and modify the clone it returns.
type View struct {
	ed       *Editor
	base     *state.Snapshot
	nodes    state.Table
	writable map[node.Key]bool
	sel      *state.Selection
}

func newView(ed *Editor, base *state.Snapshot) *View {
	return &View{
		ed:       ed,
		base:     base,
		nodes:    base.Table(),
		writable: make(map[node.Key]bool),
		sel:      base.Selection(),
	}
}

// Node returns the pending version of a node. It implements state.Reader.
func (v *View) Node(key node.Key) (*node.Node, bool) {
	return v.nodes.Get(key)
}

func (v *View) lookup(key node.Key) *node.Node {
	n, _ := v.nodes.Get(key)
	return n
}

// Base returns the snapshot the transaction started from.
func (v *View) Base() *state.Snapshot {
	return v.base
}

// Root returns the pending root node.
func (v *View) Root() *node.Node {
	return v.lookup(node.RootKey)
}

// TextContent returns the pending text of the whole document.
func (v *View) TextContent() string {
	return state.TextContentOf(v, node.RootKey)
}

// Segmenter returns the grapheme segmenter of the editor.
func (v *View) Segmenter() grapheme.Segmenter {
	return v.ed.Segmenter()
}

// Writable returns a clone of the node at key, registered in the pending
// snapshot. Repeated calls within a transaction return the same clone.
// The key has to exist.
func (v *View) Writable(key node.Key) *node.Node {
	n, ok := v.nodes.Get(key)
	assertThat(ok, "cannot get writable version of unknown node %s", key)
	if v.writable[key] {
		return n
	}
	c := n.Clone()
	v.nodes = v.nodes.With(key, c)
	v.writable[key] = true
	return c
}

// IsDirty is true if key has been written to in this transaction.
func (v *View) IsDirty(key node.Key) bool {
	return v.writable[key]
}

func (v *View) newKey() node.Key {
	for {
		k := v.ed.keys.next()
		if !v.nodes.Has(k) {
			return k
		}
	}
}

func (v *View) register(n *node.Node) *node.Node {
	v.nodes = v.nodes.With(n.Key, n)
	v.writable[n.Key] = true
	return n
}

// NewText creates a detached text node. Detached nodes which are not inserted
// into the tree before commit are dropped.
func (v *View) NewText(text string, format node.Format) *node.Node {
	return v.register(node.NewText(v.newKey(), text, format))
}

// NewElement creates a detached element node.
func (v *View) NewElement(kind node.Kind) *node.Node {
	return v.register(node.NewElement(v.newKey(), kind))
}

// NewLineBreak creates a detached line break.
func (v *View) NewLineBreak() *node.Node {
	return v.register(node.NewLineBreak(v.newKey()))
}

// Add registers a node created elsewhere, e.g. received from a collaborator.
// The node is taken over by the view and must not be modified by the caller
// afterwards. Its parent and child links are kept as they are.
func (v *View) Add(n *node.Node) error {
	if v.nodes.Has(n.Key) {
		return fmt.Errorf("%w: %s", ErrExists, n.Key)
	}
	v.register(n)
	return nil
}

// --- Selection -------------------------------------------------------------

// Selection returns the editing range bound to the pending selection.
func (v *View) Selection() *Range {
	return &Range{v: v}
}

// CurrentSelection returns a copy of the pending selection, or nil.
func (v *View) CurrentSelection() *state.Selection {
	return v.sel.Clone()
}

// SetSelection replaces the pending selection. It is validated at commit.
func (v *View) SetSelection(sel *state.Selection) {
	v.sel = sel.Clone()
}

// SetCaret collapses the pending selection to p.
func (v *View) SetCaret(p state.Point) {
	v.sel = state.Caret(p)
}

// ClearSelection removes the pending selection.
func (v *View) ClearSelection() {
	v.sel = nil
}

// mapPoints applies f to both points of the pending selection.
func (v *View) mapPoints(f func(state.Point) state.Point) {
	if v.sel == nil {
		return
	}
	v.sel.Anchor = f(v.sel.Anchor)
	v.sel.Focus = f(v.sel.Focus)
}

// startPoint returns the first caret position within the subtree of key.
func (v *View) startPoint(key node.Key) state.Point {
	n := v.lookup(key)
	switch {
	case n.IsText():
		return state.TextAt(key, 0)
	case n.IsElement() && len(n.Children) > 0:
		return v.startPoint(n.Children[0])
	case n.IsElement():
		return state.ElementAt(key, 0)
	}
	return state.ElementAt(n.Parent, state.IndexOf(v, key))
}

// endPoint returns the last caret position within the subtree of key.
func (v *View) endPoint(key node.Key) state.Point {
	n := v.lookup(key)
	switch {
	case n.IsText():
		return state.TextAt(key, n.Len())
	case n.IsElement() && len(n.Children) > 0:
		return v.endPoint(n.Children[len(n.Children)-1])
	case n.IsElement():
		return state.ElementAt(key, 0)
	}
	return state.ElementAt(n.Parent, state.IndexOf(v, key)+1)
}
