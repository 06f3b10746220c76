package editor

import (
	"strings"

	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// Range is the editing handle for the pending selection of a view.
// Operations on a view without selection return ErrNoSelection.
type Range struct {
	v *View
}

func (r *Range) check() error {
	if r.v.sel == nil {
		return ErrNoSelection
	}
	return nil
}

// Anchor returns the anchor point of the selection.
func (r *Range) Anchor() state.Point {
	if r.v.sel == nil {
		return state.Point{}
	}
	return r.v.sel.Anchor
}

// Focus returns the focus point of the selection.
func (r *Range) Focus() state.Point {
	if r.v.sel == nil {
		return state.Point{}
	}
	return r.v.sel.Focus
}

// IsCaret is true if the selection is collapsed.
func (r *Range) IsCaret() bool {
	return r.v.sel != nil && r.v.sel.IsCaret()
}

// IsBackward is true if the focus lies before the anchor.
func (r *Range) IsBackward() bool {
	return r.v.sel != nil && r.v.sel.IsBackward(r.v)
}

// Points returns the points of the selection in document order.
func (r *Range) Points() (start, end state.Point) {
	if r.v.sel == nil {
		return
	}
	return r.v.sel.Ordered(r.v)
}

// Collapse collapses the selection to its start or end.
func (r *Range) Collapse(toStart bool) {
	if r.v.sel == nil {
		return
	}
	start, end := r.Points()
	if toStart {
		r.v.SetCaret(start)
	} else {
		r.v.SetCaret(end)
	}
}

// Nodes returns the leaves spanned by the selection, in document order.
// For a caret it returns the node of the anchor.
func (r *Range) Nodes() []*node.Node {
	v := r.v
	if v.sel == nil {
		return nil
	}
	if v.sel.IsCaret() {
		return []*node.Node{v.lookup(v.sel.Anchor.Key)}
	}
	start, end := r.Points()
	first, last := v.leafAtOrAfter(start), v.leafAtOrBefore(end)
	if first == nil || last == nil {
		return nil
	}
	if state.ComparePoints(v, v.startPoint(first.Key), v.endPoint(last.Key)) > 0 {
		return nil
	}
	return state.Leaves(v, first.Key, last.Key)
}

func (v *View) leafAtOrAfter(p state.Point) *node.Node {
	n := v.lookup(p.Key)
	if p.Type == state.TextPoint || len(n.Children) == 0 {
		return n
	}
	if p.Offset < len(n.Children) {
		return state.FirstLeaf(v, n.Children[p.Offset])
	}
	return state.NextLeaf(v, n.Key)
}

func (v *View) leafAtOrBefore(p state.Point) *node.Node {
	n := v.lookup(p.Key)
	if p.Type == state.TextPoint || len(n.Children) == 0 {
		return n
	}
	if p.Offset > 0 {
		return state.LastLeaf(v, n.Children[p.Offset-1])
	}
	return state.PrevLeaf(v, n.Key)
}

// TextContent returns the text spanned by the selection. Blocks are
// separated the same way as by state.TextContentOf.
func (r *Range) TextContent() string {
	if r.IsCaret() || r.v.sel == nil {
		return ""
	}
	v := r.v
	start, end := r.Points()
	var sb strings.Builder
	var prev *node.Node
	for _, n := range r.Nodes() {
		if prev != nil {
			b1, b2 := state.BlockOf(v, prev.Key), state.BlockOf(v, n.Key)
			if b1 != nil && b2 != nil && b1.Key != b2.Key {
				if b1.Parent == node.RootKey && b2.Parent == node.RootKey {
					sb.WriteString("\n\n")
				} else {
					sb.WriteByte('\n')
				}
			}
		}
		prev = n
		switch n.Kind {
		case node.KindText:
			from, to := 0, n.Len()
			if start.Type == state.TextPoint && start.Key == n.Key {
				from = start.Offset
			}
			if end.Type == state.TextPoint && end.Key == n.Key {
				to = end.Offset
			}
			sb.WriteString(grapheme.Slice(n.Text, from, to))
		case node.KindLineBreak:
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// --- Navigation ------------------------------------------------------------

// Caret movement works on leaf positions: a leaf and an offset into it. For
// normal text the offset counts runes, atomic leaves have the positions 0
// (before) and 1 (after).

func leafEnd(n *node.Node) int {
	if n.IsSimpleText() {
		return n.Len()
	}
	if n.IsElement() {
		return 0
	}
	return 1
}

func (v *View) toLeaf(p state.Point) (*node.Node, int) {
	n := v.lookup(p.Key)
	if p.Type == state.TextPoint {
		if !n.IsSimpleText() && p.Offset > 0 {
			return n, 1
		}
		return n, p.Offset
	}
	if len(n.Children) == 0 {
		return n, 0
	}
	if p.Offset < len(n.Children) {
		return state.FirstLeaf(v, n.Children[p.Offset]), 0
	}
	l := state.LastLeaf(v, n.Children[len(n.Children)-1])
	return l, leafEnd(l)
}

func (v *View) fromLeaf(l *node.Node, off int) state.Point {
	switch {
	case l.IsSimpleText():
		return state.TextAt(l.Key, off)
	case l.IsText():
		if off > 0 {
			return state.TextAt(l.Key, l.Len())
		}
		return state.TextAt(l.Key, 0)
	case l.IsElement():
		return state.ElementAt(l.Key, 0)
	}
	return state.ElementAt(l.Parent, state.IndexOf(v, l.Key)+off)
}

func (v *View) sameBlock(a, b node.Key) bool {
	ba, bb := state.BlockOf(v, a), state.BlockOf(v, b)
	return ba != nil && bb != nil && ba.Key == bb.Key
}

// stepForward returns the leaf position one grapheme after (l, off).
func (v *View) stepForward(l *node.Node, off int) (*node.Node, int) {
	seg := v.Segmenter()
	if off < leafEnd(l) {
		if l.IsSimpleText() {
			return l, grapheme.Next(seg, l.Text, off)
		}
		return l, leafEnd(l)
	}
	for cur, n := l, state.NextLeaf(v, l.Key); n != nil; cur, n = n, state.NextLeaf(v, n.Key) {
		if !v.sameBlock(cur.Key, n.Key) {
			return n, 0
		}
		if n.IsSimpleText() {
			if n.Len() == 0 {
				continue
			}
			return n, grapheme.Next(seg, n.Text, 0)
		}
		return n, leafEnd(n)
	}
	return l, off
}

// stepBackward returns the leaf position one grapheme before (l, off).
func (v *View) stepBackward(l *node.Node, off int) (*node.Node, int) {
	seg := v.Segmenter()
	if off > 0 {
		if l.IsSimpleText() {
			return l, grapheme.Prev(seg, l.Text, off)
		}
		return l, 0
	}
	for cur, p := l, state.PrevLeaf(v, l.Key); p != nil; cur, p = p, state.PrevLeaf(v, p.Key) {
		if !v.sameBlock(cur.Key, p.Key) {
			return p, leafEnd(p)
		}
		if p.IsSimpleText() {
			if p.Len() == 0 {
				continue
			}
			return p, grapheme.Prev(seg, p.Text, p.Len())
		}
		return p, 0
	}
	return l, off
}

// MoveForward moves the focus one grapheme cluster forward. Without extend,
// a range selection collapses to its end first, and anchor and focus move
// together.
func (r *Range) MoveForward(extend bool) error {
	return r.move(extend, true)
}

// MoveBackward moves the focus one grapheme cluster backward.
func (r *Range) MoveBackward(extend bool) error {
	return r.move(extend, false)
}

func (r *Range) move(extend, forward bool) error {
	if err := r.check(); err != nil {
		return err
	}
	v := r.v
	if !extend && !v.sel.IsCaret() {
		r.Collapse(!forward)
		return nil
	}
	l, off := v.toLeaf(v.sel.Focus)
	if forward {
		l, off = v.stepForward(l, off)
	} else {
		l, off = v.stepBackward(l, off)
	}
	focus := v.fromLeaf(l, off)
	if extend {
		v.sel = state.Range(v.sel.Anchor, focus)
	} else {
		v.SetCaret(focus)
	}
	return nil
}

// resolveText converts a point into a point within normal text, creating an
// empty text node where there is none: for element points, and for points
// on immutable text.
func (v *View) resolveText(p state.Point) (state.Point, error) {
	n := v.lookup(p.Key)
	if p.Type == state.TextPoint {
		if n.IsSimpleText() {
			return p, nil
		}
		t := v.NewText("", 0)
		var err error
		if p.Offset == 0 {
			err = v.InsertBefore(n.Key, t.Key)
		} else {
			err = v.InsertAfter(n.Key, t.Key)
		}
		return state.TextAt(t.Key, 0), err
	}
	if n.Kind.HoldsInline() {
		if i := p.Offset; i > 0 && i <= len(n.Children) {
			if c := v.lookup(n.Children[i-1]); c.IsSimpleText() {
				return state.TextAt(c.Key, c.Len()), nil
			}
		}
		if i := p.Offset; i >= 0 && i < len(n.Children) {
			if c := v.lookup(n.Children[i]); c.IsSimpleText() {
				return state.TextAt(c.Key, 0), nil
			}
		}
		t := v.NewText("", 0)
		return state.TextAt(t.Key, 0), v.InsertAt(n.Key, p.Offset, t.Key)
	}
	kind := node.KindParagraph
	if n.Kind == node.KindList {
		kind = node.KindListItem
	}
	b := v.NewElement(kind)
	t := v.NewText("", 0)
	if err := v.Append(b.Key, t.Key); err != nil {
		return p, err
	}
	return state.TextAt(t.Key, 0), v.InsertAt(n.Key, p.Offset, b.Key)
}

// caret resolves a caret selection to a normal text point and stores it.
func (r *Range) caret() (*node.Node, int, error) {
	p, err := r.v.resolveText(r.v.sel.Anchor)
	if err != nil {
		return nil, 0, err
	}
	r.v.SetCaret(p)
	return r.v.lookup(p.Key), p.Offset, nil
}
