package editor

import (
	"fmt"

	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// InsertText inserts text at the caret. A range selection is removed first.
// The inserted text takes the format of the text node at the caret, which is
// how a format marker created by FormatText passes its format on.
func (r *Range) InsertText(text string) error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.v.sel.IsCaret() {
		if err := r.removeRange(); err != nil {
			return err
		}
	}
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	if err := r.v.SpliceText(t.Key, o, 0, text); err != nil {
		return err
	}
	r.v.SetCaret(state.TextAt(t.Key, o+grapheme.Len(text)))
	return nil
}

// RemoveText removes the content of a range selection. It does nothing for
// a caret.
func (r *Range) RemoveText() error {
	if err := r.check(); err != nil {
		return err
	}
	if r.v.sel.IsCaret() {
		return nil
	}
	return r.removeRange()
}

// resolveRange converts both ends of a range selection into points within
// normal text and stores them as a forward selection.
func (r *Range) resolveRange() (start, end state.Point, err error) {
	v := r.v
	backward := v.sel.IsBackward(v)
	_, end = r.Points()
	if end, err = v.resolveText(end); err != nil {
		return
	}
	if backward {
		start = v.sel.Focus
	} else {
		start = v.sel.Anchor
	}
	v.sel = state.Range(start, end)
	if start, err = v.resolveText(start); err != nil {
		return
	}
	v.sel = state.Range(start, end)
	return
}

// removeRange deletes the content between the points of a range selection.
// The leading and trailing partial nodes are trimmed, every leaf strictly
// between them is removed together with elements left empty, and if the
// range spans blocks, the remainder of the end block is merged into the
// start block.
func (r *Range) removeRange() error {
	v := r.v
	sp, ep, err := r.resolveRange()
	if err != nil {
		return err
	}
	s, e := v.lookup(sp.Key), v.lookup(ep.Key)
	if s.Key == e.Key {
		if err := v.SpliceText(s.Key, sp.Offset, ep.Offset-sp.Offset, ""); err != nil {
			return err
		}
		v.SetCaret(sp)
		return nil
	}
	leaves := state.Leaves(v, s.Key, e.Key)
	assertThat(len(leaves) >= 2 && leaves[len(leaves)-1].Key == e.Key,
		"range %s…%s is not in document order", sp, ep)
	bs, be := state.BlockOf(v, s.Key), state.BlockOf(v, e.Key)
	if err := v.SpliceText(s.Key, sp.Offset, s.Len()-sp.Offset, ""); err != nil {
		return err
	}
	if err := v.SpliceText(e.Key, 0, ep.Offset, ""); err != nil {
		return err
	}
	for _, l := range leaves[1 : len(leaves)-1] {
		parent := l.Parent
		if err := v.Remove(l.Key); err != nil {
			return err
		}
		v.pruneEmpty(parent)
	}
	if bs != nil && be != nil && bs.Key != be.Key {
		if err := v.mergeBlocks(bs.Key, be.Key); err != nil {
			return err
		}
	}
	v.SetCaret(sp)
	return nil
}

// mergeBlocks moves the children of block from to the end of block into and
// removes from, together with ancestors left empty.
func (v *View) mergeBlocks(into, from node.Key) error {
	tracer().Debugf("merging block %s into %s", from, into)
	if err := v.moveChildren(from, into); err != nil {
		return err
	}
	parent := v.lookup(from).Parent
	if err := v.Remove(from); err != nil {
		return err
	}
	v.pruneEmpty(parent)
	return nil
}

// pruneEmpty removes key and its ancestors as long as they are elements
// without children. The root is never removed.
func (v *View) pruneEmpty(key node.Key) {
	for key != node.RootKey && key != node.NoKey {
		n := v.lookup(key)
		if n == nil || !n.IsElement() || len(n.Children) > 0 {
			return
		}
		parent := n.Parent
		_ = v.Remove(key)
		key = parent
	}
}

// FormatText toggles format flags f.
//
// For a caret on empty text, the flags are toggled for the text node itself.
// For a caret on non-empty text, an empty marker node carrying the toggled
// flags is inserted at the caret, so that text typed next takes the new
// format while existing text stays untouched.
//
// For a range, the partial nodes at either end are split off and the flags
// are set on every text node in between, or cleared if all of them carry
// the flags already.
func (r *Range) FormatText(f node.Format) error {
	if err := r.check(); err != nil {
		return err
	}
	v := r.v
	if v.sel.IsCaret() {
		t, o, err := r.caret()
		if err != nil {
			return err
		}
		if t.Text == "" {
			return v.SetTextFormat(t.Key, t.Format.Toggle(f))
		}
		m := v.NewText("", t.Format.Toggle(f))
		switch {
		case o == 0:
			err = v.InsertBefore(t.Key, m.Key)
		case o == t.Len():
			err = v.InsertAfter(t.Key, m.Key)
		default:
			if _, err = v.SplitText(t.Key, o); err == nil {
				err = v.InsertAfter(t.Key, m.Key)
			}
		}
		v.SetCaret(state.TextAt(m.Key, 0))
		return err
	}
	backward := v.sel.IsBackward(v)
	sp, ep, err := r.resolveRange()
	if err != nil {
		return err
	}
	last := v.lookup(ep.Key)
	if ep.Offset < last.Len() {
		if _, err := v.SplitText(last.Key, ep.Offset); err != nil {
			return err
		}
	}
	first := v.lookup(sp.Key)
	if sp.Offset > 0 {
		if first, err = v.SplitText(first.Key, sp.Offset); err != nil {
			return err
		}
		if sp.Key == ep.Key {
			last = first
		}
	}
	var targets []*node.Node
	for _, l := range state.Leaves(v, first.Key, last.Key) {
		if l.IsText() && l.Len() > 0 {
			targets = append(targets, l)
		}
	}
	if len(targets) == 0 {
		targets = []*node.Node{first}
	}
	on := false
	for _, t := range targets {
		if !t.Format.Has(f) {
			on = true
			break
		}
	}
	for _, t := range targets {
		if err := v.SetTextFormat(t.Key, t.Format.With(f, on)); err != nil {
			return err
		}
	}
	tail := targets[len(targets)-1]
	anchor, focus := state.TextAt(targets[0].Key, 0), state.TextAt(tail.Key, v.lookup(tail.Key).Len())
	if backward {
		anchor, focus = focus, anchor
	}
	v.sel = state.Range(anchor, focus)
	return nil
}

// splitBlock splits the block containing text node t at offset o. The part
// after the offset moves into a new block of the same kind, inserted after
// the original block. Inline elements between t and the block are split as
// well. It returns the new block and the text node starting it.
func (v *View) splitBlock(t *node.Node, o int) (*node.Node, *node.Node, error) {
	b := state.BlockOf(v, t.Key)
	if b == nil {
		return nil, nil, fmt.Errorf("%w: %s is not inside a block", ErrInvariant, t.Key)
	}
	right, err := v.SplitText(t.Key, o)
	if err != nil {
		return nil, nil, err
	}
	cur := right.Key
	for parent := v.lookup(cur).Parent; parent != b.Key; parent = v.lookup(cur).Parent {
		p := v.lookup(parent)
		half := v.NewElement(p.Kind)
		if err := v.InsertAfter(p.Key, half.Key); err != nil {
			return nil, nil, err
		}
		if err := v.moveTail(parent, p.IndexOf(cur), half.Key); err != nil {
			return nil, nil, err
		}
		cur = half.Key
	}
	nb := v.NewElement(b.Kind)
	nb.Tag, nb.Language = b.Tag, b.Language
	if err := v.InsertAfter(b.Key, nb.Key); err != nil {
		return nil, nil, err
	}
	if err := v.moveTail(b.Key, v.lookup(b.Key).IndexOf(cur), nb.Key); err != nil {
		return nil, nil, err
	}
	return v.lookup(nb.Key), v.lookup(right.Key), nil
}

// moveTail appends the children of parent from index on to element to.
func (v *View) moveTail(parent node.Key, index int, to node.Key) error {
	children := append([]node.Key(nil), v.lookup(parent).Children[index:]...)
	for _, ch := range children {
		if err := v.Append(to, ch); err != nil {
			return err
		}
	}
	return nil
}

// InsertParagraph splits the block at the caret. The new block is of the
// same kind as the current one, except that splitting a heading at its end
// starts a paragraph.
func (r *Range) InsertParagraph() error {
	if err := r.check(); err != nil {
		return err
	}
	v := r.v
	if !v.sel.IsCaret() {
		if err := r.removeRange(); err != nil {
			return err
		}
	}
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	nb, right, err := v.splitBlock(t, o)
	if err != nil {
		return err
	}
	if nb.Kind == node.KindHeading && state.TextContentOf(v, nb.Key) == "" {
		w := v.Writable(nb.Key)
		w.Kind, w.Tag = node.KindParagraph, ""
	}
	v.SetCaret(state.TextAt(right.Key, 0))
	return nil
}

// InsertLineBreak inserts a line break at the caret.
func (r *Range) InsertLineBreak() error {
	if err := r.check(); err != nil {
		return err
	}
	v := r.v
	if !v.sel.IsCaret() {
		if err := r.removeRange(); err != nil {
			return err
		}
	}
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	right, err := v.SplitText(t.Key, o)
	if err != nil {
		return err
	}
	br := v.NewLineBreak()
	if err := v.InsertAfter(t.Key, br.Key); err != nil {
		return err
	}
	v.SetCaret(state.TextAt(right.Key, 0))
	return nil
}

// InsertNodes inserts detached nodes at the caret, in order. Inline nodes go
// into the current block. A block node splits the current block and is
// placed between the halves; halves left without text are removed. The
// caret ends up behind the last inserted node.
func (r *Range) InsertNodes(keys ...node.Key) error {
	if err := r.check(); err != nil {
		return err
	}
	v := r.v
	if !v.sel.IsCaret() {
		if err := r.removeRange(); err != nil {
			return err
		}
	}
	for _, k := range keys {
		n, err := v.existing(k)
		if err != nil {
			return err
		}
		t, o, err := r.caret()
		if err != nil {
			return err
		}
		if n.IsBlock() {
			err = v.insertBlock(t, o, n)
		} else {
			err = v.insertInline(t, o, n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *View) insertInline(t *node.Node, o int, n *node.Node) error {
	right, err := v.SplitText(t.Key, o)
	if err != nil {
		return err
	}
	if err := v.InsertAfter(t.Key, n.Key); err != nil {
		return err
	}
	if n.IsSimpleText() {
		v.SetCaret(state.TextAt(n.Key, n.Len()))
	} else {
		v.SetCaret(state.TextAt(right.Key, 0))
	}
	return nil
}

func (v *View) insertBlock(t *node.Node, o int, n *node.Node) error {
	b := state.BlockOf(v, t.Key)
	if b == nil {
		return fmt.Errorf("%w: %s is not inside a block", ErrInvariant, t.Key)
	}
	splittable := b.Parent == node.RootKey || (b.Kind == node.KindListItem && n.Kind == node.KindListItem)
	if !splittable {
		top := b
		for top.Parent != node.RootKey && top.Parent != node.NoKey {
			top = v.lookup(top.Parent)
		}
		if err := v.InsertAfter(top.Key, n.Key); err != nil {
			return err
		}
		v.SetCaret(v.endPoint(n.Key))
		return nil
	}
	nb, _, err := v.splitBlock(t, o)
	if err != nil {
		return err
	}
	if err := v.InsertAfter(b.Key, n.Key); err != nil {
		return err
	}
	v.SetCaret(v.endPoint(n.Key))
	for _, half := range []node.Key{b.Key, nb.Key} {
		if state.TextContentOf(v, half) == "" {
			if err := v.Remove(half); err != nil {
				return err
			}
		}
	}
	return nil
}
