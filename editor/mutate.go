package editor

import (
	"fmt"

	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// Structural mutators operate through Writable only. They keep the pending
// selection consistent: element points are shifted when children are added
// or removed, and text points follow text when it is split or spliced.

func (v *View) existing(key node.Key) (*node.Node, error) {
	n := v.lookup(key)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchNode, key)
	}
	return n, nil
}

func (v *View) text(key node.Key) (*node.Node, error) {
	n, err := v.existing(key)
	if err != nil {
		return nil, err
	}
	if !n.IsText() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotText, key, n.Kind)
	}
	return n, nil
}

// detach unlinks key from its parent.
func (v *View) detach(key node.Key) {
	n := v.lookup(key)
	if n.Parent == node.NoKey {
		return
	}
	if p := v.lookup(n.Parent); p != nil {
		if at := p.IndexOf(key); at >= 0 {
			w := v.Writable(p.Key)
			w.Children = append(w.Children[:at:at], w.Children[at+1:]...)
			v.shiftElementPoints(p.Key, at, -1)
		}
	}
	v.Writable(key).Parent = node.NoKey
}

// shiftElementPoints moves element points on parent beyond index by delta.
func (v *View) shiftElementPoints(parent node.Key, index, delta int) {
	v.mapPoints(func(p state.Point) state.Point {
		if p.Type == state.ElementPoint && p.Key == parent && p.Offset > index {
			p.Offset += delta
		}
		return p
	})
}

// InsertAt inserts child into the children of parent at index. If child is
// attached somewhere else, it is moved.
func (v *View) InsertAt(parent node.Key, index int, child node.Key) error {
	p, err := v.existing(parent)
	if err != nil {
		return err
	}
	c, err := v.existing(child)
	if err != nil {
		return err
	}
	switch {
	case child == node.RootKey:
		return ErrRoot
	case !p.IsElement():
		return fmt.Errorf("%w: %s is %s", ErrNotElement, parent, p.Kind)
	case child == parent || state.IsAncestor(v, child, parent):
		return fmt.Errorf("%w: %s into %s", ErrCycle, child, parent)
	}
	if c.Parent == parent {
		if at := p.IndexOf(child); at >= 0 && at < index {
			index--
		}
	}
	v.detach(child)
	w := v.Writable(parent)
	if index < 0 {
		index = 0
	} else if index > len(w.Children) {
		index = len(w.Children)
	}
	w.Children = append(w.Children[:index:index], append([]node.Key{child}, w.Children[index:]...)...)
	v.shiftElementPoints(parent, index, 1)
	v.Writable(child).Parent = parent
	return nil
}

// Append appends child to the children of parent.
func (v *View) Append(parent, child node.Key) error {
	p, err := v.existing(parent)
	if err != nil {
		return err
	}
	return v.InsertAt(parent, len(p.Children), child)
}

func (v *View) sibling(ref node.Key) (*node.Node, int, error) {
	r, err := v.existing(ref)
	if err != nil {
		return nil, 0, err
	}
	p := v.lookup(r.Parent)
	if p == nil {
		return nil, 0, fmt.Errorf("%w: %s is detached", ErrNoSuchNode, ref)
	}
	return p, p.IndexOf(ref), nil
}

// InsertBefore inserts child as the previous sibling of ref.
func (v *View) InsertBefore(ref, child node.Key) error {
	p, at, err := v.sibling(ref)
	if err != nil || ref == child {
		return err
	}
	return v.InsertAt(p.Key, at, child)
}

// InsertAfter inserts child as the next sibling of ref.
func (v *View) InsertAfter(ref, child node.Key) error {
	p, at, err := v.sibling(ref)
	if err != nil || ref == child {
		return err
	}
	return v.InsertAt(p.Key, at+1, child)
}

// Replace puts node with in the place of node old and removes old.
func (v *View) Replace(old, with node.Key) error {
	if old == node.RootKey {
		return ErrRoot
	}
	if err := v.InsertBefore(old, with); err != nil {
		return err
	}
	return v.Remove(old)
}

// Remove detaches key from the tree. The subtree of key becomes unreachable
// and is dropped at commit. Selection points inside the subtree are moved to
// the end of the previous sibling, the start of the next sibling, or the
// parent, in that order of preference.
func (v *View) Remove(key node.Key) error {
	if key == node.RootKey {
		return ErrRoot
	}
	n, err := v.existing(key)
	if err != nil {
		return err
	}
	if n.Parent == node.NoKey {
		return nil
	}
	if v.sel != nil && (v.inSubtree(key, v.sel.Anchor.Key) || v.inSubtree(key, v.sel.Focus.Key)) {
		fallback := v.fallbackPoint(key)
		v.mapPoints(func(p state.Point) state.Point {
			if v.inSubtree(key, p.Key) {
				return fallback
			}
			return p
		})
	}
	v.detach(key)
	return nil
}

func (v *View) inSubtree(root, key node.Key) bool {
	return key == root || state.IsAncestor(v, root, key)
}

func (v *View) fallbackPoint(key node.Key) state.Point {
	if ps := state.PrevSibling(v, key); ps != nil {
		return v.endPoint(ps.Key)
	}
	if ns := state.NextSibling(v, key); ns != nil {
		return v.startPoint(ns.Key)
	}
	n := v.lookup(key)
	return state.ElementAt(n.Parent, state.IndexOf(v, key))
}

// Unwrap replaces element key by its children.
func (v *View) Unwrap(key node.Key) error {
	p, at, err := v.sibling(key)
	if err != nil {
		return err
	}
	n := v.lookup(key)
	if !n.IsElement() {
		return fmt.Errorf("%w: %s is %s", ErrNotElement, key, n.Kind)
	}
	v.mapPoints(func(pt state.Point) state.Point {
		if pt.Type == state.ElementPoint && pt.Key == key {
			return state.ElementAt(p.Key, at+pt.Offset)
		}
		return pt
	})
	children := append([]node.Key(nil), n.Children...)
	for i, ch := range children {
		if err := v.InsertAt(p.Key, at+i, ch); err != nil {
			return err
		}
	}
	return v.Remove(key)
}

// moveChildren appends all children of from to the children of to.
func (v *View) moveChildren(from, to node.Key) error {
	children := append([]node.Key(nil), v.lookup(from).Children...)
	for _, ch := range children {
		if err := v.Append(to, ch); err != nil {
			return err
		}
	}
	return nil
}

// SplitText splits a text node at a rune offset. The text after the offset
// moves into a new node of the same format, inserted as the next sibling.
// Selection points beyond the offset move along with the text.
func (v *View) SplitText(key node.Key, offset int) (*node.Node, error) {
	n, err := v.text(key)
	if err != nil {
		return nil, err
	}
	if n.Mode == node.ModeImmutable {
		return nil, fmt.Errorf("%w: %s", ErrImmutable, key)
	}
	if offset < 0 {
		offset = 0
	} else if offset > n.Len() {
		offset = n.Len()
	}
	left, right := grapheme.SplitAt(n.Text, offset)
	v.Writable(key).Text = left
	r := v.NewText(right, n.Format)
	if n.Parent != node.NoKey {
		if err := v.InsertAfter(key, r.Key); err != nil {
			return nil, err
		}
	}
	v.mapPoints(func(p state.Point) state.Point {
		if p.Type == state.TextPoint && p.Key == key && p.Offset > offset {
			return state.TextAt(r.Key, p.Offset-offset)
		}
		return p
	})
	return v.lookup(r.Key), nil
}

// SpliceText removes count runes at rune offset start of a text node and
// inserts text in their place. Selection points on the node after the
// removed range are shifted, points inside it collapse to start.
func (v *View) SpliceText(key node.Key, start, count int, text string) error {
	n, err := v.text(key)
	if err != nil {
		return err
	}
	length := n.Len()
	if start < 0 {
		start = 0
	} else if start > length {
		start = length
	}
	if count < 0 {
		count = 0
	} else if start+count > length {
		count = length - start
	}
	if count == 0 && text == "" {
		return nil
	}
	v.Writable(key).Text = grapheme.Splice(n.Text, start, count, text)
	delta := grapheme.Len(text) - count
	v.mapPoints(func(p state.Point) state.Point {
		if p.Type == state.TextPoint && p.Key == key && p.Offset > start {
			if p.Offset >= start+count {
				p.Offset += delta
			} else {
				p.Offset = start
			}
		}
		return p
	})
	return nil
}

// SetText replaces the complete text of a text node.
func (v *View) SetText(key node.Key, text string) error {
	n, err := v.text(key)
	if err != nil || n.Text == text {
		return err
	}
	return v.SpliceText(key, 0, n.Len(), text)
}

// SetTextFormat sets the format flags of a text node.
func (v *View) SetTextFormat(key node.Key, f node.Format) error {
	n, err := v.text(key)
	if err != nil {
		return err
	}
	if n.Format != f {
		v.Writable(key).Format = f
	}
	return nil
}

// SetTextMode sets the mode of a text node.
func (v *View) SetTextMode(key node.Key, m node.TextMode) error {
	n, err := v.text(key)
	if err != nil {
		return err
	}
	if n.Mode != m {
		v.Writable(key).Mode = m
	}
	return nil
}
