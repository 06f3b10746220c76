package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// onContainer is true if the caret is an element point on an element holding
// blocks (the root or a list).
func (r *Range) onContainer() bool {
	p := r.v.sel.Anchor
	return p.Type == state.ElementPoint && !r.v.lookup(p.Key).Kind.HoldsInline()
}

// deleteChildAt removes child i of a container wholesale.
func (v *View) deleteChildAt(container node.Key, i int) error {
	c := v.lookup(container)
	if i < 0 || i >= len(c.Children) {
		return nil
	}
	return v.Remove(c.Children[i])
}

// prevInBlock returns the leaf before key within its block, skipping empty
// text nodes.
func (v *View) prevInBlock(key node.Key) *node.Node {
	l := state.PrevLeafInBlock(v, key)
	for l != nil && l.IsSimpleText() && l.Len() == 0 {
		l = state.PrevLeafInBlock(v, l.Key)
	}
	return l
}

// nextInBlock returns the leaf after key within its block, skipping empty
// text nodes.
func (v *View) nextInBlock(key node.Key) *node.Node {
	l := state.NextLeafInBlock(v, key)
	for l != nil && l.IsSimpleText() && l.Len() == 0 {
		l = state.NextLeafInBlock(v, l.Key)
	}
	return l
}

// DeleteBackward deletes the grapheme cluster before the caret, or the
// content of a range selection.
//
// At the start of a text node, the previous leaf of the same block is
// looked at: immutable leaves are removed as a whole, plain text loses its
// last grapheme cluster. At the start of a block, the block is merged into
// the previous one.
func (r *Range) DeleteBackward() error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.v.sel.IsCaret() {
		return r.removeRange()
	}
	v := r.v
	if r.onContainer() {
		p := v.sel.Anchor
		return v.deleteChildAt(p.Key, p.Offset-1)
	}
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	seg := v.Segmenter()
	if o > 0 {
		start := grapheme.Prev(seg, t.Text, o)
		return v.SpliceText(t.Key, start, o-start, "")
	}
	prev := v.prevInBlock(t.Key)
	switch {
	case prev == nil:
		return v.mergeWithPrevious(t)
	case prev.IsSimpleText():
		l := prev.Len()
		start := grapheme.Prev(seg, prev.Text, l)
		if err := v.SpliceText(prev.Key, start, l-start, ""); err != nil {
			return err
		}
		v.SetCaret(state.TextAt(prev.Key, start))
		return nil
	}
	parent := prev.Parent
	if err := v.Remove(prev.Key); err != nil {
		return err
	}
	v.pruneEmpty(parent)
	return nil
}

// DeleteForward deletes the grapheme cluster after the caret, or the content
// of a range selection. At the end of a block, the next block is merged into
// the current one.
func (r *Range) DeleteForward() error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.v.sel.IsCaret() {
		return r.removeRange()
	}
	v := r.v
	if r.onContainer() {
		p := v.sel.Anchor
		return v.deleteChildAt(p.Key, p.Offset)
	}
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	seg := v.Segmenter()
	if o < t.Len() {
		return v.SpliceText(t.Key, o, grapheme.Next(seg, t.Text, o)-o, "")
	}
	next := v.nextInBlock(t.Key)
	switch {
	case next == nil:
		return v.mergeWithNext(t)
	case next.IsSimpleText():
		return v.SpliceText(next.Key, 0, grapheme.Next(seg, next.Text, 0), "")
	}
	parent := next.Parent
	if err := v.Remove(next.Key); err != nil {
		return err
	}
	v.pruneEmpty(parent)
	return nil
}

// mergeWithPrevious merges the block of t into the previous block and puts
// the caret at the seam.
func (v *View) mergeWithPrevious(t *node.Node) error {
	b := state.BlockOf(v, t.Key)
	pl := state.PrevLeaf(v, t.Key)
	if b == nil || pl == nil {
		return nil
	}
	pb := state.BlockOf(v, pl.Key)
	if pb == nil || pb.Key == b.Key {
		return nil
	}
	seam := v.endPoint(pb.Key)
	if err := v.mergeBlocks(pb.Key, b.Key); err != nil {
		return err
	}
	v.SetCaret(seam)
	return nil
}

// mergeWithNext merges the block following the block of t into it. The
// caret stays where it is.
func (v *View) mergeWithNext(t *node.Node) error {
	b := state.BlockOf(v, t.Key)
	nl := state.NextLeaf(v, t.Key)
	if b == nil || nl == nil {
		return nil
	}
	nb := state.BlockOf(v, nl.Key)
	if nb == nil || nb.Key == b.Key {
		return nil
	}
	return v.mergeBlocks(b.Key, nb.Key)
}

// DeleteWordBackward deletes from the caret back to the start of the word
// before it: whitespace before the caret, the word, and the whitespace
// separating it from its predecessor. Words may span adjacent text nodes of
// different formats. Where no plain text precedes the caret, it behaves like
// DeleteBackward.
func (r *Range) DeleteWordBackward() error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.v.sel.IsCaret() {
		return r.removeRange()
	}
	if r.onContainer() {
		return r.DeleteBackward()
	}
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	if !t.IsSimpleText() {
		return r.DeleteBackward()
	}
	run, text, pos := r.v.textRun(t, o)
	start := grapheme.WordStartBefore(r.v.Segmenter(), text, pos)
	if start == pos {
		return r.DeleteBackward()
	}
	r.v.sel = state.Range(pointAt(run, start), state.TextAt(t.Key, o))
	return r.removeRange()
}

// DeleteWordForward is the mirror image of DeleteWordBackward.
func (r *Range) DeleteWordForward() error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.v.sel.IsCaret() {
		return r.removeRange()
	}
	if r.onContainer() {
		return r.DeleteForward()
	}
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	if !t.IsSimpleText() {
		return r.DeleteForward()
	}
	run, text, pos := r.v.textRun(t, o)
	end := grapheme.WordEndAfter(r.v.Segmenter(), text, pos)
	if end == pos {
		return r.DeleteForward()
	}
	r.v.sel = state.Range(state.TextAt(t.Key, o), pointAt(run, end))
	return r.removeRange()
}

// textRun collects the plain text leaves adjacent to t within its block,
// regardless of their format. It returns them in document order together
// with their concatenated text and the position of offset o of t in it.
func (v *View) textRun(t *node.Node, o int) (run []*node.Node, text string, pos int) {
	var before []*node.Node
	for l := v.prevInBlock(t.Key); l != nil && l.IsSimpleText(); l = v.prevInBlock(l.Key) {
		before = append(before, l)
	}
	for i := len(before) - 1; i >= 0; i-- {
		run = append(run, before[i])
	}
	run = append(run, t)
	for l := v.nextInBlock(t.Key); l != nil && l.IsSimpleText(); l = v.nextInBlock(l.Key) {
		run = append(run, l)
	}
	var sb strings.Builder
	for _, l := range run {
		if l.Key == t.Key {
			pos = utf8.RuneCountInString(sb.String()) + o
		}
		sb.WriteString(l.Text)
	}
	return run, sb.String(), pos
}

// DeleteLineBackward deletes from the caret back to the start of the line,
// i.e. the preceding line break or the start of the block. At the start of
// a line it behaves like DeleteBackward.
func (r *Range) DeleteLineBackward() error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.v.sel.IsCaret() {
		return r.removeRange()
	}
	if r.onContainer() {
		return r.DeleteBackward()
	}
	v := r.v
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	caret := state.TextAt(t.Key, o)
	start := state.TextAt(t.Key, 0)
	for l := state.PrevLeafInBlock(v, t.Key); l != nil && l.Kind != node.KindLineBreak; l = state.PrevLeafInBlock(v, l.Key) {
		if l.IsSimpleText() && l.Len() == 0 {
			continue
		}
		start = v.startPoint(l.Key)
	}
	if start == caret {
		return r.DeleteBackward()
	}
	v.sel = state.Range(start, caret)
	return r.removeRange()
}

// DeleteLineForward deletes from the caret to the end of the line.
func (r *Range) DeleteLineForward() error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.v.sel.IsCaret() {
		return r.removeRange()
	}
	if r.onContainer() {
		return r.DeleteForward()
	}
	v := r.v
	t, o, err := r.caret()
	if err != nil {
		return err
	}
	caret := state.TextAt(t.Key, o)
	end := state.TextAt(t.Key, t.Len())
	for l := state.NextLeafInBlock(v, t.Key); l != nil && l.Kind != node.KindLineBreak; l = state.NextLeafInBlock(v, l.Key) {
		if l.IsSimpleText() && l.Len() == 0 {
			continue
		}
		end = v.endPoint(l.Key)
	}
	if end == caret {
		return r.DeleteForward()
	}
	v.sel = state.Range(caret, end)
	return r.removeRange()
}

// pointAt converts a rune offset into the concatenated text of a run of text
// leaves into a text point.
func pointAt(run []*node.Node, off int) state.Point {
	for _, l := range run {
		if off < l.Len() {
			return state.TextAt(l.Key, off)
		}
		off -= l.Len()
	}
	last := run[len(run)-1]
	return state.TextAt(last.Key, last.Len()+off)
}
