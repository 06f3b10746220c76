/*
Package charlimit marks text exceeding a maximum document length.

Once installed on an editor, the character limit takes part in every commit
as a node transform. Text beyond the limit is wrapped into overflow elements
(node.KindOverflow), one per block, so that a renderer can highlight it.
When text is deleted and the document fits again, overflow elements are
unwrapped. Wrapping happens within the transaction that changed the text, so
the committed snapshot is always in shape and undo steps restore wrapped and
unwrapped text alike.

Length is measured in runes or, with option Graphemes, in grapheme clusters.
Line breaks count as one character.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package charlimit

import (
	"github.com/npillmayer/outline/editor"
	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.charlimit'.
func tracer() tracing.Trace {
	return tracing.Select("outline.charlimit")
}

// Tag tags the updates performed by the character limit.
const Tag = "charlimit"

// Option is a type to help configuring a character limit.
type Option struct {
	config func(props) props
}

type props struct {
	graphemes bool
	seg       grapheme.Segmenter
}

// Graphemes counts grapheme clusters instead of runes, using the segmenter of
// the editor.
func Graphemes() Option {
	return Option{config: func(p props) props {
		p.graphemes = true
		return p
	}}
}

// Limit wraps the overflowing text of an editor's document.
type Limit struct {
	props
	ed          *editor.Editor
	max         int
	unregisters []func()
}

// Register installs a character limit of max characters on an editor. The
// current document is checked immediately, in an update tagged with Tag.
func Register(ed *editor.Editor, max int, opts ...Option) *Limit {
	l := &Limit{ed: ed, max: max}
	for _, option := range opts {
		l.props = option.config(l.props)
	}
	if l.seg = ed.Segmenter(); l.seg == nil {
		l.seg = grapheme.Default
	}
	for kind := node.KindRoot; kind <= node.KindLineBreak; kind++ {
		l.unregisters = append(l.unregisters, ed.RegisterTransform(kind, l.transform))
	}
	ed.Schedule(l.enforce, editor.Tag(Tag))
	return l
}

// Close removes the limit. Existing overflow elements stay in place.
func (l *Limit) Close() {
	for _, unregister := range l.unregisters {
		unregister()
	}
	l.unregisters = nil
}

// Max returns the maximum number of characters.
func (l *Limit) Max() int {
	return l.max
}

// Remaining returns the number of characters which may still be added to
// the current document. It is negative if the document is over the limit.
func (l *Limit) Remaining() int {
	return l.max - l.Count(l.ed.State())
}

// Count returns the length of the text of a snapshot.
func (l *Limit) Count(s *state.Snapshot) int {
	n := 0
	for leaf := state.FirstLeaf(s, node.RootKey); leaf != nil; leaf = state.NextLeaf(s, leaf.Key) {
		n += l.length(leaf)
	}
	return n
}

func (l *Limit) length(n *node.Node) int {
	switch n.Kind {
	case node.KindText:
		if l.graphemes {
			return grapheme.Count(l.seg, n.Text)
		}
		return n.Len()
	case node.KindLineBreak:
		return 1
	}
	return 0
}

// offsetOf converts a length in characters into a rune offset into text.
func (l *Limit) offsetOf(text string, chars int) int {
	if !l.graphemes {
		return chars
	}
	return l.seg.Boundaries(text)[chars]
}

// transform is called for every changed node of a transaction. The limit
// depends on the text of the whole document, so the changed node serves as a
// trigger only.
func (l *Limit) transform(v *editor.View, _ *node.Node) error {
	return l.enforce(v)
}

// enforce brings every block in line with the limit. Blocks which are
// already in shape are not touched, which makes enforce a no-op on a
// document it has shaped before.
func (l *Limit) enforce(v *editor.View) error {
	budget := l.max
	for _, b := range blocks(v) {
		leaves := inlineLeaves(v, b)
		if l.inShape(v, b, leaves, budget) {
			if budget -= l.sum(leaves); budget < 0 {
				budget = 0
			}
			continue
		}
		tracer().Debugf("charlimit: reshaping block %s", b)
		var err error
		if budget, err = l.reshape(v, b, budget); err != nil {
			return err
		}
	}
	return nil
}

func (l *Limit) sum(leaves []*node.Node) int {
	n := 0
	for _, leaf := range leaves {
		n += l.length(leaf)
	}
	return n
}

// blocks returns the keys of all blocks holding inline content, in document
// order.
func blocks(r state.Reader) []node.Key {
	var keys []node.Key
	var walk func(node.Key)
	walk = func(k node.Key) {
		n := state.Lookup(r, k)
		if n == nil {
			return
		}
		if n.IsBlock() && n.Kind.HoldsInline() {
			keys = append(keys, k)
			return
		}
		for _, ch := range n.Children {
			walk(ch)
		}
	}
	walk(node.RootKey)
	return keys
}

// inlineLeaves returns the leaves of a block, looking through overflow
// elements.
func inlineLeaves(r state.Reader, block node.Key) []*node.Node {
	var leaves []*node.Node
	for _, ch := range state.Lookup(r, block).Children {
		c := state.Lookup(r, ch)
		if c.Kind == node.KindOverflow {
			for _, gc := range c.Children {
				leaves = append(leaves, state.Lookup(r, gc))
			}
			continue
		}
		leaves = append(leaves, c)
	}
	return leaves
}

// inShape is true if the children of a block are the leaves fitting into
// budget, followed by at most one overflow element holding the rest, and no
// leaf straddles the limit.
func (l *Limit) inShape(r state.Reader, block node.Key, leaves []*node.Node, budget int) bool {
	fit := 0
	for count := 0; fit < len(leaves); fit++ {
		n := l.length(leaves[fit])
		if count+n > budget {
			if count < budget && leaves[fit].IsSimpleText() {
				return false // has to be split
			}
			break
		}
		count += n
	}
	b := state.Lookup(r, block)
	if fit == len(leaves) {
		return !hasOverflow(r, b)
	}
	if len(b.Children) != fit+1 || countOverflow(r, b) != 1 {
		return false
	}
	o := state.Lookup(r, b.Children[fit])
	return o.Kind == node.KindOverflow && len(o.Children) == len(leaves)-fit
}

func hasOverflow(r state.Reader, b *node.Node) bool {
	return countOverflow(r, b) > 0
}

func countOverflow(r state.Reader, b *node.Node) int {
	n := 0
	for _, ch := range b.Children {
		if state.Lookup(r, ch).Kind == node.KindOverflow {
			n++
		}
	}
	return n
}

// reshape unwraps the overflow elements of a block and wraps the text beyond
// budget into a new one. It returns the budget left for following blocks.
func (l *Limit) reshape(v *editor.View, block node.Key, budget int) (int, error) {
	b, _ := v.Node(block)
	for _, ch := range append([]node.Key(nil), b.Children...) {
		if c, _ := v.Node(ch); c.Kind == node.KindOverflow {
			if err := v.Unwrap(ch); err != nil {
				return budget, err
			}
		}
	}
	b, _ = v.Node(block)
	children := append([]node.Key(nil), b.Children...)
	var over []node.Key
	for i, ch := range children {
		c, _ := v.Node(ch)
		n := l.length(c)
		if n <= budget {
			budget -= n
			continue
		}
		if budget > 0 && c.IsSimpleText() {
			right, err := v.SplitText(ch, l.offsetOf(c.Text, budget))
			if err != nil {
				return 0, err
			}
			over = append(over, right.Key)
		} else {
			over = append(over, ch)
		}
		over = append(over, children[i+1:]...)
		budget = 0
		break
	}
	if len(over) == 0 {
		return budget, nil
	}
	o := v.NewElement(node.KindOverflow)
	if err := v.InsertBefore(over[0], o.Key); err != nil {
		return 0, err
	}
	for _, k := range over {
		if err := v.Append(o.Key, k); err != nil {
			return 0, err
		}
	}
	tracer().Debugf("charlimit: wrapped %d nodes of %s into %s", len(over), block, o.Key)
	return 0, nil
}
