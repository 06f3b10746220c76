package editor

import (
	"testing"

	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newInline creates an editor with one paragraph holding the given inline
// nodes. Nodes are created by the make functions, in order.
func newInline(t *testing.T, makers ...func(*View) *node.Node) (*Editor, node.Key, []node.Key) {
	ed := New(WithKeyPrefix("t"))
	var para node.Key
	var keys []node.Key
	require.NoError(t, ed.Update(func(v *View) error {
		p := v.NewElement(node.KindParagraph)
		para = p.Key
		for _, mk := range makers {
			n := mk(v)
			keys = append(keys, n.Key)
			if err := v.Append(p.Key, n.Key); err != nil {
				return err
			}
		}
		return v.Append(node.RootKey, p.Key)
	}))
	return ed, para, keys
}

func text(s string) func(*View) *node.Node {
	return func(v *View) *node.Node { return v.NewText(s, 0) }
}

func token(s string) func(*View) *node.Node {
	return func(v *View) *node.Node {
		n := v.NewText(s, 0)
		n.Mode = node.ModeImmutable
		return n
	}
}

func bold(s string) func(*View) *node.Node {
	return func(v *View) *node.Node { return v.NewText(s, node.Bold) }
}

func lineBreak(v *View) *node.Node {
	return v.NewLineBreak()
}

func TestDeleteGraphemeClusters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, keys := newDoc(t, "a👍🏽b")
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 3)))
	edit(t, ed, (*Range).DeleteBackward)
	assert.Equal(t, "ab", textOf(ed, keys[0]))
	assert.Equal(t, state.Caret(state.TextAt(keys[0], 1)), ed.State().Selection())
	//
	ed, keys = newDoc(t, "éx")
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 0)))
	edit(t, ed, (*Range).DeleteForward)
	assert.Equal(t, "x", textOf(ed, keys[0]))
}

func TestDeleteMergesBlocks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, keys := newDoc(t, "hello", "world")
	setSelection(t, ed, state.Caret(state.TextAt(keys[1], 0)))
	edit(t, ed, (*Range).DeleteBackward)
	s := ed.State()
	assert.Equal(t, "helloworld", s.TextContent())
	assert.Len(t, s.Root().Children, 1)
	assert.Equal(t, state.Caret(state.TextAt(keys[0], 5)), s.Selection())
	assert.NoError(t, state.ValidateAll(s.Table()))
	//
	ed, keys = newDoc(t, "hello", "world")
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 5)))
	edit(t, ed, (*Range).DeleteForward)
	s = ed.State()
	assert.Equal(t, "helloworld", s.TextContent())
	assert.Equal(t, state.Caret(state.TextAt(keys[0], 5)), s.Selection())
	// at the very start of the document, nothing happens
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 0)))
	edit(t, ed, (*Range).DeleteBackward)
	assert.Equal(t, "helloworld", ed.State().TextContent())
}

func TestDeleteImmutableWholesale(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, para, keys := newInline(t, text("ab"), token("@bob"), text("cd"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[2], 0)))
	edit(t, ed, (*Range).DeleteBackward)
	s := ed.State()
	assert.False(t, s.Has(keys[1]))
	assert.Equal(t, "abcd", state.TextContentOf(s, para))
	assert.Equal(t, state.Caret(state.TextAt(keys[0], 2)), s.Selection())
	//
	ed, para, keys = newInline(t, text("ab"), token("@bob"), text("cd"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 2)))
	edit(t, ed, (*Range).DeleteForward)
	assert.Equal(t, "abcd", state.TextContentOf(ed.State(), para))
}

func TestDeleteLineBreak(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, para, keys := newInline(t, text("ab"), lineBreak, text("cd"))
	assert.Equal(t, "ab\ncd", state.TextContentOf(ed.State(), para))
	setSelection(t, ed, state.Caret(state.TextAt(keys[2], 0)))
	edit(t, ed, (*Range).DeleteBackward)
	assert.Equal(t, "abcd", state.TextContentOf(ed.State(), para))
}

func TestInsertThenDeleteRestores(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	for _, insert := range []string{"x", "é", "👍🏽", "🇩🇪"} {
		for at := 0; at <= 5; at++ {
			ed, keys := newDoc(t, "hello")
			caret := state.Caret(state.TextAt(keys[0], at))
			setSelection(t, ed, caret)
			edit(t, ed, func(r *Range) error { return r.InsertText(insert) })
			edit(t, ed, (*Range).DeleteBackward)
			assert.Equal(t, "hello", textOf(ed, keys[0]), "insert %q at %d", insert, at)
			assert.Equal(t, caret, ed.State().Selection(), "insert %q at %d", insert, at)
		}
	}
}

func TestDeleteRange(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, keys := newDoc(t, "hello", "big", "world")
	// a backward range is deleted just the same
	setSelection(t, ed, state.Range(state.TextAt(keys[2], 3), state.TextAt(keys[0], 2)))
	edit(t, ed, (*Range).DeleteForward)
	s := ed.State()
	assert.Equal(t, "held", s.TextContent())
	assert.Equal(t, state.Caret(state.TextAt(keys[0], 2)), s.Selection())
	assert.NoError(t, state.ValidateAll(s.Table()))
}

func TestDeleteOnContainer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, _ := newDoc(t, "hello", "world")
	setSelection(t, ed, state.Caret(state.ElementAt(node.RootKey, 1)))
	edit(t, ed, (*Range).DeleteBackward)
	assert.Equal(t, "world", ed.State().TextContent())
}

func TestDeleteWords(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, keys := newDoc(t, "hello big world")
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 15)))
	edit(t, ed, (*Range).DeleteWordBackward)
	assert.Equal(t, "hello big", textOf(ed, keys[0]))
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 0)))
	edit(t, ed, (*Range).DeleteWordForward)
	assert.Equal(t, "big", textOf(ed, keys[0]))
	// punctuation runs count as words of their own
	ed, keys = newDoc(t, "stop... now")
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 7)))
	edit(t, ed, (*Range).DeleteWordBackward)
	assert.Equal(t, "stop now", textOf(ed, keys[0]))
}

func TestDeleteWordsAcrossFormats(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, para, keys := newInline(t, bold("say hel"), text("lo"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[1], 2)))
	edit(t, ed, (*Range).DeleteWordBackward)
	assert.Equal(t, "say", state.TextContentOf(ed.State(), para))
	assert.Equal(t, state.Caret(state.TextAt(keys[0], 3)), ed.State().Selection())
	assert.NoError(t, state.ValidateAll(ed.State().Table()))
	// caret at the start of a node deletes the word of the preceding node
	ed, para, keys = newInline(t, text("say "), bold("hello"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[1], 0)))
	edit(t, ed, (*Range).DeleteWordBackward)
	assert.Equal(t, "hello", state.TextContentOf(ed.State(), para))
	//
	ed, para, keys = newInline(t, text("hel"), bold("lo world"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 0)))
	edit(t, ed, (*Range).DeleteWordForward)
	assert.Equal(t, "world", state.TextContentOf(ed.State(), para))
	// immutable text ends a word and is deleted as a whole
	ed, para, keys = newInline(t, token("@someone"), text("say"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[1], 0)))
	edit(t, ed, (*Range).DeleteWordBackward)
	assert.Equal(t, "say", state.TextContentOf(ed.State(), para))
}

func TestDeleteLines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.editor")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, para, keys := newInline(t, text("ab"), lineBreak, text("cdef"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[2], 2)))
	edit(t, ed, (*Range).DeleteLineBackward)
	assert.Equal(t, "ab\nef", state.TextContentOf(ed.State(), para))
	assert.Equal(t, state.Caret(state.TextAt(keys[2], 0)), ed.State().Selection())
	// at the start of a line, the line break goes
	edit(t, ed, (*Range).DeleteLineBackward)
	assert.Equal(t, "abef", state.TextContentOf(ed.State(), para))
	//
	ed, para, keys = newInline(t, text("ab"), lineBreak, text("cd"))
	setSelection(t, ed, state.Caret(state.TextAt(keys[0], 1)))
	edit(t, ed, (*Range).DeleteLineForward)
	assert.Equal(t, "a\ncd", state.TextContentOf(ed.State(), para))
}
