package charlimit

import (
	"strings"
	"testing"

	"github.com/npillmayer/outline/editor"
	"github.com/npillmayer/outline/history"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(t *testing.T, texts ...string) (*editor.Editor, []node.Key) {
	ed := editor.New(editor.WithKeyPrefix("t"), editor.ValidateAll())
	var paras []node.Key
	err := ed.Update(func(v *editor.View) error {
		for _, s := range texts {
			p := v.NewElement(node.KindParagraph)
			txt := v.NewText(s, 0)
			if err := v.Append(p.Key, txt.Key); err != nil {
				return err
			}
			if err := v.Append(node.RootKey, p.Key); err != nil {
				return err
			}
			paras = append(paras, p.Key)
		}
		return nil
	})
	require.NoError(t, err)
	return ed, paras
}

// split returns the text of a block before its overflow element and the text
// inside it.
func split(t *testing.T, s *state.Snapshot, block node.Key) (in, over string) {
	b, ok := s.Node(block)
	require.True(t, ok)
	var sb, ob strings.Builder
	overflows := 0
	for _, ch := range b.Children {
		c, _ := s.Node(ch)
		if c.Kind == node.KindOverflow {
			overflows++
			ob.WriteString(state.TextContentOf(s, ch))
			continue
		}
		require.Zero(t, overflows, "overflow element is not last in block %s", block)
		sb.WriteString(c.Text)
	}
	require.LessOrEqual(t, overflows, 1)
	return sb.String(), ob.String()
}

func TestWrapOverflow(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.charlimit")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, paras := newDoc(t, "hello world")
	l := Register(ed, 5)
	defer l.Close()
	s := ed.State()
	in, over := split(t, s, paras[0])
	assert.Equal(t, "hello", in)
	assert.Equal(t, " world", over)
	assert.Equal(t, "hello world", s.TextContent())
	assert.Equal(t, -6, l.Remaining())
	assert.NoError(t, state.ValidateAll(s.Table()))
	t.Logf("\n%s", state.Dump(s))
}

func TestTypingMovesOverflowBoundary(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.charlimit")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, paras := newDoc(t, "hello world")
	Register(ed, 5)
	first := ed.State().Root().Children[0]
	p, _ := ed.NodeByKey(first)
	txt := p.Children[0]
	require.NoError(t, ed.Update(func(v *editor.View) error {
		v.SetCaret(state.TextAt(txt, 5))
		return v.Selection().InsertText("!")
	}))
	in, over := split(t, ed.State(), paras[0])
	assert.Equal(t, "hello", in)
	assert.Equal(t, "! world", over)
	// shrinking the text pulls characters back out of the overflow
	require.NoError(t, ed.Update(func(v *editor.View) error {
		return v.SetText(txt, "hi")
	}))
	in, over = split(t, ed.State(), paras[0])
	assert.Equal(t, "hi! w", in)
	assert.Equal(t, "orld", over)
	// and when everything fits, the overflow element disappears
	require.NoError(t, ed.Update(func(v *editor.View) error {
		n, _ := v.Node(paras[0])
		for _, ch := range append([]node.Key(nil), n.Children...)[1:] {
			if err := v.Remove(ch); err != nil {
				return err
			}
		}
		return nil
	}))
	in, over = split(t, ed.State(), paras[0])
	assert.Equal(t, "hi! w", in)
	assert.Equal(t, "", over)
	assert.NoError(t, state.ValidateAll(ed.State().Table()))
}

func TestBudgetSpansBlocks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.charlimit")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, paras := newDoc(t, "abc", "defg", "hij")
	Register(ed, 5)
	s := ed.State()
	in, over := split(t, s, paras[0])
	assert.Equal(t, "abc", in)
	assert.Equal(t, "", over)
	in, over = split(t, s, paras[1])
	assert.Equal(t, "de", in)
	assert.Equal(t, "fg", over)
	in, over = split(t, s, paras[2])
	assert.Equal(t, "", in)
	assert.Equal(t, "hij", over)
}

func TestLineBreaksAndImmutableText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.charlimit")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed := editor.New(editor.WithKeyPrefix("t"))
	var para, token node.Key
	require.NoError(t, ed.Update(func(v *editor.View) error {
		p := v.NewElement(node.KindParagraph)
		para = p.Key
		a := v.NewText("ab", 0)
		br := v.NewLineBreak()
		tok := v.NewText("@someone", 0)
		tok.Mode = node.ModeImmutable
		token = tok.Key
		for _, k := range []node.Key{a.Key, br.Key, tok.Key} {
			if err := v.Append(p.Key, k); err != nil {
				return err
			}
		}
		return v.Append(node.RootKey, p.Key)
	}))
	l := Register(ed, 5)
	assert.Equal(t, 11, l.Count(ed.State()))
	s := ed.State()
	b, _ := s.Node(para)
	require.Len(t, b.Children, 3)
	o, _ := s.Node(b.Children[2])
	assert.Equal(t, node.KindOverflow, o.Kind)
	assert.Equal(t, []node.Key{token}, o.Children, "immutable text is wrapped as a whole")
}

func TestGraphemes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.charlimit")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	text := "e\u0301e\u0301e\u0301" // three clusters, six runes
	ed, paras := newDoc(t, text)
	l := Register(ed, 2, Graphemes())
	assert.Equal(t, 3, l.Count(ed.State()))
	in, over := split(t, ed.State(), paras[0])
	assert.Equal(t, "e\u0301e\u0301", in)
	assert.Equal(t, "e\u0301", over)
}

func TestClose(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.charlimit")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, paras := newDoc(t, "abc")
	l := Register(ed, 5)
	assert.Equal(t, 2, l.Remaining())
	l.Close()
	p, _ := ed.NodeByKey(paras[0])
	require.NoError(t, ed.Update(func(v *editor.View) error {
		return v.SetText(p.Children[0], "abcdefgh")
	}))
	in, over := split(t, ed.State(), paras[0])
	assert.Equal(t, "abcdefgh", in)
	assert.Equal(t, "", over)
}

func TestUndoRedoWithLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.charlimit")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	ed, paras := newDoc(t, "abc")
	h := history.New(ed)
	defer h.Close()
	p, _ := ed.NodeByKey(paras[0])
	txt := p.Children[0]
	require.NoError(t, ed.Update(func(v *editor.View) error {
		v.SetCaret(state.TextAt(txt, 3))
		return nil
	}))
	Register(ed, 4)
	for _, r := range []string{"d", "e", "f"} {
		require.NoError(t, ed.Update(func(v *editor.View) error {
			return v.Selection().InsertText(r)
		}))
	}
	in, over := split(t, ed.State(), paras[0])
	assert.Equal(t, "abcd", in)
	assert.Equal(t, "ef", over)
	undo, redo := h.Depth()
	assert.Equal(t, 2, undo, "wrapping must not add undo steps")
	assert.Equal(t, 0, redo)
	//
	require.NoError(t, h.Undo())
	in, over = split(t, ed.State(), paras[0])
	assert.Equal(t, "abcd", in)
	assert.Equal(t, "", over)
	require.NoError(t, h.Undo())
	in, over = split(t, ed.State(), paras[0])
	assert.Equal(t, "abc", in)
	assert.Equal(t, "", over)
	assert.False(t, h.CanUndo())
	undo, redo = h.Depth()
	assert.Equal(t, 0, undo)
	assert.Equal(t, 2, redo, "undo must keep the redo steps")
	//
	require.NoError(t, h.Redo())
	require.NoError(t, h.Redo())
	in, over = split(t, ed.State(), paras[0])
	assert.Equal(t, "abcd", in)
	assert.Equal(t, "ef", over)
	assert.False(t, h.CanRedo())
	undo, _ = h.Depth()
	assert.Equal(t, 2, undo)
	assert.NoError(t, state.ValidateAll(ed.State().Table()))
}
