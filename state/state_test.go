package state

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoParagraphs builds root → p1 → t1 "foo", root → p2 → [t2 "bar", br, t3 "baz"].
func twoParagraphs() Table {
	root := node.NewRoot()
	root.Children = []node.Key{"p1", "p2"}
	p1 := node.NewElement("p1", node.KindParagraph)
	p1.Parent, p1.Children = node.RootKey, []node.Key{"t1"}
	p2 := node.NewElement("p2", node.KindParagraph)
	p2.Parent, p2.Children = node.RootKey, []node.Key{"t2", "br", "t3"}
	t1 := node.NewText("t1", "foo", 0)
	t1.Parent = "p1"
	t2 := node.NewText("t2", "bar", node.Bold)
	t2.Parent = "p2"
	br := node.NewLineBreak("br")
	br.Parent = "p2"
	t3 := node.NewText("t3", "baz", 0)
	t3.Parent = "p2"
	t := Table{}
	for _, n := range []*node.Node{root, p1, p2, t1, t2, br, t3} {
		t = t.With(n.Key, n)
	}
	return t
}

func TestSnapshotAccessors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.state")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	s := New()
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, node.KindRoot, s.Root().Kind)
	assert.Nil(t, s.Selection())
	s = Make(twoParagraphs(), Caret(TextAt("t1", 1)), 3, Dirty, "test")
	assert.Equal(t, uint64(3), s.Version())
	assert.True(t, s.IsDirty())
	assert.False(t, s.IsHistoric())
	assert.True(t, s.HasTag("test"))
	assert.Equal(t, 7, s.Len())
	assert.Equal(t, "foo\n\nbar\nbaz", s.TextContent())
	sel := s.Selection()
	sel.Anchor.Offset = 2
	assert.Equal(t, 1, s.Selection().Anchor.Offset, "selection must be handed out as a copy")
	d := s.Derive(4, Historic)
	assert.True(t, d.IsHistoric())
	assert.True(t, d.Table().Shares(s.Table()))
}

func TestNavigation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.state")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	s := Make(twoParagraphs(), nil, 1, 0)
	path, ok := Path(s, "t3")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, path)
	assert.Equal(t, "t2", string(PrevLeaf(s, "br").Key))
	assert.Equal(t, "t2", string(NextLeaf(s, "t1").Key))
	assert.Nil(t, NextLeafInBlock(s, "t1"), "t2 lives in another block")
	assert.Equal(t, "br", string(NextLeafInBlock(s, "t2").Key))
	assert.Equal(t, "p2", string(BlockOf(s, "t3").Key))
	assert.Equal(t, node.RootKey, CommonAncestor(s, "t1", "t3"))
	assert.Equal(t, node.Key("p2"), CommonAncestor(s, "t2", "t3"))
	assert.True(t, IsAncestor(s, "p1", "t1"))
	assert.False(t, IsAncestor(s, "p2", "t1"))
	leaves := Leaves(s, "t1", "t3")
	keys := make([]node.Key, len(leaves))
	for i, l := range leaves {
		keys[i] = l.Key
	}
	assert.Equal(t, []node.Key{"t1", "t2", "br", "t3"}, keys)
	assert.Equal(t, []node.Key{"p2", "t2", "br", "t3"}, Subtree(s, "p2"))
}

func TestComparePoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.state")
	defer teardown()
	//
	s := Make(twoParagraphs(), nil, 1, 0)
	assert.Equal(t, -1, ComparePoints(s, TextAt("t1", 3), TextAt("t2", 0)))
	assert.Equal(t, 1, ComparePoints(s, TextAt("t3", 0), TextAt("t2", 3)))
	assert.Equal(t, 0, ComparePoints(s, TextAt("t3", 1), TextAt("t3", 1)))
	assert.Equal(t, -1, ComparePoints(s, ElementAt("p2", 0), TextAt("t2", 0)))
	assert.Equal(t, 1, ComparePoints(s, ElementAt("p2", 1), TextAt("t2", 3)))
	sel := Range(TextAt("t3", 1), TextAt("t1", 0))
	assert.True(t, sel.IsBackward(s))
	start, end := sel.Ordered(s)
	assert.Equal(t, TextAt("t1", 0), start)
	assert.Equal(t, TextAt("t3", 1), end)
}

func TestValidate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.state")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	tab := twoParagraphs()
	require.NoError(t, ValidateAll(tab))
	// child listed by two parents
	p1, _ := tab.Get("p1")
	p1 = p1.Clone()
	p1.Children = append(p1.Children, "t3")
	bad := tab.With("p1", p1)
	assert.True(t, errors.Is(ValidateAll(bad), ErrMalformedTree))
	// unreachable node
	orphan := node.NewText("orphan", "x", 0)
	orphan.Parent = "p1"
	assert.True(t, errors.Is(ValidateAll(tab.With("orphan", orphan)), ErrMalformedTree))
	// list items outside of lists
	li := node.NewElement("li", node.KindListItem)
	li.Parent = node.RootKey
	root, _ := tab.Get(node.RootKey)
	root = root.Clone()
	root.Children = append(root.Children, "li")
	assert.Error(t, ValidateAll(tab.With(node.RootKey, root).With("li", li)))
	// selection
	r := TableReader(tab)
	assert.NoError(t, ValidateSelection(r, Caret(TextAt("t1", 3))))
	assert.True(t, errors.Is(ValidateSelection(r, Caret(TextAt("t1", 4))), ErrDetachedSelection))
	assert.True(t, errors.Is(ValidateSelection(r, Caret(TextAt("p1", 0))), ErrDetachedSelection))
	assert.True(t, errors.Is(ValidateSelection(r, Caret(TextAt("gone", 0))), ErrDetachedSelection))
	assert.NoError(t, ValidateSelection(r, Caret(ElementAt("p2", 3))))
}

func TestDiff(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.state")
	defer teardown()
	//
	tab := twoParagraphs()
	s0 := Make(tab, nil, 1, 0)
	t1, _ := tab.Get("t1")
	t1 = t1.Clone()
	t1.Text = "food"
	p2, _ := tab.Get("p2")
	p2 = p2.Clone()
	p2.Children = []node.Key{"t2", "t4"}
	t4 := node.NewText("t4", "new", 0)
	t4.Parent = "p2"
	unchanged, _ := tab.Get("p1")
	next := tab.With("t1", t1).With("p2", p2).With("t4", t4).Without("br").Without("t3").
		With("p1", unchanged.Clone())
	s1 := Make(next, nil, 2, Dirty)
	c := Diff(s0, s1)
	assert.Equal(t, []node.Key{"t4"}, c.Created)
	assert.Equal(t, []node.Key{"p2", "t1"}, c.Updated)
	assert.Equal(t, []node.Key{"br", "t3"}, c.Deleted)
	assert.Equal(t, 5, c.Len())
	assert.True(t, Diff(s1, s1).Empty())
	k := DiffKeys(s0, s1, []node.Key{"t4", "p1", "t3", "nope"})
	assert.Equal(t, []node.Key{"t4"}, k.Created)
	assert.Equal(t, []node.Key{"p1"}, k.Updated)
	assert.Equal(t, []node.Key{"t3"}, k.Deleted)
}

func TestExportImport(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.state")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	s := Make(twoParagraphs(), nil, 5, Dirty)
	raw, err := json.Marshal(s.Export())
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	imported, err := Import(doc, Caret(TextAt("t3", 2)))
	require.NoError(t, err)
	assert.Equal(t, s.TextContent(), imported.TextContent())
	assert.Equal(t, s.Keys(), imported.Keys())
	for _, k := range s.Keys() {
		assert.True(t, Lookup(s, k).Equal(Lookup(imported, k)), "node %s differs after import", k)
	}
	delete(doc, "p1")
	_, err = Import(doc, nil)
	assert.Error(t, err)
	_, err = Import(Document{}, nil)
	assert.True(t, errors.Is(err, ErrMalformedTree))
}

func TestDump(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.state")
	defer teardown()
	//
	s := Make(twoParagraphs(), Range(TextAt("t1", 1), TextAt("t3", 2)), 1, 0)
	out := Dump(s)
	t.Logf("\n%s", out)
	assert.Contains(t, out, "▶1")
	assert.Contains(t, out, "◀2")
	assert.Contains(t, out, `"baz"`)
}
