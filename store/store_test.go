package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/npillmayer/outline/editor"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openStore(t *testing.T) *Store {
	st, err := Open(filepath.Join(t.TempDir(), "outline.db"), Timeout(100*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleEditor(t *testing.T) (*editor.Editor, node.Key) {
	ed := editor.New(editor.WithKeyPrefix("s"))
	var txt node.Key
	require.NoError(t, ed.Update(func(v *editor.View) error {
		h := v.NewElement(node.KindHeading)
		h.Tag = "h2"
		title := v.NewText("Title", node.Bold)
		if err := v.Append(h.Key, title.Key); err != nil {
			return err
		}
		p := v.NewElement(node.KindParagraph)
		t := v.NewText("some text", 0)
		txt = t.Key
		if err := v.Append(p.Key, t.Key); err != nil {
			return err
		}
		if err := v.Append(p.Key, v.NewLineBreak().Key); err != nil {
			return err
		}
		for _, k := range []node.Key{h.Key, p.Key} {
			if err := v.Append(node.RootKey, k); err != nil {
				return err
			}
		}
		v.SetSelection(state.Range(state.TextAt(t.Key, 2), state.TextAt(t.Key, 4)))
		return nil
	}))
	return ed, txt
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.store")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	st := openStore(t)
	ed, txt := sampleEditor(t)
	require.NoError(t, st.Save("notes", ed.State()))
	s, err := st.Load("notes")
	require.NoError(t, err)
	want := ed.State()
	assert.Equal(t, want.Keys(), s.Keys())
	for _, k := range want.Keys() {
		a, _ := want.Node(k)
		b, _ := s.Node(k)
		assert.True(t, a.Equal(b), "node %s differs: %v vs %v", k, a, b)
	}
	assert.Equal(t, want.Selection(), s.Selection())
	// an editor restored from the store continues where the saved one stopped
	restored := editor.New(editor.WithKeyPrefix("r"), editor.WithInitialState(s))
	require.NoError(t, restored.Update(func(v *editor.View) error {
		return v.Selection().InsertText("-")
	}))
	n, _ := restored.NodeByKey(txt)
	assert.Equal(t, "so- text", n.Text)
}

func TestSaveReplaces(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.store")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	st := openStore(t)
	ed, txt := sampleEditor(t)
	require.NoError(t, st.Save("notes", ed.State()))
	require.NoError(t, ed.Update(func(v *editor.View) error {
		return v.Remove(state.Lookup(v, txt).Parent)
	}))
	require.NoError(t, st.Save("notes", ed.State()))
	s, err := st.Load("notes")
	require.NoError(t, err)
	assert.False(t, s.Has(txt), "nodes of the earlier version are gone")
	assert.Equal(t, "Title", s.TextContent())
}

func TestNoSelection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.store")
	defer teardown()
	//
	st := openStore(t)
	require.NoError(t, st.Save("empty", state.New()))
	s, err := st.Load("empty")
	require.NoError(t, err)
	assert.Nil(t, s.Selection())
	assert.Equal(t, []node.Key{node.RootKey}, s.Keys())
}

func TestListAndDelete(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.store")
	defer teardown()
	//
	st := openStore(t)
	names, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, names)
	ed, _ := sampleEditor(t)
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, st.Save(name, ed.State()))
	}
	names, err = st.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)
	require.NoError(t, st.Delete("b"))
	names, _ = st.List()
	assert.Equal(t, []string{"a", "c"}, names)
	_, err = st.Load("b")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(st.Delete("b"), ErrNotFound))
	assert.Error(t, st.Save("", ed.State()))
}

func TestCorruptDocument(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.store")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	st := openStore(t)
	ed, txt := sampleEditor(t)
	require.NoError(t, st.Save("notes", ed.State()))
	// drop a node still referenced by its parent
	require.NoError(t, st.db.Update(func(tx *bolt.Tx) error {
		nodes := tx.Bucket(bucketDocuments).Bucket([]byte("notes")).Bucket(bucketNodes)
		return nodes.Delete([]byte(txt))
	}))
	_, err := st.Load("notes")
	assert.True(t, errors.Is(err, state.ErrMalformedTree), "error is %v", err)
}

func TestReopenReadOnly(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.store")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "outline.db")
	st, err := Open(path)
	require.NoError(t, err)
	ed, _ := sampleEditor(t)
	require.NoError(t, st.Save("notes", ed.State()))
	require.NoError(t, st.Close())
	ro, err := Open(path, ReadOnly())
	require.NoError(t, err)
	defer ro.Close()
	assert.Equal(t, path, ro.Path())
	s, err := ro.Load("notes")
	require.NoError(t, err)
	assert.Equal(t, ed.State().TextContent(), s.TextContent())
	assert.Error(t, ro.Save("other", ed.State()))
}
