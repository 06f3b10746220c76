package hamt

import (
	"fmt"
	"sort"
	"strconv"
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	tp "github.com/xlab/treeprint"
)

func TestMapEmpty(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.hamt")
	defer teardown()
	//
	m := Map[string, int]{}
	if m.Len() != 0 {
		t.Errorf("expected empty map to have length 0, has %d", m.Len())
	}
	if _, found := m.Get("x"); found {
		t.Error("did not expect to find 'x' in empty map")
	}
	if m.Without("x").Len() != 0 {
		t.Error("expected deletion from empty map to be a no-op")
	}
}

func TestMapWithAndGet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.hamt")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	m := Map[string, int]{}
	for i := 0; i < 2000; i++ {
		m = m.With(strconv.Itoa(i), i)
	}
	if m.Len() != 2000 {
		t.Fatalf("expected map to have 2000 entries, has %d", m.Len())
	}
	for i := 0; i < 2000; i++ {
		v, found := m.Get(strconv.Itoa(i))
		if !found || v != i {
			t.Fatalf("expected to find %d ↦ %d, have %d (found=%v)", i, i, v, found)
		}
	}
	m = m.With("7", 77)
	if m.Len() != 2000 {
		t.Errorf("expected replacement to keep length 2000, is %d", m.Len())
	}
	if v, _ := m.Get("7"); v != 77 {
		t.Errorf("expected '7' to be replaced by 77, is %d", v)
	}
	t.Logf("depth of trie = %d", m.root.depth())
}

func TestMapIsPersistent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.hamt")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	type item struct{ n int }
	m1 := Map[string, *item]{}
	for i := 0; i < 100; i++ {
		m1 = m1.With(strconv.Itoa(i), &item{i})
	}
	m2 := m1.With("42", &item{4242}).Without("13")
	if v, _ := m1.Get("42"); v.n != 42 {
		t.Errorf("expected original map to be unchanged, has 42 ↦ %d", v.n)
	}
	if !m1.Has("13") {
		t.Error("expected original map to still contain '13'")
	}
	if m2.Has("13") {
		t.Error("expected copy to not contain '13'")
	}
	for i := 0; i < 100; i++ {
		if i == 42 || i == 13 {
			continue
		}
		k := strconv.Itoa(i)
		v1, _ := m1.Get(k)
		v2, _ := m2.Get(k)
		if v1 != v2 {
			t.Errorf("expected untouched key %s to be shared between incarnations", k)
		}
	}
}

func TestMapDeleteAll(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.hamt")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	m := Map[string, int]{}
	for i := 0; i < 500; i++ {
		m = m.With(strconv.Itoa(i), i)
	}
	for i := 0; i < 500; i += 2 {
		m = m.Without(strconv.Itoa(i))
	}
	if m.Len() != 250 {
		t.Fatalf("expected 250 entries left, have %d", m.Len())
	}
	for i := 1; i < 500; i += 2 {
		if !m.Has(strconv.Itoa(i)) {
			t.Fatalf("expected odd key %d to survive", i)
		}
	}
	for i := 1; i < 500; i += 2 {
		m = m.Without(strconv.Itoa(i))
	}
	if m.Len() != 0 || m.root != nil {
		t.Errorf("expected map to be empty, has %d entries, root=%v", m.Len(), m.root)
	}
}

func TestMapCollisions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.hamt")
	defer teardown()
	//
	m := Immutable[string, string](Hasher(func(string) uint64 { return 0xCAFE }))
	m = m.With("a", "A").With("b", "B").With("c", "C")
	t.Logf("collision trie =\n%s", printMap(m))
	for _, k := range []string{"a", "b", "c"} {
		if v, ok := m.Get(k); !ok || v != string(rune(k[0]-32)) {
			t.Errorf("expected colliding key %q to be found, have %q", k, v)
		}
	}
	m = m.Without("b")
	if m.Has("b") || !m.Has("a") || !m.Has("c") || m.Len() != 2 {
		t.Errorf("deletion from collision bucket failed: %s", printMap(m))
	}
	m = m.Without("a").Without("c")
	if m.Len() != 0 {
		t.Errorf("expected empty map, has %d entries", m.Len())
	}
}

func TestMapDiff(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "outline.hamt")
	tracer().SetTraceLevel(tracing.LevelError)
	defer teardown()
	//
	m1 := Map[string, int]{}
	for i := 0; i < 300; i++ {
		m1 = m1.With(strconv.Itoa(i), i)
	}
	m2 := m1.With("5", 55).Without("6").With("new", 1)
	var diffs []string
	Diff(m1, m2, func(a, b int) bool { return a == b }, func(k string, op DiffOp) {
		diffs = append(diffs, fmt.Sprintf("%s:%s", k, op))
	})
	sort.Strings(diffs)
	expected := []string{"5:changed", "6:removed", "new:added"}
	if fmt.Sprint(diffs) != fmt.Sprint(expected) {
		t.Errorf("expected diff %v, have %v", expected, diffs)
	}
	diffs = diffs[:0]
	Diff(m2, m2, nil, func(k string, op DiffOp) {
		diffs = append(diffs, k)
	})
	if len(diffs) != 0 {
		t.Errorf("expected no differences for identical maps, have %v", diffs)
	}
}

// --- Print trie ------------------------------------------------------------

func printMap[K ~string, V any](m Map[K, V]) string {
	header := fmt.Sprintf("\nMap(len=%d)\n", m.Len())
	printer := tp.New()
	printNode(printer, m.root)
	return header + printer.String() + "\n"
}

func printNode[K ~string, V any](printer tp.Tree, node *hnode[K, V]) {
	if node == nil {
		return
	}
	branch := printer.AddBranch(node.String())
	for _, s := range node.slots {
		if s.child != nil {
			printNode(branch, s.child)
		}
	}
}
