package hamt

// DiffOp classifies a difference between two incarnations of a map.
type DiffOp int8

// Kinds of differences reported by Diff.
const (
	Added DiffOp = iota
	Removed
	Changed
)

func (op DiffOp) String() string {
	switch op {
	case Added:
		return "added"
	case Removed:
		return "removed"
	}
	return "changed"
}

// Diff reports the differences between two maps to f. For keys present in
// both maps, same decides if the values are considered equal; if same is nil,
// no Changed entries are reported.
//
// Diff exploits structural sharing: sub-tries shared between a and b are
// skipped without inspection, making the diff of two incarnations produced by
// a few modifications cheap.
func Diff[K ~string, V any](a, b Map[K, V], same func(V, V) bool, f func(K, DiffOp)) {
	diffNodes(a.root, b.root, 0, same, f)
}

func diffNodes[K ~string, V any](a, b *hnode[K, V], shift uint, same func(V, V) bool,
	f func(K, DiffOp)) {
	//
	if a == b {
		return
	}
	if a == nil || b == nil || shift >= hashBits || a.collisions != nil || b.collisions != nil {
		diffLeafs(collect(a), collect(b), same, f)
		return
	}
	for i := uint(0); i < degree; i++ {
		bit := uint32(1) << i
		sa, oka := a.slot(bit)
		sb, okb := b.slot(bit)
		switch {
		case !oka && !okb:
			continue
		case oka && okb && sa.child != nil && sb.child != nil:
			diffNodes(sa.child, sb.child, shift+bitsPerLevel, same, f)
		case oka && okb && sa.child == nil && sb.child == nil && sa.leaf == sb.leaf:
			continue
		default:
			diffLeafs(sa.leafs(), sb.leafs(), same, f)
		}
	}
}

func (node *hnode[K, V]) slot(bit uint32) (hslot[K, V], bool) {
	if node.bitmap&bit == 0 {
		return hslot[K, V]{}, false
	}
	return node.slots[node.index(bit)], true
}

func (s hslot[K, V]) leafs() []*leaf[K, V] {
	if s.child != nil {
		return collect(s.child)
	}
	if s.leaf != nil {
		return []*leaf[K, V]{s.leaf}
	}
	return nil
}

func collect[K ~string, V any](node *hnode[K, V]) []*leaf[K, V] {
	var leafs []*leaf[K, V]
	node.each(func(l *leaf[K, V]) bool {
		leafs = append(leafs, l)
		return true
	})
	return leafs
}

func diffLeafs[K ~string, V any](a, b []*leaf[K, V], same func(V, V) bool, f func(K, DiffOp)) {
	inB := make(map[K]*leaf[K, V], len(b))
	for _, l := range b {
		inB[l.key] = l
	}
	for _, la := range a {
		lb, ok := inB[la.key]
		if !ok {
			f(la.key, Removed)
			continue
		}
		delete(inB, la.key)
		if la != lb && same != nil && !same(la.value, lb.value) {
			f(la.key, Changed)
		}
	}
	for _, lb := range b {
		if _, ok := inB[lb.key]; ok {
			f(lb.key, Added)
		}
	}
}
