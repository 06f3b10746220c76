package hamt

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	bitsPerLevel uint = 5 // will produce nodes with degree 2 ^ 5 = 32
	degree       uint = 1 << bitsPerLevel
	mask         uint = degree - 1
	hashBits     uint = 64 // shifts beyond this point address collision buckets
)

type leaf[K ~string, V any] struct {
	hash  uint64
	key   K
	value V
}

// hslot is either a leaf or a link to a child node, never both.
type hslot[K ~string, V any] struct {
	leaf  *leaf[K, V]
	child *hnode[K, V]
}

// hnode is a bitmap-indexed node of the trie. slots are compressed: a slot for
// hash fragment i exists iff bit i of bitmap is set, and slots are ordered by i.
// Nodes below the last hash level do not use the bitmap but hold a list of
// colliding leafs.
type hnode[K ~string, V any] struct {
	bitmap     uint32
	slots      []hslot[K, V]
	collisions []*leaf[K, V]
}

func bitpos(h uint64, shift uint) uint32 {
	return 1 << ((h >> shift) & uint64(mask))
}

func (node *hnode[K, V]) index(bit uint32) int {
	return bits.OnesCount32(node.bitmap & (bit - 1))
}

func (node *hnode[K, V]) String() string {
	b := strings.Builder{}
	b.WriteByte('[')
	if node.collisions != nil {
		for i, l := range node.collisions {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(fmt.Sprintf("%v", l.key))
		}
	}
	for i, s := range node.slots {
		if i > 0 {
			b.WriteByte(',')
		}
		if s.child != nil {
			b.WriteString("▪︎")
		} else {
			b.WriteString(fmt.Sprintf("%v", s.leaf.key))
		}
	}
	b.WriteByte(']')
	return b.String()
}

// clone copies a node, making room for extra slots. Children and leafs are
// shared with the original.
func (node *hnode[K, V]) clone(extra int) *hnode[K, V] {
	cow := &hnode[K, V]{bitmap: node.bitmap}
	if node.slots != nil {
		cow.slots = make([]hslot[K, V], len(node.slots), len(node.slots)+extra)
		copy(cow.slots, node.slots)
	}
	if node.collisions != nil {
		cow.collisions = make([]*leaf[K, V], len(node.collisions), len(node.collisions)+extra)
		copy(cow.collisions, node.collisions)
	}
	return cow
}

func (node *hnode[K, V]) findCollision(key K) (V, bool) {
	for _, l := range node.collisions {
		if l.key == key {
			return l.value, true
		}
	}
	var none V
	return none, false
}

// with returns a copy-on-write incarnation of node containing leaf l.
// node may be nil. replaced is true if an existing entry for l.key has been
// replaced.
func (node *hnode[K, V]) with(l *leaf[K, V], shift uint) (cow *hnode[K, V], replaced bool) {
	if node == nil {
		node = &hnode[K, V]{}
	}
	if shift >= hashBits {
		cow = node.clone(1)
		for i, c := range cow.collisions {
			if c.key == l.key {
				cow.collisions[i] = l
				return cow, true
			}
		}
		cow.collisions = append(cow.collisions, l)
		return cow, false
	}
	bit := bitpos(l.hash, shift)
	at := node.index(bit)
	if node.bitmap&bit == 0 { // free slot
		cow = node.clone(1)
		cow.bitmap |= bit
		cow.slots = append(cow.slots, hslot[K, V]{})
		copy(cow.slots[at+1:], cow.slots[at:])
		cow.slots[at] = hslot[K, V]{leaf: l}
		return cow, false
	}
	s := node.slots[at]
	cow = node.clone(0)
	switch {
	case s.child != nil:
		var child *hnode[K, V]
		child, replaced = s.child.with(l, shift+bitsPerLevel)
		cow.slots[at] = hslot[K, V]{child: child}
	case s.leaf.key == l.key:
		cow.slots[at] = hslot[K, V]{leaf: l}
		replaced = true
	default: // two different keys share a hash fragment ⇒ push both down one level
		child, _ := (*hnode[K, V])(nil).with(s.leaf, shift+bitsPerLevel)
		child, _ = child.with(l, shift+bitsPerLevel)
		cow.slots[at] = hslot[K, V]{child: child}
	}
	return cow, replaced
}

// without returns a copy-on-write incarnation of node with key removed.
// If the resulting node is empty, nil is returned. Nodes reduced to a single
// leaf are collapsed into their parent's slot.
func (node *hnode[K, V]) without(h uint64, key K, shift uint) (*hnode[K, V], bool) {
	if shift >= hashBits {
		for i, c := range node.collisions {
			if c.key == key {
				if len(node.collisions) == 1 {
					return nil, true
				}
				cow := node.clone(0)
				cow.collisions = append(cow.collisions[:i], cow.collisions[i+1:]...)
				return cow, true
			}
		}
		return node, false
	}
	bit := bitpos(h, shift)
	if node.bitmap&bit == 0 {
		return node, false
	}
	at := node.index(bit)
	s := node.slots[at]
	if s.child == nil {
		if s.leaf.key != key {
			return node, false
		}
		return node.withoutSlot(at, bit), true
	}
	child, removed := s.child.without(h, key, shift+bitsPerLevel)
	if !removed {
		return node, false
	}
	if child == nil {
		return node.withoutSlot(at, bit), true
	}
	cow := node.clone(0)
	if single := child.singleLeaf(); single != nil {
		cow.slots[at] = hslot[K, V]{leaf: single}
	} else {
		cow.slots[at] = hslot[K, V]{child: child}
	}
	return cow, true
}

func (node *hnode[K, V]) withoutSlot(at int, bit uint32) *hnode[K, V] {
	if len(node.slots) == 1 {
		return nil
	}
	cow := node.clone(0)
	cow.bitmap &^= bit
	cow.slots = append(cow.slots[:at], cow.slots[at+1:]...)
	return cow
}

// singleLeaf returns the only leaf of a node, if the node holds exactly one
// leaf and no children.
func (node *hnode[K, V]) singleLeaf() *leaf[K, V] {
	if len(node.collisions) == 1 && len(node.slots) == 0 {
		return node.collisions[0]
	}
	if len(node.slots) == 1 && node.slots[0].child == nil && node.collisions == nil {
		return node.slots[0].leaf
	}
	return nil
}

// each calls f for every leaf below node, until f returns false.
func (node *hnode[K, V]) each(f func(*leaf[K, V]) bool) bool {
	if node == nil {
		return true
	}
	for _, l := range node.collisions {
		if !f(l) {
			return false
		}
	}
	for _, s := range node.slots {
		if s.child != nil {
			if !s.child.each(f) {
				return false
			}
		} else if !f(s.leaf) {
			return false
		}
	}
	return true
}

func (node *hnode[K, V]) depth() int {
	if node == nil {
		return 0
	}
	d := 0
	for _, s := range node.slots {
		if s.child != nil {
			if cd := s.child.depth(); cd > d {
				d = cd
			}
		}
	}
	return d + 1
}
