package hamt

import (
	"github.com/cespare/xxhash/v2"
)

// Map is an immutable persistent hash map. An empty instance is usable as an
// empty map, i.e. this is legal:
//
//     m := hamt.Map[string, int]{}.With("one", 1)
//
type Map[K ~string, V any] struct {
	props
	root *hnode[K, V]
	size int
}

// Immutable constructs a map with options, if you need any.
// Use it like this:
//
//     m := hamt.Immutable[string, int](hamt.Hasher(myHash))
//     m = m.With("answer", 42)
//     value, found := m.Get("answer")   // returns 42
//
func Immutable[K ~string, V any](opts ...Option) Map[K, V] {
	m := Map[K, V]{}
	for _, option := range opts {
		m.props = option.config(m.props)
	}
	return m
}

// Option is a type to help initializing maps at creation time.
type Option struct {
	config func(props) props
}

// Hasher is an option to replace the default xxhash hash function.
// It is mainly useful for testing collision handling.
func Hasher(h func(string) uint64) Option {
	return Option{config: func(p props) props {
		p.hasher = h
		return p
	}}
}

type props struct {
	hasher func(string) uint64
}

func (p props) hash(key string) uint64 {
	if p.hasher == nil {
		return xxhash.Sum64String(key)
	}
	return p.hasher(key)
}

// --- API -------------------------------------------------------------------

// Len returns the number of entries in the map.
func (m Map[K, V]) Len() int {
	return m.size
}

// Get locates a key in a map and returns the value associated with it.
// If `key` is not found, the zero value for type V will be returned, together with found=false.
func (m Map[K, V]) Get(key K) (V, bool) {
	h := m.hash(string(key))
	node, shift := m.root, uint(0)
	for node != nil {
		if shift >= hashBits {
			return node.findCollision(key)
		}
		bit := bitpos(h, shift)
		if node.bitmap&bit == 0 {
			break
		}
		s := node.slots[node.index(bit)]
		if s.child == nil {
			if s.leaf.key == key {
				return s.leaf.value, true
			}
			break
		}
		node, shift = s.child, shift+bitsPerLevel
	}
	var none V
	return none, false
}

// Has is true if key is present in the map.
func (m Map[K, V]) Has(key K) bool {
	_, found := m.Get(key)
	return found
}

// With returns a copy of a map with key associated with value.
// If an entry for key is already present, the associated value will be replaced
// (in a new incarnation of the map, nevertheless).
func (m Map[K, V]) With(key K, value V) Map[K, V] {
	l := &leaf[K, V]{hash: m.hash(string(key)), key: key, value: value}
	root, replaced := m.root.with(l, 0)
	size := m.size
	if !replaced {
		size++
	}
	return Map[K, V]{props: m.props, root: root, size: size}
}

// Without returns a copy of a map with key deleted. If key is not found,
// m is returned unchanged.
func (m Map[K, V]) Without(key K) Map[K, V] {
	if m.root == nil {
		return m
	}
	root, removed := m.root.without(m.hash(string(key)), key, 0)
	if !removed {
		return m
	}
	tracer().Debugf("hamt: removed key %v", key)
	return Map[K, V]{props: m.props, root: root, size: m.size - 1}
}

// Range calls f for every entry of the map, in unspecified order, until f
// returns false.
func (m Map[K, V]) Range(f func(K, V) bool) {
	m.root.each(func(l *leaf[K, V]) bool {
		return f(l.key, l.value)
	})
}

// Keys returns all keys of a map, in unspecified order.
func (m Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.size)
	m.Range(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Shares is true if m and other are the same incarnation of a map.
func (m Map[K, V]) Shares(other Map[K, V]) bool {
	return m.root == other.root
}
