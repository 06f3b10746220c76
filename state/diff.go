package state

import (
	"sort"

	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/persistent/hamt"
)

// Changes is the reconciliation contract between two snapshots: the keys of
// nodes created, updated and deleted when moving from one to the other.
// Each list is sorted.
type Changes struct {
	Created []node.Key
	Updated []node.Key
	Deleted []node.Key
}

// Empty is true if no node changed.
func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// Len returns the total number of changed keys.
func (c Changes) Len() int {
	return len(c.Created) + len(c.Updated) + len(c.Deleted)
}

// All returns all changed keys, sorted.
func (c Changes) All() []node.Key {
	all := make([]node.Key, 0, c.Len())
	all = append(all, c.Created...)
	all = append(all, c.Updated...)
	all = append(all, c.Deleted...)
	sortKeys(all)
	return all
}

// Diff computes the changes between two snapshots. Nodes shared by reference
// are skipped without comparison; cloned nodes are compared field by field,
// so a node cloned for writing but left unchanged is not reported.
func Diff(prev, next *Snapshot) Changes {
	var c Changes
	hamt.Diff(prev.nodes, next.nodes, func(a, b *node.Node) bool {
		return a.Equal(b)
	}, func(k node.Key, op hamt.DiffOp) {
		switch op {
		case hamt.Added:
			c.Created = append(c.Created, k)
		case hamt.Removed:
			c.Deleted = append(c.Deleted, k)
		default:
			c.Updated = append(c.Updated, k)
		}
	})
	c.sort()
	return c
}

// DiffKeys classifies a set of dirty keys, as produced by a transaction,
// into created, updated and deleted nodes. Unlike Diff, it reports every
// dirty key present in both snapshots as updated.
func DiffKeys(prev, next *Snapshot, dirty []node.Key) Changes {
	var c Changes
	for _, k := range dirty {
		_, inPrev := prev.nodes.Get(k)
		_, inNext := next.nodes.Get(k)
		switch {
		case inPrev && inNext:
			c.Updated = append(c.Updated, k)
		case inNext:
			c.Created = append(c.Created, k)
		case inPrev:
			c.Deleted = append(c.Deleted, k)
		}
	}
	c.sort()
	return c
}

func (c *Changes) sort() {
	sortKeys(c.Created)
	sortKeys(c.Updated)
	sortKeys(c.Deleted)
}

func sortKeys(keys []node.Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
