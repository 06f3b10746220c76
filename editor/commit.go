package editor

import (
	"fmt"
	"sort"

	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// commit runs the commit pipeline on the pending snapshot:
// transforms → normalization → selection recovery → garbage collection →
// validation → freeze. It returns a nil snapshot if the transaction changed
// nothing at all.
func (v *View) commit(cfg updateConfig) (*state.Snapshot, DirtySet, error) {
	if err := v.runTransforms(); err != nil {
		return nil, nil, err
	}
	v.normalize()
	v.recoverSelection()
	collected := v.collectGarbage()
	dirty := make(DirtySet, len(v.writable)+len(collected))
	for _, keys := range [][]node.Key{v.writtenKeys(), collected} {
		for _, k := range keys {
			if v.base.Has(k) || v.nodes.Has(k) {
				dirty[k] = true
			}
		}
	}
	if err := v.validate(dirty); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	if len(dirty) == 0 && v.sel.Equal(v.base.Selection()) {
		tracer().Debugf("transaction without effect")
		return nil, nil, nil
	}
	var flags state.Flags
	if len(dirty) > 0 {
		flags |= state.Dirty
	}
	next := state.Make(v.nodes, v.sel, v.base.Version()+1, flags, cfg.tags...)
	return next, dirty, nil
}

// writtenKeys returns the keys registered by Writable, sorted.
func (v *View) writtenKeys() []node.Key {
	keys := make([]node.Key, 0, len(v.writable))
	for k := range v.writable {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// runTransforms calls the registered transforms for dirty nodes until no
// node changes any more. A node is transformed again if it has changed since
// the last round of transforms started on it.
func (v *View) runTransforms() error {
	if len(v.ed.transforms) == 0 {
		return nil
	}
	done := make(map[node.Key]*node.Node)
	for round := 0; ; round++ {
		var todo []node.Key
		for _, k := range v.writtenKeys() {
			n := v.lookup(k)
			if n == nil || len(v.ed.transforms[n.Kind]) == 0 || !state.IsAttached(v, k) {
				continue
			}
			if prev, ok := done[k]; ok && prev.Equal(n) {
				continue
			}
			todo = append(todo, k)
		}
		if len(todo) == 0 {
			return nil
		}
		if round >= maxTransformRounds {
			return fmt.Errorf("%w: %w after %d rounds", ErrInvariant, ErrNoConvergence, round)
		}
		for _, k := range todo {
			n := v.lookup(k)
			done[k] = n.Clone()
			for _, t := range v.ed.transforms[n.Kind] {
				if n = v.lookup(k); n == nil {
					break
				}
				if err := t.fn(v, n); err != nil {
					return err
				}
			}
		}
	}
}

// normalize merges adjacent text siblings of identical format and mode
// normal, and drops empty text nodes not referenced by the selection. Only
// the children of dirty elements and of parents of dirty nodes are visited.
func (v *View) normalize() {
	parents := make(map[node.Key]bool)
	for _, k := range v.writtenKeys() {
		n := v.lookup(k)
		if n == nil {
			continue
		}
		if n.IsElement() {
			parents[n.Key] = true
		}
		if n.Parent != node.NoKey {
			parents[n.Parent] = true
		}
	}
	keys := make([]node.Key, 0, len(parents))
	for k := range parents {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if state.IsAttached(v, k) {
			v.normalizeChildren(k)
		}
	}
}

func (v *View) normalizeChildren(parent node.Key) {
	for i := 0; ; {
		p := v.lookup(parent)
		if i >= len(p.Children) {
			return
		}
		c := v.lookup(p.Children[i])
		if c.IsText() && c.Text == "" && !v.sel.References(c.Key) {
			tracer().Debugf("normalize: dropping empty text %s", c.Key)
			_ = v.Remove(c.Key)
			continue
		}
		if i > 0 {
			if prev := v.lookup(p.Children[i-1]); mergeable(prev, c) {
				tracer().Debugf("normalize: merging %s into %s", c.Key, prev.Key)
				v.mergeText(prev, c)
				continue
			}
		}
		i++
	}
}

func mergeable(a, b *node.Node) bool {
	return a.IsSimpleText() && b.IsSimpleText() && a.Format == b.Format
}

// mergeText appends the text of b to a and removes b. Selection points on b
// move to the corresponding offsets of a.
func (v *View) mergeText(a, b *node.Node) {
	shift := a.Len()
	if b.Text != "" {
		v.Writable(a.Key).Text = a.Text + b.Text
	}
	v.mapPoints(func(p state.Point) state.Point {
		if p.Key == b.Key {
			return state.TextAt(a.Key, p.Offset+shift)
		}
		return p
	})
	_ = v.Remove(b.Key)
}

// recoverSelection moves points on detached nodes to the start of their
// nearest attached ancestor.
func (v *View) recoverSelection() {
	v.mapPoints(func(p state.Point) state.Point {
		n := v.lookup(p.Key)
		if n == nil || state.IsAttached(v, p.Key) {
			return p
		}
		for a := v.lookup(n.Parent); a != nil; a = v.lookup(a.Parent) {
			if state.IsAttached(v, a.Key) {
				tracer().Debugf("selection point %s recovered to start of %s", p, a.Key)
				return v.startPoint(a.Key)
			}
		}
		return v.startPoint(node.RootKey)
	})
}

// collectGarbage drops nodes not reachable from the root. Only subtrees of
// nodes written in this transaction can have become unreachable.
func (v *View) collectGarbage() []node.Key {
	var collected []node.Key
	for _, k := range v.writtenKeys() {
		if !v.nodes.Has(k) || state.IsAttached(v, k) {
			continue
		}
		for _, d := range state.Subtree(v, k) {
			if !state.IsAttached(v, d) {
				v.nodes = v.nodes.Without(d)
				collected = append(collected, d)
			}
		}
	}
	if len(collected) > 0 {
		tracer().Debugf("collected %d unreachable nodes", len(collected))
	}
	return collected
}

func (v *View) validate(dirty DirtySet) error {
	var err error
	if v.ed.validateAll {
		err = state.ValidateAll(v.nodes)
	} else {
		err = state.ValidateNodes(v, dirty.Keys())
	}
	if err != nil {
		return err
	}
	return state.ValidateSelection(v, v.sel)
}
