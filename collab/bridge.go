package collab

import (
	"errors"
	"fmt"
	"sort"

	"github.com/npillmayer/outline/editor"
	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// Tag tags the updates a bridge applies from the shared map. Listeners may
// use it to tell remote changes from local ones.
const Tag = "collab"

// ErrKindMismatch is reported if a shared entry changes the type of an
// existing node.
var ErrKindMismatch = errors.New("shared entry changes node type")

// ErrorHandler receives errors which occur while applying remote changes.
// key is the key of the entry which could not be applied, or node.NoKey if
// the whole change set failed.
type ErrorHandler func(key node.Key, err error)

// Bridge synchronizes an editor with a shared map.
type Bridge struct {
	props
	ed          *editor.Editor
	shared      SharedMap
	unsubEditor func()
	unsubShared func()
	writing     bool
}

// New creates a bridge between an editor and a shared map. The bridge starts
// synchronizing when Connect is called.
func New(ed *editor.Editor, shared SharedMap, opts ...Option) *Bridge {
	b := &Bridge{ed: ed, shared: shared}
	for _, option := range opts {
		b.props = option.config(b.props)
	}
	return b
}

// Option is a type to help initializing a bridge at creation time.
type Option struct {
	config func(props) props
}

type props struct {
	onError ErrorHandler
}

// OnError sets a handler for errors applying remote changes. Without a
// handler, errors are traced only.
func OnError(h ErrorHandler) Option {
	return Option{config: func(p props) props {
		p.onError = h
		return p
	}}
}

func (b *Bridge) fail(key node.Key, err error) {
	tracer().Errorf("collab: cannot apply %s: %v", key, err)
	if b.onError != nil {
		b.onError(key, err)
	}
}

// Connect performs the initial synchronization and starts listening to both
// sides. If the shared map already holds a document (i.e. an entry for the
// root), the local document is replaced by it. Otherwise the local document
// is published to the shared map.
func (b *Bridge) Connect() error {
	if b.unsubEditor != nil {
		return nil
	}
	if _, ok := b.shared.Get(node.RootKey); ok {
		keys := append(b.shared.Keys(), b.ed.State().Keys()...)
		err := b.ed.Update(func(v *editor.View) error {
			return b.apply(v, keys)
		}, editor.Tag(Tag))
		if err != nil {
			return fmt.Errorf("cannot load shared document: %w", err)
		}
		tracer().Infof("collab: loaded shared document, %d nodes", b.ed.State().Len())
	} else {
		b.writing = true
		s := b.ed.State()
		for _, k := range s.Keys() {
			n, _ := s.Node(k)
			b.write(n)
		}
		b.writing = false
		tracer().Infof("collab: published local document, %d nodes", s.Len())
	}
	b.unsubEditor = b.ed.AddUpdateListener(b.onUpdate)
	b.unsubShared = b.shared.Observe(b.onEvent)
	return nil
}

// Close stops synchronizing.
func (b *Bridge) Close() {
	if b.unsubEditor != nil {
		b.unsubEditor()
		b.unsubShared()
		b.unsubEditor, b.unsubShared = nil, nil
	}
}

// --- Local → shared --------------------------------------------------------

// onUpdate writes the dirty nodes of a local commit to the shared map.
// Updates applied from the shared map are not written back.
func (b *Bridge) onUpdate(u editor.Update) {
	if u.HasTag(Tag) || len(u.Dirty) == 0 {
		return
	}
	b.writing = true
	defer func() { b.writing = false }()
	for _, k := range u.Dirty.Keys() {
		if n, ok := u.Next.Node(k); ok {
			b.write(n)
		} else if _, ok := b.shared.Get(k); ok {
			tracer().Debugf("collab: deleting shared entry %s", k)
			b.shared.Delete(k)
		}
	}
}

// write copies the fields of n to its shared entry. Fields equal to the
// entry's are left alone: rewriting them would make a stale value win
// against a concurrent write from another client.
func (b *Bridge) write(n *node.Node) {
	f := n.Fields()
	e, ok := b.shared.Get(n.Key)
	var names []string
	if ok {
		names = node.DiffFields(e.Fields(), f)
	} else {
		e = b.shared.Set(n.Key)
		for name := range f {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	for _, name := range names {
		if value, ok := f[name]; ok {
			e.Set(name, value)
		}
	}
	if len(names) > 0 {
		tracer().Debugf("collab: wrote %s %v", n.Key, names)
	}
}

// --- Shared → local --------------------------------------------------------

func (b *Bridge) onEvent(ev Event) {
	if ev.Local || b.writing || len(ev.Keys) == 0 {
		return
	}
	keys := append([]node.Key(nil), ev.Keys...)
	tracer().Debugf("collab: %s event for %d keys", ev.Source, len(keys))
	fn := func(v *editor.View) error {
		return b.apply(v, keys)
	}
	if b.ed.Phase() != editor.Idle {
		b.ed.Schedule(fn, editor.Tag(Tag))
		return
	}
	if err := b.ed.Update(fn, editor.Tag(Tag)); err != nil {
		b.fail(node.NoKey, err)
	}
}

// Apply applies the shared entries for keys to the editor, as if they had
// been reported by the shared map. It is useful to resynchronize after a
// transport failure.
func (b *Bridge) Apply(keys ...node.Key) error {
	return b.ed.Update(func(v *editor.View) error {
		return b.apply(v, keys)
	}, editor.Tag(Tag))
}

// applier holds the state of applying one change set.
type applier struct {
	b    *Bridge
	v    *editor.View
	done map[node.Key]bool
}

func (b *Bridge) apply(v *editor.View, keys []node.Key) error {
	a := &applier{b: b, v: v, done: make(map[node.Key]bool, len(keys))}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		a.sync(k)
	}
	return nil
}

func (a *applier) lookup(key node.Key) *node.Node {
	n, _ := a.v.Node(key)
	return n
}

// sync brings the local node for key in line with its shared entry.
func (a *applier) sync(key node.Key) {
	if a.done[key] {
		return
	}
	a.done[key] = true
	entry, remote := a.b.shared.Get(key)
	local := a.lookup(key)
	switch {
	case !remote && local == nil:
	case !remote:
		if key == node.RootKey {
			return
		}
		tracer().Debugf("collab: removing %s", key)
		if err := a.v.Remove(key); err != nil {
			a.b.fail(key, err)
		}
	case local == nil:
		a.instantiate(key, entry)
	default:
		a.patch(local, entry)
	}
}

// ensure returns the local node for key, instantiating it from its shared
// entry if necessary. It returns nil if that is impossible.
func (a *applier) ensure(key node.Key) *node.Node {
	if n := a.lookup(key); n != nil {
		return n
	}
	if a.done[key] {
		return nil
	}
	a.done[key] = true
	entry, ok := a.b.shared.Get(key)
	if !ok {
		return nil
	}
	return a.instantiate(key, entry)
}

// instantiate creates a local node from a shared entry, creates its children
// and links it into its parent, following the parent's shared child list.
func (a *applier) instantiate(key node.Key, entry Entry) *node.Node {
	n, err := node.FromFields(key, entry.Fields())
	if err != nil {
		a.b.fail(key, err)
		return nil
	}
	tracer().Debugf("collab: instantiating %v", n)
	parent, children := n.Parent, n.Children
	n.Parent = node.NoKey
	if n.IsElement() {
		n.Children = []node.Key{}
	}
	if err := a.v.Add(n); err != nil {
		a.b.fail(key, err)
		return nil
	}
	a.syncChildren(key, children)
	if parent != node.NoKey && a.lookup(parent) != nil {
		a.sync(parent)
	}
	return a.lookup(key)
}

// patch applies the differences between a local node and its shared entry.
func (a *applier) patch(local *node.Node, entry Entry) {
	key := local.Key
	f := entry.Fields()
	remote, err := node.FromFields(key, f)
	if err != nil {
		a.b.fail(key, err)
		return
	}
	if remote.Kind != local.Kind {
		a.b.fail(key, fmt.Errorf("%w: %s → %s", ErrKindMismatch, local.Kind, remote.Kind))
		return
	}
	if local.IsText() && local.Text != remote.Text {
		a.spliceText(local, remote.Text)
	}
	for _, name := range node.DiffFields(local.Fields(), f) {
		switch name {
		case node.FieldType, node.FieldParent, node.FieldChildren, node.FieldText:
			continue
		}
		if value, ok := f[name]; ok {
			if err := a.v.Writable(key).SetField(name, value); err != nil {
				a.b.fail(key, err)
			}
		}
	}
	if local.IsElement() && !sameKeys(local.Children, remote.Children) {
		a.syncChildren(key, remote.Children)
	}
}

// spliceText replaces the text of n by text, splicing only the part between
// the common prefix and the common suffix. Selection points on n outside of
// the spliced part keep their position relative to the surrounding text.
func (a *applier) spliceText(n *node.Node, text string) {
	prefix, suffix := grapheme.CommonAffixes(n.Text, text)
	oldLen, newLen := grapheme.Len(n.Text), grapheme.Len(text)
	middle := grapheme.Slice(text, prefix, newLen-suffix)
	if err := a.v.SpliceText(n.Key, prefix, oldLen-prefix-suffix, middle); err != nil {
		a.b.fail(n.Key, err)
	}
}

// syncChildren rearranges the children of parent to match want. Children
// missing locally are instantiated, children no longer wanted are removed.
func (a *applier) syncChildren(parent node.Key, want []node.Key) {
	i := 0
	seen := make(map[node.Key]bool, len(want))
	for _, ch := range want {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		c := a.ensure(ch)
		if c == nil {
			continue
		}
		p := a.lookup(parent)
		if !state.Accepts(p.Kind, c.Kind) {
			a.b.fail(ch, fmt.Errorf("%w: %s %s cannot hold %s", state.ErrMalformedTree, p.Kind, parent, c.Kind))
			continue
		}
		if i < len(p.Children) && p.Children[i] == ch {
			i++
			continue
		}
		if err := a.v.InsertAt(parent, i, ch); err != nil {
			a.b.fail(ch, err)
			continue
		}
		i++
	}
	for p := a.lookup(parent); len(p.Children) > i; p = a.lookup(parent) {
		extra := p.Children[len(p.Children)-1]
		if err := a.v.Remove(extra); err != nil {
			a.b.fail(extra, err)
			return
		}
	}
}

func sameKeys(a, b []node.Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
