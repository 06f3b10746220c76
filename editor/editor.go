package editor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/npillmayer/outline/grapheme"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// Phase is the state of the transaction engine.
type Phase uint8

// Phases of a transaction: Idle → InTransaction → Committing → Idle.
const (
	Idle Phase = iota
	InTransaction
	Committing
)

func (p Phase) String() string {
	switch p {
	case InTransaction:
		return "in-transaction"
	case Committing:
		return "committing"
	}
	return "idle"
}

// Update is what listeners receive after every commit.
type Update struct {
	Prev  *state.Snapshot
	Next  *state.Snapshot
	Dirty DirtySet
	Tags  []string
}

// HasTag is true if the update was tagged with tag.
func (u Update) HasTag(tag string) bool {
	return u.Next.HasTag(tag)
}

// Listener is a callback for committed updates.
type Listener func(Update)

// Transform is a node transform. Transforms are registered per node kind and
// run during commit for every dirty node of that kind, until no transform
// dirties any more nodes.
type Transform func(v *View, n *node.Node) error

// maxTransformRounds bounds the transform fixpoint iteration.
const maxTransformRounds = 100

// Editor is the transaction engine. It is not safe for concurrent use.
type Editor struct {
	props
	current    *state.Snapshot
	phase      Phase
	keys       *keyGen
	listeners  []listener
	lid        int
	transforms map[node.Kind][]transform
	tid        int
	queue      []scheduled
}

type listener struct {
	id int
	fn Listener
}

type transform struct {
	id int
	fn Transform
}

type scheduled struct {
	fn   func(*View) error
	opts []UpdateOption
}

// New creates an editor. Without options it holds an empty document.
func New(opts ...Option) *Editor {
	ed := &Editor{transforms: make(map[node.Kind][]transform)}
	for _, option := range opts {
		ed.props = option.config(ed.props)
	}
	ed.keys = newKeyGen(ed.keyPrefix)
	if ed.initial != nil {
		ed.current = ed.initial
	} else {
		ed.current = state.New()
	}
	tracer().Debugf("new editor with key prefix %q", ed.keys.prefix)
	return ed
}

// Option is a type to help initializing editors at creation time.
type Option struct {
	config func(props) props
}

type props struct {
	keyPrefix   string
	segmenter   grapheme.Segmenter
	strict      bool
	validateAll bool
	initial     *state.Snapshot
}

// WithKeyPrefix sets the prefix of generated node keys. The default is a
// random UUID fragment.
func WithKeyPrefix(prefix string) Option {
	return Option{config: func(p props) props {
		p.keyPrefix = prefix
		return p
	}}
}

// WithSegmenter replaces the default grapheme segmenter, e.g. with
// grapheme.Codepoints{}.
func WithSegmenter(seg grapheme.Segmenter) Option {
	return Option{config: func(p props) props {
		p.segmenter = seg
		return p
	}}
}

// Strict makes invariant violations panic after the failed transaction has
// been discarded. Useful during development.
func Strict() Option {
	return Option{config: func(p props) props {
		p.strict = true
		return p
	}}
}

// ValidateAll checks the complete tree on every commit, not just dirty nodes.
func ValidateAll() Option {
	return Option{config: func(p props) props {
		p.validateAll = true
		return p
	}}
}

// WithInitialState starts the editor with an existing snapshot.
func WithInitialState(s *state.Snapshot) Option {
	return Option{config: func(p props) props {
		p.initial = s
		return p
	}}
}

// UpdateOption configures a single update.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	tags     []string
	historic bool
}

// Tag tags an update. Tags are stored with the resulting snapshot and let
// listeners recognize where an update came from.
func Tag(tag string) UpdateOption {
	return func(c *updateConfig) {
		c.tags = append(c.tags, tag)
	}
}

// Historic marks a snapshot published with SetState as a history replay.
func Historic() UpdateOption {
	return func(c *updateConfig) {
		c.historic = true
	}
}

func configure(opts []UpdateOption) updateConfig {
	var c updateConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// --- Accessors -------------------------------------------------------------

// State returns the current snapshot.
func (ed *Editor) State() *state.Snapshot {
	return ed.current
}

// NodeByKey looks up a node of the current snapshot.
func (ed *Editor) NodeByKey(key node.Key) (*node.Node, bool) {
	return ed.current.Node(key)
}

// Root returns the root node of the current snapshot.
func (ed *Editor) Root() *node.Node {
	return ed.current.Root()
}

// Phase returns the phase the transaction engine is in.
func (ed *Editor) Phase() Phase {
	return ed.phase
}

// Segmenter returns the grapheme segmenter of the editor.
func (ed *Editor) Segmenter() grapheme.Segmenter {
	if ed.segmenter == nil {
		return grapheme.Default
	}
	return ed.segmenter
}

// AddUpdateListener registers a listener and returns a function to remove it.
func (ed *Editor) AddUpdateListener(fn Listener) (unsubscribe func()) {
	ed.lid++
	id := ed.lid
	ed.listeners = append(ed.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range ed.listeners {
			if l.id == id {
				ed.listeners = append(ed.listeners[:i:i], ed.listeners[i+1:]...)
				return
			}
		}
	}
}

// RegisterTransform registers a node transform for a kind of node and returns
// a function to remove it.
func (ed *Editor) RegisterTransform(kind node.Kind, fn Transform) (unregister func()) {
	ed.tid++
	id := ed.tid
	ed.transforms[kind] = append(ed.transforms[kind], transform{id: id, fn: fn})
	return func() {
		ts := ed.transforms[kind]
		for i, t := range ts {
			if t.id == id {
				ed.transforms[kind] = append(ts[:i:i], ts[i+1:]...)
				return
			}
		}
	}
}

// --- Transactions ----------------------------------------------------------

// Update runs fn as a transaction. If fn returns an error or the commit fails,
// the transaction is discarded and the error is returned.
//
// Updates which neither dirty a node nor move the selection do not publish a
// new snapshot.
func (ed *Editor) Update(fn func(*View) error, opts ...UpdateOption) error {
	if ed.phase != Idle {
		tracer().Errorf("update requested while %s", ed.phase)
		return ErrReentrant
	}
	cfg := configure(opts)
	ed.phase = InTransaction
	next, dirty, err := ed.transact(fn, cfg)
	if err != nil {
		ed.phase = Idle
		tracer().Errorf("transaction discarded: %v", err)
		if ed.strict && isInvariant(err) {
			panic(err)
		}
		ed.drain()
		return err
	}
	if next != nil {
		ed.publish(next, dirty, cfg.tags)
	}
	ed.phase = Idle
	ed.drain()
	return nil
}

// transact runs fn and the commit pipeline, converting panics raised by
// assertions into ErrInvariant.
func (ed *Editor) transact(fn func(*View) error, cfg updateConfig) (next *state.Snapshot, dirty DirtySet, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, dirty = nil, nil
			if e, ok := r.(error); ok && isInvariant(e) {
				err = e
				return
			}
			err = fmt.Errorf("%w: %v", ErrInvariant, r)
		}
	}()
	v := newView(ed, ed.current)
	if err = fn(v); err != nil {
		return nil, nil, err
	}
	ed.phase = Committing
	return v.commit(cfg)
}

// SetState publishes an existing snapshot as the new current state, e.g. a
// snapshot replayed from history or restored from a store. Its nodes are
// shared, its selection is kept, and it gets a new version number. The dirty
// set is computed by structural diff against the current snapshot.
func (ed *Editor) SetState(s *state.Snapshot, opts ...UpdateOption) error {
	if ed.phase != Idle {
		return ErrReentrant
	}
	if err := state.ValidateSelection(s, s.Selection()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	cfg := configure(opts)
	changes := state.Diff(ed.current, s)
	dirty := make(DirtySet, changes.Len())
	for _, k := range changes.All() {
		dirty[k] = true
	}
	var flags state.Flags
	if len(dirty) > 0 {
		flags |= state.Dirty
	}
	if cfg.historic {
		flags |= state.Historic
	}
	ed.phase = Committing
	next := state.Make(s.Table(), s.Selection(), ed.current.Version()+1, flags, cfg.tags...)
	ed.publish(next, dirty, cfg.tags)
	ed.phase = Idle
	ed.drain()
	return nil
}

func (ed *Editor) publish(next *state.Snapshot, dirty DirtySet, tags []string) {
	prev := ed.current
	ed.current = next
	tracer().Debugf("published v%d, %d dirty nodes, tags %v", next.Version(), len(dirty), tags)
	u := Update{Prev: prev, Next: next, Dirty: dirty, Tags: tags}
	listeners := make([]listener, len(ed.listeners))
	copy(listeners, ed.listeners)
	for _, l := range listeners {
		l.fn(u)
	}
}

// Schedule queues fn as a transaction of its own. If the editor is idle, fn
// runs immediately; otherwise it runs as soon as the current transaction and
// its listeners have finished. Errors of scheduled transactions are traced.
func (ed *Editor) Schedule(fn func(*View) error, opts ...UpdateOption) {
	ed.queue = append(ed.queue, scheduled{fn: fn, opts: opts})
	if ed.phase == Idle {
		ed.drain()
	}
}

func (ed *Editor) drain() {
	for len(ed.queue) > 0 && ed.phase == Idle {
		s := ed.queue[0]
		ed.queue = ed.queue[1:]
		if err := ed.Update(s.fn, s.opts...); err != nil {
			tracer().Errorf("scheduled update failed: %v", err)
		}
	}
}

func isInvariant(err error) bool {
	return err != nil && errors.Is(err, ErrInvariant)
}

// --- Dirty set -------------------------------------------------------------

// DirtySet is the set of keys of nodes created, changed or removed by a
// transaction.
type DirtySet map[node.Key]bool

// Has is true if key is dirty.
func (d DirtySet) Has(key node.Key) bool {
	return d[key]
}

// Keys returns the dirty keys, sorted.
func (d DirtySet) Keys() []node.Key {
	keys := make([]node.Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
