package history

import (
	"time"

	"github.com/npillmayer/outline/editor"
	"github.com/npillmayer/outline/node"
	"github.com/npillmayer/outline/state"
)

// TagHistoric tags the updates published by Undo and Redo.
const TagHistoric = "historic"

// Change describes a committed update as seen by the history.
type Change struct {
	Prev  *state.Snapshot // the current snapshot of the history before the update
	Next  *state.Snapshot // the snapshot produced by the update
	Dirty []node.Key      // dirty keys of the update, sorted
}

// TextDelta reports whether the change touched exactly one text node present
// in both snapshots, changing its text only and leaving format and mode
// unchanged. delta is the difference in length (runes).
func (c Change) TextDelta() (key node.Key, delta int, ok bool) {
	if len(c.Dirty) != 1 {
		return node.NoKey, 0, false
	}
	key = c.Dirty[0]
	a, inPrev := c.Prev.Node(key)
	b, inNext := c.Next.Node(key)
	if !inPrev || !inNext || !a.IsText() || !b.IsText() {
		return key, 0, false
	}
	if a.Format != b.Format || a.Mode != b.Mode || a.Parent != b.Parent {
		return key, 0, false
	}
	return key, b.Len() - a.Len(), true
}

// MergePolicy decides if a change is merged into the current undo step
// instead of starting a new one. undo is the undo stack, bottom first; it
// must not be modified.
type MergePolicy func(c Change, undo []*state.Snapshot) bool

// DefaultMerge merges a change if it moves the selection only, or if both
// snapshots are node mutations and the change grows or shrinks the text of a
// single text node by exactly one rune, keeping its format. Pure selection
// movement never starts an undo step of its own.
func DefaultMerge(c Change, undo []*state.Snapshot) bool {
	return MergeRunesUpTo(1)(c, undo)
}

// MergeRunesUpTo is like DefaultMerge, but merges text changes of up to n
// runes. Input methods composing several characters at once need this.
func MergeRunesUpTo(n int) MergePolicy {
	return func(c Change, undo []*state.Snapshot) bool {
		if !c.Next.IsDirty() {
			return true
		}
		if !c.Prev.IsDirty() || !c.Next.IsDirty() || c.Prev.IsHistoric() {
			return false
		}
		_, delta, ok := c.TextDelta()
		if delta < 0 {
			delta = -delta
		}
		return ok && delta >= 1 && delta <= n
	}
}

// Manager is the undo/redo history of an editor.
type Manager struct {
	props
	ed          *editor.Editor
	undo        []*state.Snapshot
	redo        []*state.Snapshot
	current     *state.Snapshot
	last        time.Time
	unsubscribe func()
}

// New creates a history for an editor and starts recording its commits.
// The current state of the editor is the initial entry of the history.
//
// Undo and Redo restore complete snapshots. By default, updates applied by a
// collaboration bridge are recorded like local edits, and undoing them
// reverts the collaborators' changes for every replica. With
// ClearOn(collab.Tag), remote updates drop the undo and redo stacks instead,
// so that undo never reaches back across a remote change.
func New(ed *editor.Editor, opts ...Option) *Manager {
	h := &Manager{ed: ed, current: ed.State()}
	h.props = props{merge: DefaultMerge, clock: time.Now}
	for _, option := range opts {
		h.props = option.config(h.props)
	}
	h.last = h.clock()
	h.unsubscribe = ed.AddUpdateListener(h.record)
	return h
}

// Option is a type to help initializing a history at creation time.
type Option struct {
	config func(props) props
}

type props struct {
	merge    MergePolicy
	maxDepth int
	window   time.Duration
	clock    func() time.Time
	skipTags  []string
	clearTags []string
}

// WithMergePolicy replaces DefaultMerge.
func WithMergePolicy(policy MergePolicy) Option {
	return Option{config: func(p props) props {
		if policy != nil {
			p.merge = policy
		}
		return p
	}}
}

// MaxDepth limits the number of undo steps. Older steps are dropped.
// n ≤ 0 means no limit.
func MaxDepth(n int) Option {
	return Option{config: func(p props) props {
		p.maxDepth = n
		return p
	}}
}

// MergeWindow prevents changes further apart than d from being merged,
// whatever the merge policy says. d ≤ 0 disables the window.
func MergeWindow(d time.Duration) Option {
	return Option{config: func(p props) props {
		p.window = d
		return p
	}}
}

// WithClock replaces time.Now as the clock used for MergeWindow.
func WithClock(clock func() time.Time) Option {
	return Option{config: func(p props) props {
		p.clock = clock
		return p
	}}
}

// SkipTags makes updates carrying one of the tags part of the current undo
// step, e.g. updates of plugins maintaining derived structure. Undoing the
// step reverts them along with it.
func SkipTags(tags ...string) Option {
	return Option{config: func(p props) props {
		p.skipTags = append(p.skipTags, tags...)
		return p
	}}
}

// ClearOn makes node-changing updates carrying one of the tags clear the
// history, e.g. updates applied by a collaborator.
func ClearOn(tags ...string) Option {
	return Option{config: func(p props) props {
		p.clearTags = append(p.clearTags, tags...)
		return p
	}}
}

// record is the update listener.
func (h *Manager) record(u editor.Update) {
	now := h.clock()
	defer func() { h.last = now }()
	if u.Next.IsHistoric() || u.HasTag(TagHistoric) {
		h.current = u.Next
		return
	}
	for _, tag := range h.clearTags {
		if u.HasTag(tag) && len(u.Dirty) > 0 {
			tracer().Debugf("history: v%d tagged %q, history cleared", u.Next.Version(), tag)
			h.undo, h.redo = nil, nil
			h.current = u.Next
			return
		}
	}
	for _, tag := range h.skipTags {
		if u.HasTag(tag) {
			tracer().Debugf("history: v%d tagged %q, merged", u.Next.Version(), tag)
			h.current = u.Next
			return
		}
	}
	c := Change{Prev: h.current, Next: u.Next, Dirty: u.Dirty.Keys()}
	if h.window <= 0 || now.Sub(h.last) <= h.window {
		if h.merge(c, h.undo) {
			if u.Next.IsDirty() {
				h.redo = nil
			}
			h.current = u.Next
			return
		}
	}
	h.push(h.current)
	h.redo = nil
	h.current = u.Next
	tracer().Debugf("history: new undo step at v%d, depth %d", u.Next.Version(), len(h.undo))
}

func (h *Manager) push(s *state.Snapshot) {
	h.undo = append(h.undo, s)
	if h.maxDepth > 0 && len(h.undo) > h.maxDepth {
		drop := len(h.undo) - h.maxDepth
		h.undo = append(h.undo[:0:0], h.undo[drop:]...)
	}
}

// Undo restores the snapshot of the previous undo step. It does nothing if
// there is none. Undo must not be called from an update listener.
func (h *Manager) Undo() error {
	if len(h.undo) == 0 {
		return nil
	}
	s, present := h.undo[len(h.undo)-1], h.current
	if err := h.ed.SetState(s, editor.Historic(), editor.Tag(TagHistoric)); err != nil {
		return err
	}
	h.redo = append(h.redo, present)
	h.undo = h.undo[:len(h.undo)-1]
	tracer().Debugf("history: undo to v%d", s.Version())
	return nil
}

// Redo re-applies the step last undone. It does nothing if there is none.
func (h *Manager) Redo() error {
	if len(h.redo) == 0 {
		return nil
	}
	s, present := h.redo[len(h.redo)-1], h.current
	if err := h.ed.SetState(s, editor.Historic(), editor.Tag(TagHistoric)); err != nil {
		return err
	}
	h.push(present)
	h.redo = h.redo[:len(h.redo)-1]
	tracer().Debugf("history: redo to v%d", s.Version())
	return nil
}

// CanUndo is true if there is a step to undo.
func (h *Manager) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo is true if there is a step to redo.
func (h *Manager) CanRedo() bool {
	return len(h.redo) > 0
}

// Depth returns the sizes of the undo and the redo stack.
func (h *Manager) Depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Clear empties both stacks.
func (h *Manager) Clear() {
	h.undo, h.redo = nil, nil
	h.current = h.ed.State()
}

// Close stops recording.
func (h *Manager) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
}
