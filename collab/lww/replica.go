package lww

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/npillmayer/outline/collab"
	"github.com/npillmayer/outline/node"
)

// Stamp orders writes.
type Stamp struct {
	Clock   uint64 `json:"clock"`
	Replica string `json:"replica"`
}

// Less is true if s has been superseded by t.
func (s Stamp) Less(t Stamp) bool {
	if s.Clock != t.Clock {
		return s.Clock < t.Clock
	}
	return s.Replica < t.Replica
}

// IsZero is true for the stamp of a write that never happened.
func (s Stamp) IsZero() bool {
	return s.Clock == 0 && s.Replica == ""
}

// OpKind tells what an operation does.
type OpKind uint8

// Kinds of operations.
const (
	OpCreate OpKind = iota // create an entry without fields
	OpSet                  // set a field of an entry
	OpDelete               // delete an entry
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	}
	return "create"
}

// Op is a single write, the unit of replication. Ops are JSON serializable;
// field values decoded from JSON are understood by node.FromFields.
type Op struct {
	Kind  OpKind      `json:"kind"`
	Key   node.Key    `json:"key"`
	Field string      `json:"field,omitempty"`
	Value interface{} `json:"value"`
	Stamp Stamp       `json:"stamp"`
}

type register struct {
	value interface{}
	stamp Stamp
}

type record struct {
	fields  map[string]register
	created Stamp
	deleted Stamp
}

// alive is true if the latest write to the record is not its deletion.
func (rec *record) alive() bool {
	if rec.deleted.IsZero() {
		return true
	}
	if rec.deleted.Less(rec.created) {
		return true
	}
	for _, reg := range rec.fields {
		if rec.deleted.Less(reg.stamp) {
			return true
		}
	}
	return false
}

// visible returns the fields of a record not hidden by its deletion.
func (rec *record) visible() node.Fields {
	f := make(node.Fields, len(rec.fields))
	for name, reg := range rec.fields {
		if rec.deleted.IsZero() || rec.deleted.Less(reg.stamp) {
			f[name] = copyValue(reg.value)
		}
	}
	return f
}

// Replica is one copy of a replicated map. It implements collab.SharedMap
// and is safe for concurrent use. Observers are called without the
// replica's lock held.
type Replica struct {
	mu        sync.Mutex
	id        string
	clock     uint64
	records   map[node.Key]*record
	outbox    []Op
	observers []observer
	oid       int
}

type observer struct {
	id int
	fn func(collab.Event)
}

var _ collab.SharedMap = (*Replica)(nil)

// NewReplica creates an empty replica. If id is empty, a random id is used.
// Replica ids have to be unique among the replicas of a map.
func NewReplica(id string) *Replica {
	if id == "" {
		id = uuid.NewString()
	}
	return &Replica{id: id, records: make(map[node.Key]*record)}
}

// ID returns the replica id.
func (r *Replica) ID() string {
	return r.id
}

// stamp ticks the clock. Caller holds the lock.
func (r *Replica) stamp() Stamp {
	r.clock++
	return Stamp{Clock: r.clock, Replica: r.id}
}

// Get is part of interface collab.SharedMap.
func (r *Replica) Get(key node.Key) (collab.Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[key]; ok && rec.alive() {
		return entry{r: r, key: key}, true
	}
	return nil, false
}

// Set is part of interface collab.SharedMap.
func (r *Replica) Set(key node.Key) collab.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok || !rec.alive() {
		op := Op{Kind: OpCreate, Key: key, Stamp: r.stamp()}
		r.merge(op)
		r.outbox = append(r.outbox, op)
	}
	return entry{r: r, key: key}
}

// Delete is part of interface collab.SharedMap.
func (r *Replica) Delete(key node.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[key]; !ok || !rec.alive() {
		return
	}
	op := Op{Kind: OpDelete, Key: key, Stamp: r.stamp()}
	r.merge(op)
	r.outbox = append(r.outbox, op)
}

// Keys is part of interface collab.SharedMap. Keys are sorted.
func (r *Replica) Keys() []node.Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]node.Key, 0, len(r.records))
	for k, rec := range r.records {
		if rec.alive() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Observe is part of interface collab.SharedMap. Observers are notified of
// changes applied with Apply; local writes are not reported.
func (r *Replica) Observe(fn func(collab.Event)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oid++
	id := r.oid
	r.observers = append(r.observers, observer{id: id, fn: fn})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, o := range r.observers {
			if o.id == id {
				r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// Outbox returns and clears the operations of local writes not yet handed
// out.
func (r *Replica) Outbox() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := r.outbox
	r.outbox = nil
	return ops
}

// Apply merges operations received from other replicas and notifies the
// observers of the entries whose visible state changed. Applying an
// operation twice, or out of order, is harmless.
func (r *Replica) Apply(ops []Op) {
	r.mu.Lock()
	changed := make(map[node.Key]bool)
	fieldsOnly := true
	for _, op := range ops {
		if op.Stamp.Clock > r.clock {
			r.clock = op.Stamp.Clock
		}
		before, existed := r.snapshot(op.Key)
		r.merge(op)
		after, exists := r.snapshot(op.Key)
		if existed != exists || !sameFields(before, after) {
			changed[op.Key] = true
			fieldsOnly = fieldsOnly && existed && exists
		}
	}
	observers := make([]observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()
	if len(changed) == 0 {
		return
	}
	keys := make([]node.Key, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	ev := collab.Event{Source: collab.SourceMap, Keys: keys}
	if len(keys) == 1 && fieldsOnly {
		ev.Source = collab.SourceEntry
	}
	tracer().Debugf("lww %s: applied %d ops, %d entries changed", r.id, len(ops), len(keys))
	for _, o := range observers {
		o.fn(ev)
	}
}

// snapshot returns the visible fields of key. Caller holds the lock.
func (r *Replica) snapshot(key node.Key) (node.Fields, bool) {
	rec, ok := r.records[key]
	if !ok || !rec.alive() {
		return nil, false
	}
	return rec.visible(), true
}

// merge integrates an operation. Caller holds the lock.
func (r *Replica) merge(op Op) {
	rec, ok := r.records[op.Key]
	if !ok {
		rec = &record{fields: make(map[string]register)}
		r.records[op.Key] = rec
	}
	switch op.Kind {
	case OpCreate:
		if rec.created.Less(op.Stamp) {
			rec.created = op.Stamp
		}
	case OpDelete:
		if rec.deleted.Less(op.Stamp) {
			rec.deleted = op.Stamp
		}
	case OpSet:
		if reg, ok := rec.fields[op.Field]; !ok || reg.stamp.Less(op.Stamp) {
			rec.fields[op.Field] = register{value: copyValue(op.Value), stamp: op.Stamp}
		}
	}
}

// State returns the visible content of the replica, for inspection.
func (r *Replica) State() map[node.Key]node.Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := make(map[node.Key]node.Fields, len(r.records))
	for k, rec := range r.records {
		if rec.alive() {
			m[k] = rec.visible()
		}
	}
	return m
}

func (r *Replica) String() string {
	var sb strings.Builder
	sb.WriteString("replica ")
	sb.WriteString(r.id)
	for _, k := range r.Keys() {
		sb.WriteString("\n  ")
		sb.WriteString(string(k))
	}
	return sb.String()
}

// --- Entries ---------------------------------------------------------------

// entry is a handle to a record of a replica.
type entry struct {
	r   *Replica
	key node.Key
}

func (e entry) Get(field string) (interface{}, bool) {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	rec, ok := e.r.records[e.key]
	if !ok {
		return nil, false
	}
	reg, ok := rec.fields[field]
	if !ok || (!rec.deleted.IsZero() && !rec.deleted.Less(reg.stamp)) {
		return nil, false
	}
	return copyValue(reg.value), true
}

func (e entry) Set(field string, value interface{}) {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	op := Op{Kind: OpSet, Key: e.key, Field: field, Value: copyValue(value), Stamp: e.r.stamp()}
	e.r.merge(op)
	e.r.outbox = append(e.r.outbox, op)
}

func (e entry) Fields() node.Fields {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	if rec, ok := e.r.records[e.key]; ok {
		return rec.visible()
	}
	return node.Fields{}
}

// --- Values ----------------------------------------------------------------

// copyValue copies list values, which would otherwise be shared between
// replicas living in the same process.
func copyValue(v interface{}) interface{} {
	switch l := v.(type) {
	case []string:
		return append([]string(nil), l...)
	case []node.Key:
		return append([]node.Key(nil), l...)
	case []interface{}:
		return append([]interface{}(nil), l...)
	}
	return v
}

func sameFields(a, b node.Fields) bool {
	return len(node.DiffFields(a, b)) == 0
}
