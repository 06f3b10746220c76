package collab

import (
	"github.com/npillmayer/outline/node"
)

// Entry is the shared record of a single node.
type Entry interface {
	Get(field string) (interface{}, bool)
	Set(field string, value interface{})
	Fields() node.Fields // a copy of all fields
}

// SharedMap is a replicated map of entries, one per node key.
//
// Implementations notify observers of changes received from other replicas.
// Changes made through the map itself may be reported with Event.Local set,
// or not at all.
type SharedMap interface {
	Get(key node.Key) (Entry, bool)
	Set(key node.Key) Entry // returns the entry for key, creating it if absent
	Delete(key node.Key)
	Keys() []node.Key
	Observe(func(Event)) (unsubscribe func())
}

// Source tells where a change was observed.
type Source uint8

const (
	// SourceMap is a change of the map: entries added, removed or changed.
	SourceMap Source = iota
	// SourceEntry is a change of the fields of a single entry.
	SourceEntry
)

func (s Source) String() string {
	if s == SourceEntry {
		return "entry"
	}
	return "map"
}

// Event is a change set observed on a shared map.
type Event struct {
	Source Source
	Keys   []node.Key // keys of changed entries
	Local  bool       // change was made through this replica
}
