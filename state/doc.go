/*
Package state implements immutable document snapshots.

A snapshot is a versioned view of a document's node table at a point in time,
together with the selection at that time. Snapshots are the unit of undo,
rendering and synchronization. They are never modified after creation:
producing a new snapshot from an old one is copy-on-write, backed by a
persistent hash map (package persistent/hamt). Unchanged nodes are shared by
reference between snapshots; changed nodes are fresh clones stored under the
same key.

Besides the snapshot type, this package offers tree navigation over anything
able to look up nodes by key (interface Reader), structural validation,
reconciliation diffs between snapshots, and the flat key→fields layout used
for persistence.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package state

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.state'.
func tracer() tracing.Trace {
	return tracing.Select("outline.state")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("state: "+msg, msgargs...)
		panic(msg)
	}
}
