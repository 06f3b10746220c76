/*
Package editor implements the transaction engine of a document editor.

An Editor holds the current document snapshot (see package state). The only way
to change it is a call to Update, which hands a mutation view to a callback:

    err := ed.Update(func(v *editor.View) error {
        return v.Selection().InsertText("Hello")
    })

The view is bound to a pending snapshot. Nodes are cloned on first write
(View.Writable) and registered in the pending node table; everything left
untouched is shared with the previous snapshot. When the callback returns,
the engine commits: it runs registered node transforms, normalizes adjacent
text nodes, collects nodes no longer reachable from the root, validates the
tree invariants, computes the set of dirty keys and publishes a new snapshot.
Listeners are then notified synchronously, in registration order.

A transaction is all or nothing. If the callback returns an error, or the
commit detects a violated invariant, the pending snapshot is discarded and the
previously committed snapshot stays current.

The engine is single-threaded. Calling Update from within an update callback
or from a listener fails with ErrReentrant; follow-up transactions have to be
queued with Schedule.

Selection

View.Selection returns a Range bound to the pending selection. All editing
primitives (typing, deleting by grapheme, word or line, formatting, splitting
paragraphs) are methods of Range. Offsets are measured in runes; grapheme
arithmetic is delegated to package grapheme and never leaves a caret inside a
cluster.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package editor

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.editor'.
func tracer() tracing.Trace {
	return tracing.Select("outline.editor")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("editor: "+msg, msgargs...)
		panic(msg)
	}
}
