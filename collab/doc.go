/*
Package collab connects an editor to a replicated key-value map shared with
other clients.

Every node of the document has a shared entry under its key, holding the
node's fields (see node.Fields). Synchronization happens at field
granularity: after a local commit, only fields which differ from the shared
entry are written, so concurrent edits of different fields of the same node
by different clients both survive. Conflicting writes of the same field are
resolved by the replicated map, which is expected to implement
last-writer-wins semantics per field (see package collab/lww for an
implementation).

Changes observed on the shared map are applied to the editor in a
transaction of their own, tagged with Tag. Nodes unknown locally are
instantiated from their entries, nodes whose entries vanished are removed,
and nodes present on both sides are patched field by field. Text changes are
applied as a minimal splice, computed from the common prefix and suffix of
old and new text, which keeps a local caret in place even if a remote
insertion happened earlier in the same text node.

The bridge does not talk to any network itself. Transporting changes
between replicas is up to the implementation of SharedMap.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package collab

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.collab'.
func tracer() tracing.Trace {
	return tracing.Select("outline.collab")
}
