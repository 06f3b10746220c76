/*
Package lww implements an in-memory replicated map with last-writer-wins
registers per field, suitable as the shared map of a collaboration bridge.

Every write is stamped with a Lamport clock and the id of the replica
performing it. For each field of each entry, the write with the highest
stamp wins; ties of the clock are broken by comparing replica ids. Deleting
an entry stamps the entry as a whole: fields written with lower stamps are
hidden, and a later write to any field revives the entry.

A Replica records its own writes as operations (type Op) in an outbox.
Transporting operations to other replicas is left to the client. Type Hub
connects replicas in memory, which is what tests need.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lww

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.lww'.
func tracer() tracing.Trace {
	return tracing.Select("outline.lww")
}
