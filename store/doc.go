/*
Package store persists document snapshots in a bbolt database.

Every document lives in a bucket of its own, named by the document name. The
bucket holds one JSON value per node key, in the field layout of
state.Document, and the selection of the snapshot:

    documents/
        <name>/
            nodes/
                <key>  →  {"type":"paragraph","parent":"root",...}
            selection  →  {"Anchor":...,"Focus":...} or null

Loading a document goes through state.Import and thus validates the tree.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package store

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.store'.
func tracer() tracing.Trace {
	return tracing.Select("outline.store")
}
