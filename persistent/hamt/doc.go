/*
Package hamt implements an immutable persistent map with string-like keys, built
as a hash array mapped trie (HAMT).

An immutable persistent map has copy-on-write behaviour: each “modification” of
the map (insertion, replacement or deletion) creates a new incarnation, leaving
the original unmodified. Under the hood only the path from the root to the
affected slot is copied; every other node of the trie is shared between the
original and the copy. Values are stored as-is, which implies that pointer
values of untouched keys are reference-identical in both incarnations.

Keys are hashed with xxhash. Each level of the trie consumes 5 bits of the
64-bit hash; keys with identical hashes end up in a collision bucket at the
bottom of the trie.

Immutable maps are inherently concurrency-safe.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package hamt

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.hamt'.
func tracer() tracing.Trace {
	return tracing.Select("outline.hamt")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("hamt: "+msg, msgargs...)
		panic(msg)
	}
}
