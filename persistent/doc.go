/*
Package persistent groups the immutable persistent data structures the document
state is built on.

A persistent structure is never modified in place. Every modification returns
a new incarnation which shares all untouched parts with the original, so
keeping older incarnations around costs only the copied paths. Document
snapshots rely on this: a transaction derives the next node table from the
current one, and history keeps earlier tables without copying them.

Sub-package hamt holds the map from node keys to nodes.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package persistent
