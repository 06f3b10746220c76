/*
Package history implements undo and redo for an editor.

A Manager listens to the commits of an editor and keeps two stacks of
snapshots. Every commit either starts a new undo step, pushing the previous
snapshot onto the undo stack, or is merged into the current step. Merging
avoids one undo step per keystroke: by default, a run of single-character
edits of a text node with unchanged format is merged, as are consecutive
selection movements. The merge predicate is a policy (type MergePolicy) and
may be replaced, e.g. by MergeRunesUpTo for input methods which insert
several characters at once.

Undo and Redo publish a snapshot from the stacks as a new state of the
editor, flagged as historic. Historic commits are never recorded.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package history

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'outline.history'.
func tracer() tracing.Trace {
	return tracing.Select("outline.history")
}
