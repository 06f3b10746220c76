/*
Package node defines the content nodes a document tree is made of.

Nodes are plain values identified by an opaque key. A node never holds a pointer
to another node: parent and children are referenced by key and resolved through
a node table (see package state). This keeps snapshots free of reference cycles
and makes copy-on-write a matter of cloning a single value.

Node variants form a closed set of kinds. Instead of a class hierarchy, every
kind has an entry in a capability table, and kind-specific fields are simply
left zero for kinds which do not use them:

   Kind        Leaf  Element  Block  Inline  Text
   Root              ●
   Paragraph         ●        ●
   Heading           ●        ●
   Quote             ●        ●
   List              ●        ●
   ListItem          ●        ●
   Code              ●        ●
   Overflow          ●               ●
   Text        ●                     ●       ●
   LineBreak   ●                     ●

Every node can be converted to a flat field map (type Fields), which is the
shape used for persistence as well as for collaborative synchronization.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package node

import "fmt"

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("node: "+msg, msgargs...)
		panic(msg)
	}
}
