package state

import (
	"fmt"

	"github.com/npillmayer/outline/node"
)

// Document is the serialized layout of a snapshot: one field set per node key.
// It is the same shape the collaboration bridge uses for shared entries.
type Document map[node.Key]node.Fields

// Export serializes the node table of s.
func (s *Snapshot) Export() Document {
	doc := make(Document, s.nodes.Len())
	s.nodes.Range(func(k node.Key, n *node.Node) bool {
		doc[k] = n.Fields()
		return true
	})
	return doc
}

// Import creates a snapshot from a serialized document and an optional
// selection. The document has to contain a root and form a well-formed tree,
// and the selection must resolve to nodes of the document.
func Import(doc Document, sel *Selection) (*Snapshot, error) {
	if _, ok := doc[node.RootKey]; !ok {
		return nil, fmt.Errorf("%w: document has no root", ErrMalformedTree)
	}
	t := Table{}
	for k, f := range doc {
		n, err := node.FromFields(k, f)
		if err != nil {
			return nil, fmt.Errorf("cannot import node %s: %w", k, err)
		}
		t = t.With(k, n)
	}
	if err := ValidateAll(t); err != nil {
		return nil, err
	}
	if err := ValidateSelection(TableReader(t), sel); err != nil {
		return nil, err
	}
	tracer().Debugf("imported document with %d nodes", t.Len())
	return Make(t, sel, 0, 0), nil
}
