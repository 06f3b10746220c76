package editor

import "errors"

// Transaction errors
var (
	// ErrReentrant is returned if an update is requested while another one is
	// in flight.
	ErrReentrant = errors.New("reentrant update")

	// ErrInvariant wraps violations of the document invariants detected during
	// a transaction. The transaction has been discarded.
	ErrInvariant = errors.New("invariant violation")

	// ErrNoConvergence is returned if node transforms keep dirtying nodes.
	ErrNoConvergence = errors.New("node transforms do not converge")
)

// Mutation errors
var (
	// ErrNoSuchNode is returned for keys not present in the pending snapshot.
	ErrNoSuchNode = errors.New("no such node")

	// ErrNotElement is returned if children are added to a leaf.
	ErrNotElement = errors.New("node does not accept children")

	// ErrNotText is returned for text operations on non-text nodes.
	ErrNotText = errors.New("not a text node")

	// ErrImmutable is returned on attempts to split immutable text.
	ErrImmutable = errors.New("text node is immutable")

	// ErrRoot is returned on attempts to remove or move the root.
	ErrRoot = errors.New("operation not permitted on root")

	// ErrCycle is returned if a node would become its own ancestor.
	ErrCycle = errors.New("node would become its own ancestor")

	// ErrExists is returned when adding a node whose key is already taken.
	ErrExists = errors.New("node key already exists")

	// ErrNoSelection is returned by selection operations if there is no selection.
	ErrNoSelection = errors.New("no selection")
)
