package state

import (
	"fmt"

	"github.com/npillmayer/outline/node"
)

// PointType distinguishes text offsets from child indices.
type PointType uint8

const (
	// TextPoint addresses a rune offset within a text node.
	TextPoint PointType = iota
	// ElementPoint addresses a position between the children of an element:
	// offset i denotes the position before child i.
	ElementPoint
)

// Point is one end of a selection.
type Point struct {
	Key    node.Key
	Offset int
	Type   PointType
}

// TextAt creates a text point.
func TextAt(key node.Key, offset int) Point {
	return Point{Key: key, Offset: offset, Type: TextPoint}
}

// ElementAt creates an element point.
func ElementAt(key node.Key, offset int) Point {
	return Point{Key: key, Offset: offset, Type: ElementPoint}
}

func (p Point) String() string {
	if p.Type == ElementPoint {
		return fmt.Sprintf("⟨%s#%d⟩", p.Key, p.Offset)
	}
	return fmt.Sprintf("⟨%s@%d⟩", p.Key, p.Offset)
}

// Selection is a pair of points. Which of the two points comes first is
// derived from document order, not from the order in which they were set.
type Selection struct {
	Anchor Point
	Focus  Point
}

// Caret creates a collapsed selection.
func Caret(p Point) *Selection {
	return &Selection{Anchor: p, Focus: p}
}

// Range creates a selection from anchor to focus.
func Range(anchor, focus Point) *Selection {
	return &Selection{Anchor: anchor, Focus: focus}
}

func (sel *Selection) String() string {
	if sel == nil {
		return "(no selection)"
	}
	if sel.IsCaret() {
		return fmt.Sprintf("caret%s", sel.Anchor)
	}
	return fmt.Sprintf("%s…%s", sel.Anchor, sel.Focus)
}

// IsCaret is true if anchor equals focus.
func (sel *Selection) IsCaret() bool {
	return sel.Anchor == sel.Focus
}

// Clone returns a copy of sel. It is legal to clone a nil selection.
func (sel *Selection) Clone() *Selection {
	if sel == nil {
		return nil
	}
	c := *sel
	return &c
}

// Equal compares two selections, either of which may be nil.
func (sel *Selection) Equal(other *Selection) bool {
	if sel == nil || other == nil {
		return sel == other
	}
	return *sel == *other
}

// IsBackward is true if the focus lies before the anchor in document order.
func (sel *Selection) IsBackward(r Reader) bool {
	return ComparePoints(r, sel.Anchor, sel.Focus) > 0
}

// Ordered returns the selection's points in document order.
func (sel *Selection) Ordered(r Reader) (start, end Point) {
	if sel.IsBackward(r) {
		return sel.Focus, sel.Anchor
	}
	return sel.Anchor, sel.Focus
}

// References is true if either point of the selection addresses key.
func (sel *Selection) References(key node.Key) bool {
	return sel != nil && (sel.Anchor.Key == key || sel.Focus.Key == key)
}

// ComparePoints compares two points in document order. It returns -1 if a
// comes before b, 0 if the points are identical and +1 otherwise.
// Both points must reference attached nodes.
func ComparePoints(r Reader, a, b Point) int {
	if a == b {
		return 0
	}
	pa, pb := pointPath(r, a), pointPath(r, b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] < pb[i] {
			return -1
		} else if pa[i] > pb[i] {
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

// pointPath translates a point to a sequence of coordinates: the child-index
// path of its node followed by its offset. Lexicographic comparison of these
// sequences yields document order.
func pointPath(r Reader, p Point) []int {
	path, ok := Path(r, p.Key)
	assertThat(ok, "point %s references a detached node", p)
	return append(path, p.Offset)
}
