package node

import "strings"

// Format is a bitset of text format flags.
type Format uint16

// Text format flags.
const (
	Bold Format = 1 << iota
	Italic
	Underline
	Strikethrough
	Code
	Subscript
	Superscript
	Highlight
)

var formatNames = []struct {
	f    Format
	name string
}{
	{Bold, "bold"},
	{Italic, "italic"},
	{Underline, "underline"},
	{Strikethrough, "strikethrough"},
	{Code, "code"},
	{Subscript, "subscript"},
	{Superscript, "superscript"},
	{Highlight, "highlight"},
}

// Has is true if all flags of g are set in f.
func (f Format) Has(g Format) bool {
	return f&g == g
}

// Toggle flips the flags of g.
func (f Format) Toggle(g Format) Format {
	return f ^ g
}

// With sets or clears the flags of g.
func (f Format) With(g Format, on bool) Format {
	if on {
		return f | g
	}
	return f &^ g
}

func (f Format) String() string {
	if f == 0 {
		return "plain"
	}
	var names []string
	for _, fn := range formatNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// FormatFromString resolves a single format name, e.g. "bold".
// It returns 0 for unknown names.
func FormatFromString(s string) Format {
	for _, fn := range formatNames {
		if fn.name == s {
			return fn.f
		}
	}
	return 0
}

// TextMode controls how a text node behaves under editing.
type TextMode uint8

const (
	// ModeNormal text is edited character by character.
	ModeNormal TextMode = iota
	// ModeImmutable text is a token: it is deleted as a whole and never merged
	// with neighbouring text.
	ModeImmutable
)

func (m TextMode) String() string {
	if m == ModeImmutable {
		return "immutable"
	}
	return "normal"
}
