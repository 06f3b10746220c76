package grapheme

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Segmenter finds grapheme cluster boundaries.
type Segmenter interface {
	// Boundaries returns the ascending rune offsets of all cluster boundaries
	// of s, starting with 0 and ending with the rune count of s.
	Boundaries(s string) []int
}

// Unicode segments text following UAX #29.
type Unicode struct{}

// Boundaries is part of interface Segmenter.
func (Unicode) Boundaries(s string) []int {
	b := []int{0}
	if s == "" {
		return b
	}
	g := uniseg.NewGraphemes(s)
	pos := 0
	for g.Next() {
		pos += len(g.Runes())
		b = append(b, pos)
	}
	return b
}

// Codepoints treats every rune as a cluster of its own.
type Codepoints struct{}

// Boundaries is part of interface Segmenter.
func (Codepoints) Boundaries(s string) []int {
	n := utf8.RuneCountInString(s)
	b := make([]int, n+1)
	for i := range b {
		b[i] = i
	}
	return b
}

// Default is the segmenter used if none is configured.
var Default Segmenter = Unicode{}

func orDefault(seg Segmenter) Segmenter {
	if seg == nil {
		return Default
	}
	return seg
}

// Next returns the first cluster boundary after offset off, or the rune count
// of s if there is none.
func Next(seg Segmenter, s string, off int) int {
	b := orDefault(seg).Boundaries(s)
	i := sort.SearchInts(b, off+1)
	if i == len(b) {
		return b[len(b)-1]
	}
	return b[i]
}

// Prev returns the last cluster boundary before offset off, or 0.
func Prev(seg Segmenter, s string, off int) int {
	b := orDefault(seg).Boundaries(s)
	i := sort.SearchInts(b, off)
	if i == 0 {
		return 0
	}
	return b[i-1]
}

// Floor returns the largest cluster boundary not greater than off.
func Floor(seg Segmenter, s string, off int) int {
	b := orDefault(seg).Boundaries(s)
	i := sort.SearchInts(b, off)
	if i < len(b) && b[i] == off {
		return off
	}
	if i == 0 {
		return 0
	}
	return b[i-1]
}

// IsBoundary is true if off is a cluster boundary of s.
func IsBoundary(seg Segmenter, s string, off int) bool {
	b := orDefault(seg).Boundaries(s)
	i := sort.SearchInts(b, off)
	return i < len(b) && b[i] == off
}

// Count returns the number of clusters in s.
func Count(seg Segmenter, s string) int {
	return len(orDefault(seg).Boundaries(s)) - 1
}

// IsWordRune is true for runes which are part of words.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

type class int8

const (
	space class = iota
	word
	punct
)

func classOf(r rune) class {
	switch {
	case unicode.IsSpace(r):
		return space
	case IsWordRune(r):
		return word
	}
	return punct
}

// clusters splits s into grapheme clusters, returning the boundaries and the
// class of every cluster, determined by its first rune.
func clusters(seg Segmenter, s string) ([]int, []class) {
	b := orDefault(seg).Boundaries(s)
	runes := []rune(s)
	cls := make([]class, len(b)-1)
	for i := range cls {
		cls[i] = classOf(runes[b[i]])
	}
	return b, cls
}

// WordStartBefore returns the offset a backward word deletion starting at off
// extends to: whitespace before off is skipped, then the word (or run of
// punctuation) before it, then the whitespace separating it from its
// predecessor.
func WordStartBefore(seg Segmenter, s string, off int) int {
	b, cls := clusters(seg, s)
	i := sort.SearchInts(b, off)
	if i == len(b) {
		i = len(b) - 1
	}
	skip := func(c class) {
		for i > 0 && cls[i-1] == c {
			i--
		}
	}
	skip(space)
	if i > 0 {
		skip(cls[i-1])
	}
	skip(space)
	return b[i]
}

// WordEndAfter is the mirror image of WordStartBefore.
func WordEndAfter(seg Segmenter, s string, off int) int {
	b, cls := clusters(seg, s)
	i := sort.SearchInts(b, off)
	if i == len(b) {
		i = len(b) - 1
	}
	skip := func(c class) {
		for i < len(cls) && cls[i] == c {
			i++
		}
	}
	skip(space)
	if i < len(cls) {
		skip(cls[i])
	}
	skip(space)
	return b[i]
}
