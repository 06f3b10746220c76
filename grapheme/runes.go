package grapheme

import "unicode/utf8"

// Len returns the length of s in runes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Slice returns the runes of s from offset from up to offset to. Offsets are
// clamped to the length of s.
func Slice(s string, from, to int) string {
	r := []rune(s)
	from, to = clamp(from, len(r)), clamp(to, len(r))
	if from >= to {
		return ""
	}
	return string(r[from:to])
}

// SplitAt splits s at rune offset off.
func SplitAt(s string, off int) (string, string) {
	r := []rune(s)
	off = clamp(off, len(r))
	return string(r[:off]), string(r[off:])
}

// Splice replaces count runes of s starting at rune offset start with ins.
func Splice(s string, start, count int, ins string) string {
	r := []rune(s)
	start = clamp(start, len(r))
	end := clamp(start+count, len(r))
	return string(r[:start]) + ins + string(r[end:])
}

// CommonAffixes returns the length in runes of the longest common prefix of
// a and b, and the length of the longest common suffix not overlapping the
// prefix.
func CommonAffixes(a, b string) (prefix, suffix int) {
	ra, rb := []rune(a), []rune(b)
	for prefix < len(ra) && prefix < len(rb) && ra[prefix] == rb[prefix] {
		prefix++
	}
	for suffix < len(ra)-prefix && suffix < len(rb)-prefix &&
		ra[len(ra)-1-suffix] == rb[len(rb)-1-suffix] {
		suffix++
	}
	return
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
