package lang

import (
	"unicode/utf8"

	"github.com/ardnew/keycalc/lang/syntax"
)

// Edit is a byte-offset triple describing the changed region between two
// versions of a text: old[Start:OldEnd] was replaced by new[Start:NewEnd].
type Edit struct {
	Start  int
	OldEnd int
	NewEnd int
}

// Replace returns the edit replacing all of old with all of new.
func Replace(oldLen, newLen int) Edit {
	return Edit{Start: 0, OldEnd: oldLen, NewEnd: newLen}
}

// InputEdit converts e for the parsing engine.
func (e Edit) InputEdit() syntax.InputEdit {
	return syntax.InputEdit{StartByte: e.Start, OldEndByte: e.OldEnd, NewEndByte: e.NewEnd}
}

// Empty reports whether e changes nothing.
func (e Edit) Empty() bool { return e.OldEnd == e.Start && e.NewEnd == e.Start }

// Diff returns the minimal edit turning prev into next. The offsets always
// fall on UTF-8 boundaries of both texts.
func Diff(prev, next string) Edit {
	n := min(len(prev), len(next))

	prefix := 0
	for prefix < n && prev[prefix] == next[prefix] {
		prefix++
	}

	for prefix > 0 && (!runeStart(prev, prefix) || !runeStart(next, prefix)) {
		prefix--
	}

	suffix := 0
	for suffix < n-prefix && prev[len(prev)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}

	for suffix > 0 && (!runeStart(prev, len(prev)-suffix) || !runeStart(next, len(next)-suffix)) {
		suffix--
	}

	return Edit{Start: prefix, OldEnd: len(prev) - suffix, NewEnd: len(next) - suffix}
}

// runeStart reports whether i is a rune boundary of s. The end of s is a
// boundary.
func runeStart(s string, i int) bool {
	return i >= len(s) || utf8.RuneStart(s[i])
}

// normalize clamps e into range and falls back to a full replacement when
// e does not describe the change from prev to next.
func normalize(e Edit, prev, next []byte) Edit {
	start := min(max(e.Start, 0), len(prev), len(next))
	oldEnd := min(max(e.OldEnd, start), len(prev))
	newEnd := min(max(e.NewEnd, start), len(next))

	for start > 0 && start < len(next) && !utf8.RuneStart(next[start]) {
		start--
	}

	if len(prev)-oldEnd != len(next)-newEnd ||
		string(prev[:start]) != string(next[:start]) ||
		string(prev[oldEnd:]) != string(next[newEnd:]) {
		return Replace(len(prev), len(next))
	}

	return Edit{Start: start, OldEnd: oldEnd, NewEnd: newEnd}
}
