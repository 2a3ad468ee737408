package lang

// Buffer holds the full current source text and applies localized edits.
// The zero Buffer is empty and ready to use.
type Buffer struct {
	data []byte
}

// Update applies an edit in which the bytes [start, oldEnd) of the current
// contents were replaced by text[start:newEnd], where text is the complete
// new contents. Only the replaced region is copied from text; the unchanged
// tail is shifted in place.
//
// The offsets must satisfy 0 <= start <= oldEnd <= Len(),
// start <= newEnd <= len(text), and len(text)-newEnd == Len()-oldEnd.
// The result of violating them is unspecified.
func (b *Buffer) Update(text []byte, start, oldEnd, newEnd int) {
	oldLen := len(b.data)
	tail := oldLen - oldEnd

	b.reserve(len(text))
	b.data = b.data[:max(oldLen, newEnd+tail)]

	copy(b.data[newEnd:], b.data[oldEnd:oldEnd+tail])
	copy(b.data[start:newEnd], text[start:newEnd])

	b.data = b.data[:newEnd+tail]
}

// Reset replaces the contents with text.
func (b *Buffer) Reset(text []byte) {
	b.reserve(len(text))
	b.data = append(b.data[:0], text...)
}

// reserve grows capacity to at least n, doubling to amortize growth.
func (b *Buffer) reserve(n int) {
	if cap(b.data) >= n {
		return
	}

	grown := make([]byte, len(b.data), max(n, 2*cap(b.data), 64))
	copy(grown, b.data)
	b.data = grown
}

// Bytes returns the contents. The slice is only valid until the next
// Update or Reset.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the length of the contents in bytes.
func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) String() string { return string(b.data) }
