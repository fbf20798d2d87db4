// Package textstream provides incremental byte-to-text decoding for
// streamed responses. Network chunks can split a multi-byte UTF-8 sequence
// anywhere; the accumulator holds the partial tail back until the bytes that
// complete it arrive.
package textstream

import "unicode/utf8"

// Accumulator decodes a byte stream to text chunk by chunk, carrying a
// trailing partial UTF-8 sequence over to the next call. The zero value is
// ready to use.
type Accumulator struct {
	tail []byte
}

// Write appends chunk to the pending bytes and returns the longest prefix
// that ends on a complete rune. The remainder stays buffered for the next
// Write or Flush. Bytes are never dropped or reordered.
func (a *Accumulator) Write(chunk []byte) string {
	a.tail = append(a.tail, chunk...)

	n := completePrefixLen(a.tail)
	if n == 0 {
		return ""
	}

	out := string(a.tail[:n])
	rest := a.tail[n:]
	a.tail = a.tail[:0]
	a.tail = append(a.tail, rest...)
	return out
}

// Pending returns the number of buffered bytes awaiting completion.
func (a *Accumulator) Pending() int {
	return len(a.tail)
}

// Flush drains any buffered bytes at stream end. An incomplete trailing
// sequence is returned with its raw bytes intact rather than being silently
// dropped; it is the consumer's display layer that decides how invalid
// UTF-8 renders.
func (a *Accumulator) Flush() string {
	if len(a.tail) == 0 {
		return ""
	}
	out := string(a.tail)
	a.tail = nil
	return out
}

// completePrefixLen returns the length of the longest prefix of b that does
// not end in a truncated multi-byte sequence. Only the last utf8.UTFMax-1
// bytes can hold an incomplete rune start.
func completePrefixLen(b []byte) int {
	end := len(b)
	for i := end - 1; i >= 0 && end-i < utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return end
		}
		return i
	}
	return end
}
