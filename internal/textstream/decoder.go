// Package textstream turns raw byte chunks from a response body into
// complete text fragments. Chunk boundaries fall wherever the network
// put them, including in the middle of a multi-byte UTF-8 sequence; the
// decoder carries the incomplete tail over to the next chunk so that no
// character is ever split, dropped, or duplicated.
package textstream

import "unicode/utf8"

type Decoder struct {
	carry []byte
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed decodes one chunk and returns the complete text it yields. The
// returned fragment may be empty when the chunk only extends a pending
// multi-byte sequence.
func (d *Decoder) Feed(chunk []byte) string {
	if len(chunk) == 0 {
		return ""
	}
	buf := chunk
	if len(d.carry) > 0 {
		buf = append(d.carry, chunk...)
	}
	cut := completePrefixLen(buf)
	d.carry = append(d.carry[:0:0], buf[cut:]...)
	return string(buf[:cut])
}

// Flush ends the stream and returns whatever held-back bytes still form
// valid text. A trailing incomplete sequence at true stream end is
// discarded rather than surfaced as replacement characters.
func (d *Decoder) Flush() string {
	rest := d.carry
	d.carry = nil
	if len(rest) == 0 || !utf8.Valid(rest) {
		return ""
	}
	return string(rest)
}

// Pending reports whether bytes are being held for the next chunk.
func (d *Decoder) Pending() bool {
	return len(d.carry) > 0
}

// completePrefixLen returns the length of the longest prefix of b that
// does not end inside a multi-byte sequence. Malformed bytes that are
// not a plausible sequence start are passed through untouched; only a
// genuinely unfinished sequence is held back.
func completePrefixLen(b []byte) int {
	n := len(b)
	for back := 1; back <= utf8.UTFMax-1 && back <= n; back++ {
		c := b[n-back]
		if c < utf8.RuneSelf {
			return n
		}
		if c&0xC0 == 0x80 {
			// continuation byte, keep looking for the start
			continue
		}
		if want := sequenceLen(c); want > back {
			return n - back
		}
		return n
	}
	return n
}

func sequenceLen(start byte) int {
	switch {
	case start&0xE0 == 0xC0:
		return 2
	case start&0xF0 == 0xE0:
		return 3
	case start&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}
