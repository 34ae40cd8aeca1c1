package core

// streaming.go provides the reader every loader wraps its source in.
//
// Source files come from spreadsheet exports and ad-hoc dumps, so two fixes
// are applied on the fly:
//
//   - a leading UTF-8 BOM (0xEF 0xBB 0xBF) is dropped so it does not leak into
//     the first header name
//   - invalid UTF-8 bytes are replaced with '?' so string cells stay valid

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizeChunkSize is the read size used by the UTF-8 sanitizer.
const sanitizeChunkSize = 32 * 1024

// NewSourceReader wraps r with BOM skipping and UTF-8 sanitization.
func NewSourceReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{r: br, chunk: make([]byte, sanitizeChunkSize)}
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?'.
// A multi-byte sequence split across reads is carried over to the next read.
type utf8Sanitizer struct {
	r       io.Reader
	chunk   []byte
	pending []byte
	out     []byte
	err     error
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}

		n, err := s.r.Read(s.chunk)
		s.err = err

		data := append(s.pending, s.chunk[:n]...)
		keep := 0
		if err == nil {
			keep = incompleteSuffix(data)
		}
		s.pending = append([]byte(nil), data[len(data)-keep:]...)
		s.out = sanitizeUTF8(data[:len(data)-keep])
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// sanitizeUTF8 returns data with each invalid byte replaced by '?'.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
		} else {
			out = append(out, data[:size]...)
		}
		data = data[size:]
	}
	return out
}

// incompleteSuffix returns how many trailing bytes form the start of a
// multi-byte sequence that has not been fully read yet.
func incompleteSuffix(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}
