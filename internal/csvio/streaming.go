package csvio

// streaming.go provides reader wrappers that check archive entries before
// they reach the CSV parser:
//
//   - UTF8Validator: fails on the first byte that is not valid UTF-8
//   - BOMReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Excel
//   - CountingReader: tracks bytes consumed for logging
//
// Use Wrap to apply all three in the correct order.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInvalidUTF8 is returned when an entry is not UTF-8 encoded.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// BOMReader skips a UTF-8 byte order mark at the start of the stream.
type BOMReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMReader creates a BOM-skipping reader.
func NewBOMReader(r io.Reader) *BOMReader {
	return &BOMReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// UTF8Validator passes valid UTF-8 through unchanged and stops with an
// error wrapping ErrInvalidUTF8 at the first malformed byte. Multi-byte
// sequences split across underlying reads are reassembled by the internal
// buffer.
type UTF8Validator struct {
	br      *bufio.Reader
	offset  int64  // bytes of the source consumed so far
	pending []byte // encoded rune bytes that did not fit the last Read
	err     error
}

// NewUTF8Validator creates a validating reader.
func NewUTF8Validator(r io.Reader) *UTF8Validator {
	return &UTF8Validator{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (v *UTF8Validator) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, v.pending)
	v.pending = v.pending[n:]
	if len(v.pending) > 0 {
		return n, nil
	}
	if v.err != nil {
		return n, v.err
	}

	for n < len(p) {
		r, size, err := v.br.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				v.err = err
				return n, nil
			}
			return n, err
		}

		if r == utf8.RuneError && size == 1 {
			v.err = fmt.Errorf("%w at byte %d", ErrInvalidUTF8, v.offset)
			return n, v.err
		}
		v.offset += int64(size)

		if size == 1 {
			p[n] = byte(r)
			n++
			continue
		}
		var enc [utf8.UTFMax]byte
		w := utf8.EncodeRune(enc[:], r)
		c := copy(p[n:], enc[:w])
		n += c
		if c < w {
			v.pending = append(v.pending[:0], enc[c:w]...)
		}
	}
	return n, nil
}

// CountingReader tracks the number of bytes read through it.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Wrap applies UTF-8 validation, then BOM skipping, then counting.
// Validation sees the raw entry so reported offsets match the file.
func Wrap(r io.Reader) *CountingReader {
	return NewCountingReader(NewBOMReader(NewUTF8Validator(r)))
}
