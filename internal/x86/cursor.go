package x86

// cursor walks the input, never past MaxLength bytes.
type cursor struct {
	buf []byte
	pos int
	// capped is set when the caller supplied more than MaxLength bytes,
	// so running out of room means the encoding is too long, not short.
	capped bool
}

func newCursor(buf []byte) cursor {
	c := cursor{buf: buf}
	if len(buf) > MaxLength {
		c.buf = buf[:MaxLength]
		c.capped = true
	}
	return c
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) peek() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

func (c *cursor) short() error {
	if c.capped {
		return &DecodeError{Offset: c.pos, Err: ErrInvalidEncoding}
	}
	return &DecodeError{Offset: c.pos, Err: ErrTruncated}
}

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, c.short()
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// readUint reads an n-byte little-endian value. With skip set the bytes
// are consumed without being assembled.
func (c *cursor) readUint(n int, skip bool) (uint64, error) {
	if c.remaining() < n {
		return 0, c.short()
	}
	var v uint64
	if !skip {
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint64(c.buf[c.pos+i])
		}
	}
	c.pos += n
	return v, nil
}
