package avrokit

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Cursor is a positioned view over a fixed byte buffer, exposing the wire
// primitives of the Avro binary format. Primitives are overflow-silent: they
// advance Pos past the end of the buffer without faulting, reads beyond the
// end return zero values, and writes beyond the end are dropped. Callers run
// a batch of operations and then check Valid once. A cursor is owned by a
// single codec call at a time.
type Cursor struct {
	Buf []byte
	Pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor { return &Cursor{Buf: buf} }

// NewCursorAt returns a cursor positioned at pos.
func NewCursorAt(buf []byte, pos int) *Cursor { return &Cursor{Buf: buf, Pos: pos} }

// Valid reports whether every operation so far stayed inside the buffer.
func (c *Cursor) Valid() bool { return c.Pos <= len(c.Buf) }

// poison moves the cursor past the end so Valid reports false, without ever
// driving Pos backwards.
func (c *Cursor) poison() {
	if c.Pos <= len(c.Buf) {
		c.Pos = len(c.Buf) + 1
	}
}

func (c *Cursor) readByte() byte {
	p := c.Pos
	c.Pos++
	if p < len(c.Buf) {
		return c.Buf[p]
	}
	return 0
}

func (c *Cursor) writeByte(b byte) {
	if c.Pos < len(c.Buf) {
		c.Buf[c.Pos] = b
	}
	c.Pos++
}

// ---- boolean ----

func (c *Cursor) ReadBoolean() bool { return c.readByte() != 0 }
func (c *Cursor) WriteBoolean(v bool) {
	if v {
		c.writeByte(1)
	} else {
		c.writeByte(0)
	}
}
func (c *Cursor) SkipBoolean() { c.Pos++ }

// ---- long (int shares the wire form) ----

// ReadLong decodes a zig-zag varint. A buffer that ends mid-varint reads
// trailing zero bytes, terminating the loop; the caller detects the overrun
// through Valid.
func (c *Cursor) ReadLong() int64 {
	var u uint64
	var shift uint
	for {
		b := c.readByte()
		u |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return int64(u>>1) ^ -int64(u&1)
}

// WriteLong encodes n as a zig-zag varint, 1-10 bytes.
func (c *Cursor) WriteLong(n int64) {
	u := uint64(n)<<1 ^ uint64(n>>63)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		c.writeByte(b)
		if u == 0 {
			return
		}
	}
}

// SkipLong advances past one varint.
func (c *Cursor) SkipLong() {
	for c.readByte()&0x80 != 0 {
	}
}

// ---- float / double ----

func (c *Cursor) ReadFloat() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(c.readN(4)))
}

func (c *Cursor) WriteFloat(v float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	c.writeN(tmp[:])
}

func (c *Cursor) SkipFloat() { c.Pos += 4 }

func (c *Cursor) ReadDouble() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(c.readN(8)))
}

func (c *Cursor) WriteDouble(v float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	c.writeN(tmp[:])
}

func (c *Cursor) SkipDouble() { c.Pos += 8 }

// readN returns n bytes at the cursor, zero-padded past the end.
func (c *Cursor) readN(n int) []byte {
	p := c.Pos
	c.Pos += n
	if p+n <= len(c.Buf) {
		return c.Buf[p : p+n]
	}
	out := make([]byte, n)
	if p < len(c.Buf) {
		copy(out, c.Buf[p:])
	}
	return out
}

func (c *Cursor) writeN(b []byte) {
	p := c.Pos
	c.Pos += len(b)
	if p < len(c.Buf) {
		copy(c.Buf[p:], b)
	}
}

// ---- fixed ----

// ReadFixed returns a copy of n raw bytes. A read that would overrun the
// buffer returns nil and leaves the cursor invalid; a negative n poisons the
// cursor instead of underflowing Pos.
func (c *Cursor) ReadFixed(n int) []byte {
	if n < 0 {
		c.poison()
		return nil
	}
	p := c.Pos
	c.Pos += n
	if p+n > len(c.Buf) {
		return nil
	}
	out := make([]byte, n)
	copy(out, c.Buf[p:p+n])
	return out
}

// WriteFixed writes exactly n bytes of b, zero-padding when b is shorter.
func (c *Cursor) WriteFixed(b []byte, n int) {
	if n < 0 {
		c.poison()
		return
	}
	if len(b) > n {
		b = b[:n]
	}
	c.writeN(b)
	for i := len(b); i < n; i++ {
		c.writeByte(0)
	}
}

func (c *Cursor) SkipFixed(n int) {
	if n < 0 {
		c.poison()
		return
	}
	c.Pos += n
}

// ---- bytes / string ----

func (c *Cursor) ReadBytes() []byte {
	n := c.ReadLong()
	if n < 0 {
		c.poison()
		return nil
	}
	return c.ReadFixed(int(n))
}

func (c *Cursor) WriteBytes(b []byte) {
	c.WriteLong(int64(len(b)))
	c.writeN(b)
}

func (c *Cursor) SkipBytes() {
	n := c.ReadLong()
	if n < 0 {
		c.poison()
		return
	}
	c.Pos += int(n)
}

func (c *Cursor) ReadString() string {
	return string(c.ReadBytes())
}

func (c *Cursor) WriteString(s string) {
	c.WriteLong(int64(len(s)))
	p := c.Pos
	c.Pos += len(s)
	if p < len(c.Buf) {
		copy(c.Buf[p:], s)
	}
}

func (c *Cursor) SkipString() { c.SkipBytes() }

// ---- order comparators ----
//
// MatchX reads one value from the receiver and one from o and returns the
// sign of their ordering. Both buffers are assumed valid.

func sign64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func signF(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (c *Cursor) MatchBoolean(o *Cursor) int {
	a, b := c.ReadBoolean(), o.ReadBoolean()
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

func (c *Cursor) MatchLong(o *Cursor) int { return sign64(c.ReadLong(), o.ReadLong()) }
func (c *Cursor) MatchFloat(o *Cursor) int {
	return signF(float64(c.ReadFloat()), float64(o.ReadFloat()))
}
func (c *Cursor) MatchDouble(o *Cursor) int { return signF(c.ReadDouble(), o.ReadDouble()) }

func (c *Cursor) MatchFixed(o *Cursor, n int) int {
	return bytes.Compare(c.ReadFixed(n), o.ReadFixed(n))
}

func (c *Cursor) MatchBytes(o *Cursor) int {
	return bytes.Compare(c.ReadBytes(), o.ReadBytes())
}

func (c *Cursor) MatchString(o *Cursor) int {
	return bytes.Compare(c.ReadBytes(), o.ReadBytes())
}

// ---- 64-bit helpers ----

// PackLongBytes renders n as its 8-byte little-endian two's complement form.
func PackLongBytes(n int64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(n))
	return out
}

// UnpackLongBytes reads an 8-byte little-endian two's complement value.
// Shorter inputs are zero-extended.
func UnpackLongBytes(b []byte) int64 {
	var tmp [8]byte
	copy(tmp[:], b)
	return int64(binary.LittleEndian.Uint64(tmp[:]))
}
