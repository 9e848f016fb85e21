// Package codec implements the self-describing binary layout that all
// Cable packets are built from: fixed-width big-endian integers, booleans,
// LEB128-style unsigned varints, length-prefixed byte blobs and strings,
// and small property maps.
//
// A [Buffer] is both the encoder and the decoder view: writers start from
// an empty auto-growing buffer, readers wrap an inbound byte slice and
// consume it with an explicit cursor and bounds checks.
package codec

import (
	"encoding/binary"
	"errors"
)

// Codec-level failures. Decoders never panic on malformed
// input, they return one of these instead.
var (
	// ErrBufferTooShort is returned when a read requires
	// more bytes than remain in the buffer.
	ErrBufferTooShort = errors.New("cable: buffer too short")
	// ErrVarintOverflow is returned when a varint uses its full
	// 10-byte budget without a terminating byte.
	ErrVarintOverflow = errors.New("cable: varint overflow")
	// ErrBigIntOverflow is returned when a varint's final byte
	// would push the decoded value beyond 64 bits.
	ErrBigIntOverflow = errors.New("cable: big integer overflow")
)

// maxVarintLen is the largest number of bytes a 64-bit varint
// can occupy: 7 payload bits per byte, high bit = continuation.
const maxVarintLen = 10

// Buffer is a byte buffer with a read cursor and an auto-growing
// write tail. The zero value is an empty buffer ready for writing.
//
// Buffers are not safe for concurrent use.
type Buffer struct {
	buf []byte
	off int // Read cursor; writes always append.
}

// NewBuffer returns an empty buffer for encoding.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewReader returns a buffer that decodes the given bytes.
// The slice is not copied, callers must not modify it while reading.
func NewReader(data []byte) *Buffer {
	return &Buffer{buf: data}
}

// Bytes returns all bytes written so far.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return len(b.buf) - b.off
}

// grow ensures space for n more bytes, doubling the
// capacity as needed. It never truncates written data.
func (b *Buffer) grow(n int) {
	if len(b.buf)+n <= cap(b.buf) {
		return
	}
	c := cap(b.buf)
	if c == 0 {
		c = 64
	}
	for c < len(b.buf)+n {
		c *= 2
	}
	nb := make([]byte, len(b.buf), c)
	copy(nb, b.buf)
	b.buf = nb
}

// next consumes and returns the next n unread bytes.
func (b *Buffer) next(n int) ([]byte, error) {
	if b.Len() < n {
		return nil, ErrBufferTooShort
	}
	p := b.buf[b.off : b.off+n]
	b.off += n
	return p, nil
}

// WriteRaw appends raw bytes with no length prefix.
func (b *Buffer) WriteRaw(p []byte) {
	b.grow(len(p))
	b.buf = append(b.buf, p...)
}

// ReadRemaining consumes and returns all unread bytes.
// The returned slice aliases the buffer's storage.
func (b *Buffer) ReadRemaining() []byte {
	p := b.buf[b.off:]
	b.off = len(b.buf)
	return p
}

// WriteUint8 appends a single byte.
func (b *Buffer) WriteUint8(v uint8) {
	b.grow(1)
	b.buf = append(b.buf, v)
}

// ReadUint8 consumes a single byte.
func (b *Buffer) ReadUint8() (uint8, error) {
	p, err := b.next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// WriteInt8 appends a signed byte (two's complement).
func (b *Buffer) WriteInt8(v int8) {
	b.WriteUint8(uint8(v))
}

// ReadInt8 consumes a signed byte (two's complement).
func (b *Buffer) ReadInt8() (int8, error) {
	v, err := b.ReadUint8()
	return int8(v), err
}

// WriteUint16 appends a big-endian 16-bit unsigned integer.
func (b *Buffer) WriteUint16(v uint16) {
	b.grow(2)
	b.buf = binary.BigEndian.AppendUint16(b.buf, v)
}

// ReadUint16 consumes a big-endian 16-bit unsigned integer.
func (b *Buffer) ReadUint16() (uint16, error) {
	p, err := b.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

// WriteInt16 appends a big-endian 16-bit signed integer.
func (b *Buffer) WriteInt16(v int16) {
	b.WriteUint16(uint16(v))
}

// ReadInt16 consumes a big-endian 16-bit signed integer.
func (b *Buffer) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

// WriteUint32 appends a big-endian 32-bit unsigned integer.
func (b *Buffer) WriteUint32(v uint32) {
	b.grow(4)
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
}

// ReadUint32 consumes a big-endian 32-bit unsigned integer.
func (b *Buffer) ReadUint32() (uint32, error) {
	p, err := b.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

// WriteInt32 appends a big-endian 32-bit signed integer.
func (b *Buffer) WriteInt32(v int32) {
	b.WriteUint32(uint32(v))
}

// ReadInt32 consumes a big-endian 32-bit signed integer.
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

// WriteUint64 appends a big-endian 64-bit unsigned integer.
func (b *Buffer) WriteUint64(v uint64) {
	b.grow(8)
	b.buf = binary.BigEndian.AppendUint64(b.buf, v)
}

// ReadUint64 consumes a big-endian 64-bit unsigned integer.
func (b *Buffer) ReadUint64() (uint64, error) {
	p, err := b.next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}

// WriteInt64 appends a big-endian 64-bit signed integer.
func (b *Buffer) WriteInt64(v int64) {
	b.WriteUint64(uint64(v))
}

// ReadInt64 consumes a big-endian 64-bit signed integer.
func (b *Buffer) ReadInt64() (int64, error) {
	v, err := b.ReadUint64()
	return int64(v), err
}

// WriteBool appends a boolean as a single 0/1 byte.
func (b *Buffer) WriteBool(v bool) {
	if v {
		b.WriteUint8(1)
		return
	}
	b.WriteUint8(0)
}

// ReadBool consumes a boolean byte. Only the exact value 1
// decodes to true; every other value decodes to false.
func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadUint8()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// WriteUvarint appends an unsigned varint: 7 payload bits
// per byte, least significant group first, high bit set on
// every byte except the last.
func (b *Buffer) WriteUvarint(v uint64) {
	b.grow(maxVarintLen)
	b.buf = binary.AppendUvarint(b.buf, v)
}

// ReadUvarint consumes an unsigned varint. It fails with
// [ErrVarintOverflow] when the 10-byte budget is exhausted without
// a terminator, and with [ErrBigIntOverflow] when the final byte
// carries bits beyond the 64-bit range.
func (b *Buffer) ReadUvarint() (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxVarintLen; i++ {
		c, err := b.ReadUint8()
		if err != nil {
			return 0, err
		}
		if i == maxVarintLen-1 {
			if c >= 0x80 {
				return 0, ErrVarintOverflow
			}
			if c > 1 {
				return 0, ErrBigIntOverflow
			}
		}
		v |= uint64(c&0x7f) << shift
		if c < 0x80 {
			return v, nil
		}
		shift += 7
	}
	return 0, ErrVarintOverflow
}

// WriteData appends a varint length prefix followed by the raw bytes.
func (b *Buffer) WriteData(data []byte) {
	b.WriteUvarint(uint64(len(data)))
	b.grow(len(data))
	b.buf = append(b.buf, data...)
}

// ReadData consumes a varint length prefix and that many raw bytes.
// The returned slice aliases the buffer's storage.
func (b *Buffer) ReadData() ([]byte, error) {
	n, err := b.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(b.Len()) {
		return nil, ErrBufferTooShort
	}
	return b.next(int(n))
}

// WriteString appends a length-prefixed UTF-8 string.
func (b *Buffer) WriteString(s string) {
	b.WriteUvarint(uint64(len(s)))
	b.grow(len(s))
	b.buf = append(b.buf, s...)
}

// ReadString consumes a length-prefixed UTF-8 string.
func (b *Buffer) ReadString() (string, error) {
	p, err := b.ReadData()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// WriteStrings appends a varint count followed by that many strings.
func (b *Buffer) WriteStrings(ss []string) {
	b.WriteUvarint(uint64(len(ss)))
	for _, s := range ss {
		b.WriteString(s)
	}
}

// ReadStrings consumes a varint count followed by that many strings.
func (b *Buffer) ReadStrings() ([]string, error) {
	n, err := b.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(b.Len()) {
		return nil, ErrBufferTooShort
	}
	ss := make([]string, 0, n)
	for range n {
		s, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		ss = append(ss, s)
	}
	return ss, nil
}

// WriteStringMap appends a varint count followed by that many
// key/value string pairs. Iteration order is unspecified.
func (b *Buffer) WriteStringMap(m map[string]string) {
	b.WriteUvarint(uint64(len(m)))
	for k, v := range m {
		b.WriteString(k)
		b.WriteString(v)
	}
}

// ReadStringMap consumes a varint count followed by
// that many key/value string pairs.
func (b *Buffer) ReadStringMap() (map[string]string, error) {
	n, err := b.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(b.Len()) {
		return nil, ErrBufferTooShort
	}
	m := make(map[string]string, n)
	for range n {
		k, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		v, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// WriteByteMap appends a one-byte count followed by that many
// byte-keyed string pairs. The count limits such maps to 255 entries.
func (b *Buffer) WriteByteMap(m map[uint8]string) {
	b.WriteUint8(uint8(len(m)))
	for k, v := range m {
		b.WriteUint8(k)
		b.WriteString(v)
	}
}

// ReadByteMap consumes a one-byte count followed by
// that many byte-keyed string pairs.
func (b *Buffer) ReadByteMap() (map[uint8]string, error) {
	n, err := b.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := make(map[uint8]string, n)
	for range int(n) {
		k, err := b.ReadUint8()
		if err != nil {
			return nil, err
		}
		v, err := b.ReadString()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
