package packet

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxPacketSize bounds the writable area of a buffer and the size of a
	// received datagram.
	MaxPacketSize = 2048

	// MaxLabelLength is the largest length a single label may carry.
	MaxLabelLength = 63
)

var (
	ErrEndOfBuffer    = errors.New("end of buffer")
	ErrLabelTooLong   = errors.New("label too long")
	ErrEmptyLabel     = errors.New("empty label")
	ErrCompressedName = errors.New("name uses a compression pointer, which this client does not follow")
)

// BytePacketBuffer is a cursor over a DNS message. Reads are bounded by Len,
// the number of valid bytes, never by the capacity of Buf.
type BytePacketBuffer struct {
	Buf []byte
	Pos int
	Len int
}

// NewBytePacketBuffer returns an empty buffer ready for writing.
func NewBytePacketBuffer() *BytePacketBuffer {
	return &BytePacketBuffer{
		Buf: make([]byte, MaxPacketSize),
	}
}

// FromBytes wraps received bytes for reading. The data is not copied.
func FromBytes(data []byte) *BytePacketBuffer {
	return &BytePacketBuffer{
		Buf: data,
		Len: len(data),
	}
}

// Position returns the current cursor position
func (b *BytePacketBuffer) Position() int {
	return b.Pos
}

// Remaining returns the number of readable bytes after the cursor
func (b *BytePacketBuffer) Remaining() int {
	return b.Len - b.Pos
}

// Bytes returns the valid portion of the buffer
func (b *BytePacketBuffer) Bytes() []byte {
	return b.Buf[:b.Len]
}

// Step moves the cursor forward by steps
func (b *BytePacketBuffer) Step(steps int) error {
	return b.Seek(b.Pos + steps)
}

// Seek moves the cursor to a specific position
func (b *BytePacketBuffer) Seek(pos int) error {
	if pos < 0 || pos > b.Len {
		return fmt.Errorf("seek to %d of %d: %w", pos, b.Len, ErrEndOfBuffer)
	}
	b.Pos = pos
	return nil
}

// Read reads a single byte
func (b *BytePacketBuffer) Read() (byte, error) {
	if b.Pos >= b.Len {
		return 0, ErrEndOfBuffer
	}
	res := b.Buf[b.Pos]
	b.Pos++
	return res, nil
}

// ReadRange reads length bytes at the cursor and advances past them.
func (b *BytePacketBuffer) ReadRange(length int) ([]byte, error) {
	res, err := b.GetRange(b.Pos, length)
	if err != nil {
		return nil, err
	}
	b.Pos += length
	return res, nil
}

// Readu16 reads 2 bytes as uint16 (Big Endian)
func (b *BytePacketBuffer) Readu16() (uint16, error) {
	if b.Pos+2 > b.Len {
		return 0, ErrEndOfBuffer
	}
	v := uint16(b.Buf[b.Pos])<<8 | uint16(b.Buf[b.Pos+1])
	b.Pos += 2
	return v, nil
}

// Readu32 reads 4 bytes as uint32 (Big Endian)
func (b *BytePacketBuffer) Readu32() (uint32, error) {
	if b.Pos+4 > b.Len {
		return 0, ErrEndOfBuffer
	}
	p := b.Buf[b.Pos : b.Pos+4]
	b.Pos += 4
	return uint32(p[0])<<24 | uint32(p[1])<<16 | uint32(p[2])<<8 | uint32(p[3]), nil
}

// Get reads a byte at a specific position without moving cursor
func (b *BytePacketBuffer) Get(pos int) (byte, error) {
	if pos < 0 || pos >= b.Len {
		return 0, ErrEndOfBuffer
	}
	return b.Buf[pos], nil
}

// GetRange returns a copy of a range without moving the cursor
func (b *BytePacketBuffer) GetRange(start int, length int) ([]byte, error) {
	if start < 0 || length < 0 || start+length > b.Len {
		return nil, fmt.Errorf("range %d+%d of %d: %w", start, length, b.Len, ErrEndOfBuffer)
	}
	res := make([]byte, length)
	copy(res, b.Buf[start:start+length])
	return res, nil
}

// ReadName reads an uncompressed, length-prefixed name at the cursor.
func (b *BytePacketBuffer) ReadName() (string, error) {
	var out strings.Builder
	delimiter := ""

	for {
		lenByte, err := b.Read()
		if err != nil {
			return "", err
		}

		// End of labels
		if lenByte == 0 {
			return out.String(), nil
		}

		// Compression pointer (11xxxxxx)
		if lenByte&0xC0 == 0xC0 {
			return "", ErrCompressedName
		}
		if lenByte > MaxLabelLength {
			return "", fmt.Errorf("label length %d: %w", lenByte, ErrLabelTooLong)
		}

		label, err := b.ReadRange(int(lenByte))
		if err != nil {
			return "", err
		}
		out.WriteString(delimiter)
		out.Write(label)
		delimiter = "."
	}
}

// Write writes a single byte
func (b *BytePacketBuffer) Write(val byte) error {
	if b.Pos >= len(b.Buf) {
		return ErrEndOfBuffer
	}
	b.Buf[b.Pos] = val
	b.Pos++
	if b.Pos > b.Len {
		b.Len = b.Pos
	}
	return nil
}

// WriteRange writes data at the cursor
func (b *BytePacketBuffer) WriteRange(data []byte) error {
	if b.Pos+len(data) > len(b.Buf) {
		return ErrEndOfBuffer
	}
	copy(b.Buf[b.Pos:], data)
	b.Pos += len(data)
	if b.Pos > b.Len {
		b.Len = b.Pos
	}
	return nil
}

// Writeu16 writes a uint16
func (b *BytePacketBuffer) Writeu16(val uint16) error {
	return b.WriteRange([]byte{byte(val >> 8), byte(val)})
}

// Writeu32 writes a uint32
func (b *BytePacketBuffer) Writeu32(val uint32) error {
	return b.WriteRange([]byte{byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)})
}

// WriteName writes name as length-prefixed labels followed by the
// zero-length terminator. No compression is applied.
func (b *BytePacketBuffer) WriteName(name string) error {
	enc, err := EncodeName(name)
	if err != nil {
		return err
	}
	return b.WriteRange(enc)
}

// EncodeName converts a dotted name into wire format, e.g. "www.example.com"
// becomes 3www7example3com0. Every label must hold 1 to 63 bytes. No case
// folding or trailing-dot handling is done.
func EncodeName(name string) ([]byte, error) {
	parts := strings.Split(name, ".")
	enc := make([]byte, 0, len(name)+2)
	for _, part := range parts {
		switch {
		case len(part) == 0:
			return nil, fmt.Errorf("encode %q: %w", name, ErrEmptyLabel)
		case len(part) > MaxLabelLength:
			return nil, fmt.Errorf("encode %q: label of %d bytes: %w", name, len(part), ErrLabelTooLong)
		}
		enc = append(enc, byte(len(part)))
		enc = append(enc, part...)
	}
	return append(enc, 0), nil
}

// DecodeName is the inverse of EncodeName. It returns the dotted name and
// the number of bytes consumed, terminator included.
func DecodeName(data []byte) (string, int, error) {
	buf := FromBytes(data)
	name, err := buf.ReadName()
	if err != nil {
		return "", buf.Position(), err
	}
	return name, buf.Position(), nil
}
