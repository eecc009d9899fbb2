// Package wire encodes the 32-bit fields exchanged with the controller box.
// All multi-byte values travel most-significant byte first, one byte at a
// time, regardless of host byte order.
package wire

import (
	"fmt"
	"math"

	"github.com/uva-target/polsim/internal/link"
)

// EncodeInt32 encodes v as four bytes, MSB first.
func EncodeInt32(v int32) [4]byte {
	u := uint32(v)
	return [4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
}

// DecodeInt32 decodes four MSB-first bytes into an int32.
func DecodeInt32(b [4]byte) int32 {
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// EncodeFloat32 encodes v as its IEEE-754 bits, MSB first.
func EncodeFloat32(v float32) [4]byte {
	u := math.Float32bits(v)
	return [4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
}

// DecodeFloat32 decodes four MSB-first bytes into a float32.
func DecodeFloat32(b [4]byte) float32 {
	u := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return math.Float32frombits(u)
}

// ReadInt32 blocks until all four bytes of an int32 field have arrived.
// A link failure mid-field is fatal: the value cannot be reconstructed.
func ReadInt32(l link.Link) (int32, error) {
	b, err := readField(l)
	if err != nil {
		return 0, err
	}
	return DecodeInt32(b), nil
}

// ReadFloat32 blocks until all four bytes of a float32 field have arrived.
func ReadFloat32(l link.Link) (float32, error) {
	b, err := readField(l)
	if err != nil {
		return 0, err
	}
	return DecodeFloat32(b), nil
}

// WriteInt32 sends v MSB first.
func WriteInt32(l link.Link, v int32) error {
	return writeField(l, EncodeInt32(v))
}

// WriteFloat32 sends v MSB first.
func WriteFloat32(l link.Link, v float32) error {
	return writeField(l, EncodeFloat32(v))
}

func readField(l link.Link) ([4]byte, error) {
	var b [4]byte
	for i := range b {
		c, err := l.ReadByte()
		if err != nil {
			return b, fmt.Errorf("field truncated after %d of 4 bytes: %w", i, err)
		}
		b[i] = c
	}
	return b, nil
}

func writeField(l link.Link, b [4]byte) error {
	for _, c := range b {
		if err := l.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}
