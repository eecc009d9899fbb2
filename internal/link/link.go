// Package link provides the byte-stream transport to the controller box.
// The protocol layer only needs three primitives: a non-blocking peek for a
// single byte, a blocking single-byte read, and a single-byte write.
package link

import "errors"

// ErrClosed is returned when a read or write hits a closed link.
// A multi-byte field interrupted by ErrClosed is unrecoverable.
var ErrClosed = errors.New("link closed")

// Link is a duplex byte stream to the controller box.
type Link interface {
	// TryReadByte returns the next byte if one is already available.
	// The second return is false when no byte is pending.
	TryReadByte() (byte, bool, error)

	// ReadByte blocks until the next byte arrives.
	ReadByte() (byte, error)

	// WriteByte sends a single byte.
	WriteByte(b byte) error

	// Close releases the underlying transport.
	Close() error
}
