package core

import "errors"

// Frame is a raw encoded message.
type Frame []byte

var ErrBackpressure = errors.New("backpressure")

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend must not block: a full queue reports ErrBackpressure.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
