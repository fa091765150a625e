package media

import "time"

// BufferFlags describe properties of a buffer's payload.
type BufferFlags uint32

const (
	// BufferFlagDeltaUnit marks a buffer that cannot be decoded on its own.
	// Its absence marks a key frame.
	BufferFlagDeltaUnit BufferFlags = 1 << iota
	// BufferFlagHeader marks codec/container header data.
	BufferFlagHeader
	// BufferFlagDiscont marks a discontinuity in the stream.
	BufferFlagDiscont
)

// Buffer is one unit of media data travelling between pads.
//
// A buffer has exactly one owner at any time. Pushing it hands ownership to
// the receiving pad; the sender must not read or modify it afterwards.
type Buffer struct {
	Data   []byte
	Flags  BufferFlags
	PTS    time.Duration
	Offset uint64
}

// NewBuffer returns a buffer over data with the given flags.
func NewBuffer(data []byte, flags BufferFlags) *Buffer {
	return &Buffer{Data: data, Flags: flags}
}

// HasFlags reports whether all of flags are set.
func (b *Buffer) HasFlags(flags BufferFlags) bool {
	return b.Flags&flags == flags
}

// IsDeltaUnit reports whether the buffer depends on a previous one.
func (b *Buffer) IsDeltaUnit() bool {
	return b.HasFlags(BufferFlagDeltaUnit)
}

// Size returns the payload length in bytes.
func (b *Buffer) Size() int { return len(b.Data) }
