// Package buffer's bytes.go adds byte-slice convenience constructors on top
// of the generic buffer types, for callers (stream_iter.go's per-leg audio
// queues) that don't need the generic form.
package buffer

var (
	_ BytesBuffer = (*BlockBuffer[byte])(nil)
	_ BytesBuffer = (*Buffer[byte])(nil)
	_ BytesBuffer = (*RingBuffer[byte])(nil)
)

// BytesBuffer is the common surface all three buffer kinds expose when
// instantiated over byte, so a caller can swap implementations without
// changing call sites.
type BytesBuffer interface {
	Write(p []byte) (n int, err error)
	Read(p []byte) (n int, err error)
	Discard(n int) (err error)
	Close() error
	CloseWrite() error
	CloseWithError(err error) error
	Error() error
	Reset()
	Bytes() []byte
	Len() int
}

// Bytes16KB creates a new BlockBuffer with 16KB capacity.
func Bytes16KB() *BlockBuffer[byte] {
	return BlockN[byte](1 << 14)
}

// Bytes4KB creates a new BlockBuffer with 4KB capacity.
func Bytes4KB() *BlockBuffer[byte] {
	return BlockN[byte](1 << 12)
}

// Bytes1KB creates a new BlockBuffer with 1KB capacity.
func Bytes1KB() *BlockBuffer[byte] {
	return BlockN[byte](1 << 10)
}

// Bytes256B creates a new BlockBuffer with 256 bytes capacity.
func Bytes256B() *BlockBuffer[byte] {
	return BlockN[byte](1 << 8)
}

// Bytes creates a new growable Buffer with 1KB initial capacity.
func Bytes() *Buffer[byte] {
	return N[byte](1 << 10)
}

// BytesRing creates a new RingBuffer with the specified capacity.
func BytesRing(size int) *RingBuffer[byte] {
	return RingN[byte](size)
}
