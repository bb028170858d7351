package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrIteratorDone is what Next returns once a closed, drained buffer has
// nothing left to yield.
var ErrIteratorDone = errors.New("iterator done")

// Buffer is an unbounded, thread-safe queue: genx's stream builders use it
// where the number of chunks a generator will emit isn't known up front, so
// blocking the producer (as BlockBuffer would) isn't an option.
//
// Reads block on an empty buffer until a write lands or the buffer closes;
// CloseWrite lets a drain-to-EOF finish reading what's already queued,
// CloseWithError tears down both ends immediately with the given error.
type Buffer[T any] struct {
	writeNotify chan struct{}

	mu         sync.Mutex
	closeWrite bool
	closeErr   error
	buf        []T
}

// N allocates a Buffer with room for n elements before its first grow; n is
// only a sizing hint, the buffer grows past it as needed.
func N[T any](n int) *Buffer[T] {
	return &Buffer[T]{
		writeNotify: make(chan struct{}, 1),
		buf:         make([]T, 0, n),
	}
}

// Write appends p to the buffer, growing it if needed, and wakes one
// blocked reader. Returns io.ErrClosedPipe once the buffer is closed for
// writing.
func (b *Buffer[T]) Write(p []T) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return 0, fmt.Errorf("buffer: write to closed buffer: %w", b.closeErr)
	}
	if b.closeWrite {
		return 0, fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	select {
	case b.writeNotify <- struct{}{}:
	default:
	}

	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Discard drops the next n elements without copying them out, clamping to
// the buffer's current length if n overshoots it.
func (b *Buffer[T]) Discard(n int) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return fmt.Errorf("buffer: skip from closed buffer: %w", b.closeErr)
	}
	if n > len(b.buf) {
		b.buf = b.buf[:0]
		return nil
	}
	b.buf = b.buf[n:]
	return nil
}

// Read blocks until at least one element is available, then copies up to
// len(p) elements into p. Returns io.EOF once the buffer is closed for
// writing and drained.
func (b *Buffer[T]) Read(p []T) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return 0, fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
	}

	for len(b.buf) == 0 {
		if b.closeWrite {
			return 0, io.EOF
		}
		b.mu.Unlock()
		<-b.writeNotify
		b.mu.Lock()
		if b.closeErr != nil {
			return 0, fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
		}
	}
	n = copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

func (b *Buffer[T]) closeWithErrorLocked(err error) error {
	if b.closeErr != nil {
		return nil
	}
	b.closeErr = err
	b.buf = nil
	if !b.closeWrite {
		b.closeWrite = true
		close(b.writeNotify)
	}
	return nil
}

// CloseWithError tears down both ends of the buffer immediately, unblocking
// every pending Read/Write/Next/Add with err (io.ErrClosedPipe if err is
// nil) and dropping the buffered data. A no-op if already closed.
func (b *Buffer[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeWithErrorLocked(err)
}

// Error returns the error CloseWithError was given, or nil if the buffer
// isn't closed or was closed cleanly.
func (b *Buffer[T]) Error() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeErr
}

// Close is CloseWithError(io.ErrClosedPipe).
func (b *Buffer[T]) Close() error {
	return b.CloseWithError(io.ErrClosedPipe)
}

// CloseWrite ends the write side only: queued data is still readable, and
// Read/Next return io.EOF/ErrIteratorDone once it's drained. A no-op if the
// write side is already closed.
func (b *Buffer[T]) CloseWrite() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeWrite {
		return nil
	}
	b.closeWrite = true
	close(b.writeNotify)
	return nil
}

// Next reads and returns the next element from the buffer.
//
// This method implements the iterator pattern, reading one element at a time.
// It blocks until an element is available in the buffer or the buffer is
// closed.
//
// Next pops and returns the oldest queued element, same order Read would
// deliver its bytes in — a genx bufferStream wraps Buffer precisely to
// stream MessageChunks through Next in the order they were written.
// Blocks on an empty buffer; returns ErrIteratorDone once closed and
// drained.
func (b *Buffer[T]) Next() (t T, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		err = fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
		return
	}
	for len(b.buf) == 0 {
		if b.closeWrite {
			err = ErrIteratorDone
			return
		}
		b.mu.Unlock()
		<-b.writeNotify
		b.mu.Lock()
		if b.closeErr != nil {
			err = fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
			return
		}
	}
	t = b.buf[0]
	b.buf = b.buf[1:]
	return
}

// Add appends a single element without the slice allocation a one-element
// Write would need.
func (b *Buffer[T]) Add(t T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return fmt.Errorf("buffer: write to closed buffer: %w", b.closeErr)
	}
	if b.closeWrite {
		return fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	b.buf = append(b.buf, t)
	return nil
}

// Reset drops all buffered data without reopening a closed buffer.
func (b *Buffer[T]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = b.buf[:0]
}

// Len reports the number of elements currently queued.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Bytes returns the buffer's backing slice directly, not a copy — callers
// must treat it as read-only and use it before any concurrent Write/Next
// can invalidate it.
func (b *Buffer[T]) Bytes() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf
}
