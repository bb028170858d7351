// Package buffer backs the queues genx's stream plumbing uses to hand
// MessageChunks and StreamEvents between a generator's producer goroutine
// and whatever is consuming its output (the call agent, a test harness).
// Three generic buffer types cover the shapes that plumbing needs:
//
//   - BlockBuffer: fixed-size, blocks the writer once full instead of
//     growing — bounds memory when a slow consumer falls behind a fast
//     model stream.
//   - Buffer: grows without bound, for queues whose size isn't known
//     up front.
//   - RingBuffer: fixed-size, overwrites the oldest entry instead of
//     blocking — a sliding window over only the most recent data.
//
// All three implement io.Reader/io.Writer/io.Closer, are safe for
// concurrent use, and support two shutdown modes: CloseWrite lets
// buffered data still drain before reads see io.EOF, CloseWithError
// tears down both ends immediately with the given error.
//
// Example usage:
//
//	buf := buffer.Bytes4KB()
//	buf.Write([]byte("hello"))
//	data := make([]byte, 5)
//	n, err := buf.Read(data)
//	buf.CloseWrite()
package buffer
