// Package pcm's io.go bridges pcm.Chunk-oriented writers to plain
// io.Writer/io.Reader, the seam where a call agent's resampled PCM stream
// meets the speechadapt transformers and WAV recorder that only know bytes.
package pcm

import (
	"errors"
	"io"
	"time"
)

// Writer consumes one Chunk at a time, as opposed to a raw byte stream.
type Writer interface {
	Write(Chunk) error
}

var _ Writer = WriteFunc(nil)

// WriteFunc adapts a plain func to Writer.
type WriteFunc func(Chunk) error

func (f WriteFunc) Write(c Chunk) error {
	return f(c)
}

// WriteCloser is a Writer that also owns a resource needing Close.
type WriteCloser interface {
	Writer
	io.Closer
}

// Discard drops every chunk written to it, for callers that need a Writer
// but don't actually want the audio (a disabled recorder, say).
var Discard Writer = discard{}

type discard struct{}

func (discard) Write(Chunk) error {
	return nil
}

// IOWriter presents w as a plain io.Writer, wrapping each write's bytes in
// a DataChunk of format f before handing it to w.
func IOWriter(w Writer, f Format) io.Writer {
	return &ioWriter{w: w, f: f}
}

type ioWriter struct {
	w Writer
	f Format
}

func (w *ioWriter) Write(b []byte) (int, error) {
	err := w.w.Write(w.f.DataChunk(b))
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// ChunkWriter presents the plain io.Writer w as a Writer, by delegating
// each Chunk to its own WriteTo.
func ChunkWriter(w io.Writer) Writer {
	return &chunkWriter{w: w}
}

type chunkWriter struct {
	w io.Writer
}

func (w *chunkWriter) Write(c Chunk) error {
	_, err := c.WriteTo(w.w)
	return err
}

// Copy pumps r into w as format-sized DataChunks, batching reads to at
// least 20ms of audio per chunk rather than writing every short read
// individually. EOF and ErrUnexpectedEOF both end the copy cleanly.
func Copy(w Writer, r io.Reader, format Format) error {
	minChunk := int(format.BytesInDuration(20 * time.Millisecond))
	buf := make([]byte, 10*minChunk)
	for {
		n, err := io.ReadAtLeast(r, buf, minChunk)
		if n > 0 {
			if err := w.Write(format.DataChunk(buf[:n])); err != nil {
				return err
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
	}
}
