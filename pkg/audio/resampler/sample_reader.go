// Package resampler's sample_reader.go shields the resampling loop from a
// source io.Reader that returns arbitrary byte counts (a socket or pipe,
// say) by carrying any leftover partial frame across to the next Read
// rather than handing it a misaligned buffer.
package resampler

import "io"

// sampleReader rounds every Read down to a whole number of sampleSize-byte
// frames, stashing the remainder for next time.
type sampleReader struct {
	buffer     []byte // leftover bytes from a short underlying read, < sampleSize
	buffered   int
	sampleSize int

	r io.Reader
}

func newSampleReader(r io.Reader, sampleSize int) *sampleReader {
	return &sampleReader{
		buffer:     make([]byte, sampleSize-1),
		sampleSize: sampleSize,
		r:          r,
	}
}

// Read returns 0 or a multiple of sampleSize bytes; len(p) < sampleSize
// yields io.ErrShortBuffer. At EOF the final partial frame, if any, is
// returned unaligned rather than silently dropped.
func (sr *sampleReader) Read(p []byte) (n int, err error) {
	if len(p) < sr.sampleSize {
		return 0, io.ErrShortBuffer
	}

	// Truncate p to a multiple of sampleSize
	p = p[:len(p)/sr.sampleSize*sr.sampleSize]
	if sr.buffered > 0 {
		n = copy(p, sr.buffer[:sr.buffered])
		sr.buffered = 0
	}

	rn, err := sr.r.Read(p[n:])
	n += rn
	if err != nil {
		if n%sr.sampleSize != 0 && err == io.EOF {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if mod := n % sr.sampleSize; mod != 0 {
		// Save unaligned remainder for next call
		n -= mod
		copy(sr.buffer[:mod], p[n:n+mod])
		sr.buffered = mod
	}
	return n, nil
}
