// Package genx's tee.go lets the call agent log a full assistant turn
// (transcript, recordings metadata) without buffering it itself: Tee forwards
// every chunk downstream to TTS/the caller untouched while a StreamBuilder
// assembles its own copy in the background for the call log.
package genx

import "io"

// Tee wraps src so every chunk it yields is also appended to builder before
// being returned. The caller still drives src directly through the returned
// Stream; builder finishes on its own once src is exhausted or errors.
func Tee(src Stream, builder *StreamBuilder) Stream {
	return &teeStream{src: src, builder: builder}
}

type teeStream struct {
	src     Stream
	builder *StreamBuilder
}

func (t *teeStream) Next() (*MessageChunk, error) {
	chunk, err := t.src.Next()
	if err != nil {
		if err == io.EOF {
			t.builder.Done(Usage{})
		} else {
			t.builder.Abort(err)
		}
		return nil, err
	}
	if chunk != nil {
		t.builder.Add(chunk)
	}
	return chunk, nil
}

func (t *teeStream) Close() error {
	return t.src.Close()
}

func (t *teeStream) CloseWithError(err error) error {
	return t.src.CloseWithError(err)
}
