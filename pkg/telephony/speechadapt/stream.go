package speechadapt

import (
	"io"

	"github.com/scranst/phoneagent/pkg/genx"
)

// chunkStream is a minimal, already-fully-buffered genx.Stream: every chunk
// a caller wants to feed a transformer is queued up front via push, then
// close marks the end. Transformers here only ever see whole utterances (a
// full PCM buffer, or a full text reply) rather than a live, incrementally
// arriving feed, so there's no need for a channel-backed stream that lets a
// transformer pull from input still being written to.
type chunkStream struct {
	chunks []*genx.MessageChunk
	pos    int
	err    error
}

var _ genx.Stream = (*chunkStream)(nil)

func newChunkStream() *chunkStream {
	return &chunkStream{}
}

func (s *chunkStream) push(c *genx.MessageChunk) {
	s.chunks = append(s.chunks, c)
}

func (s *chunkStream) close() {}

func (s *chunkStream) Next() (*genx.MessageChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *chunkStream) Close() error {
	return nil
}

func (s *chunkStream) CloseWithError(err error) error {
	s.err = err
	return nil
}
