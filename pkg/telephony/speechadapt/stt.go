// Package speechadapt wires the STT, TTS, and LLM contracts the conversation
// engine (C7) depends on to the teacher's genx.Transformer/genx.Generator
// infrastructure. Adapted from original_source/stt.py, tts.py, and llm.py:
// each Python class there wrapped exactly one local model (faster-whisper,
// Piper, Claude Haiku); here the same three responsibilities are interfaces
// with a single default implementation, letting the call agent swap models
// without touching the conversation engine.
package speechadapt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/scranst/phoneagent/pkg/doubaospeech"
	"github.com/scranst/phoneagent/pkg/genx"
	"github.com/scranst/phoneagent/pkg/genx/transformers"
)

// Transcriber produces final text for a complete utterance of linear PCM
// audio. Implementations must internally resample to whatever rate their
// underlying model expects.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, rate int, language string) (string, error)
}

// TransformerTranscriber adapts a genx.Transformer (an ASR model registered
// the way the teacher's modelloader wires Doubao ASR) into a Transcriber.
// It sends the whole utterance as a single audio/pcm chunk followed by an
// end-of-stream marker, then collects every text chunk the transformer
// emits before its own end-of-stream.
type TransformerTranscriber struct {
	transformer genx.Transformer
	pattern     string
}

// NewTransformerTranscriber wraps an already-configured ASR transformer.
func NewTransformerTranscriber(t genx.Transformer, pattern string) *TransformerTranscriber {
	return &TransformerTranscriber{transformer: t, pattern: pattern}
}

// NewDoubaoTranscriber builds a Transcriber backed by Doubao's streaming ASR
// (SAUC) model, configured for raw 16-bit PCM at the given sample rate —
// the format the phone conversation's audio pipeline already speaks, so no
// Opus encoding round-trip is needed.
func NewDoubaoTranscriber(client *doubaospeech.Client, sampleRate int, language string) *TransformerTranscriber {
	t := transformers.NewDoubaoASRSAUC(client,
		transformers.WithDoubaoASRSAUCFormat("pcm"),
		transformers.WithDoubaoASRSAUCSampleRate(sampleRate),
		transformers.WithDoubaoASRSAUCChannels(1),
		transformers.WithDoubaoASRSAUCBits(16),
		transformers.WithDoubaoASRSAUCLanguage(language),
	)
	return NewTransformerTranscriber(t, "doubao-sauc")
}

// Warmup primes the underlying model with a short silent buffer so the
// first real transcription isn't paying a cold-start cost, mirroring
// stt.py's SpeechToText._warmup.
func (s *TransformerTranscriber) Warmup(ctx context.Context, rate int) error {
	silence := make([]int16, rate) // 1 second
	_, err := s.Transcribe(ctx, silence, rate, "en")
	return err
}

func (s *TransformerTranscriber) Transcribe(ctx context.Context, samples []int16, rate int, language string) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	input := newChunkStream()
	input.push(&genx.MessageChunk{
		Role: genx.RoleUser,
		Part: &genx.Blob{MIMEType: "audio/pcm", Data: int16ToBytes(samples)},
	})
	input.push(genx.NewEndOfStream("audio/pcm"))
	input.close()

	output, err := s.transformer.Transform(ctx, s.pattern, input)
	if err != nil {
		return "", fmt.Errorf("speechadapt: transcribe: %w", err)
	}
	defer output.Close()

	var text []byte
	for {
		chunk, err := output.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, genx.ErrDone) {
				break
			}
			return "", fmt.Errorf("speechadapt: transcribe stream: %w", err)
		}
		if chunk == nil {
			continue
		}
		if t, ok := chunk.Part.(genx.Text); ok {
			text = append(text, []byte(t)...)
		}
		if chunk.IsEndOfStream() {
			break
		}
	}
	return string(text), nil
}

func int16ToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[2*i] = byte(s)
		buf[2*i+1] = byte(s >> 8)
	}
	return buf
}

func bytesToInt16(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
	return out
}
