package speechadapt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/scranst/phoneagent/pkg/doubaospeech"
	"github.com/scranst/phoneagent/pkg/genx"
	"github.com/scranst/phoneagent/pkg/genx/transformers"
	"github.com/scranst/phoneagent/pkg/telephony/resampler"
	"github.com/scranst/phoneagent/pkg/telephony/ttsnorm"
)

// Synthesizer turns text into linear PCM audio at a fixed sample rate.
// Implementations must apply ttsnorm.Normalize before synthesis.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (samples []int16, rate int, err error)
}

// TransformerSynthesizer adapts a genx.Transformer TTS model (the teacher's
// Doubao/MiniMax voices) into a Synthesizer producing PCM at outputRate.
type TransformerSynthesizer struct {
	transformer genx.Transformer
	pattern     string
	nativeRate  int
	outputRate  int
}

// NewTransformerSynthesizer wraps an already-configured TTS transformer that
// natively produces PCM at nativeRate; output is resampled to outputRate.
func NewTransformerSynthesizer(t genx.Transformer, pattern string, nativeRate, outputRate int) *TransformerSynthesizer {
	return &TransformerSynthesizer{transformer: t, pattern: pattern, nativeRate: nativeRate, outputRate: outputRate}
}

// NewDoubaoSynthesizer builds a Synthesizer backed by Doubao's Seed V2 voice
// model. Piper's 22050Hz native rate in the original becomes Doubao's own
// native rate here; both are resampled to outputRate the same way.
func NewDoubaoSynthesizer(client *doubaospeech.Client, speaker string, outputRate int) *TransformerSynthesizer {
	const doubaoNativeRate = 24000
	t := transformers.NewDoubaoTTSSeedV2(client, speaker,
		transformers.WithDoubaoTTSSeedV2Format("pcm"),
	)
	return NewTransformerSynthesizer(t, "doubao-seed-v2/"+speaker, doubaoNativeRate, outputRate)
}

func (s *TransformerSynthesizer) Synthesize(ctx context.Context, text string) ([]int16, int, error) {
	normalized := ttsnorm.Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		return nil, s.outputRate, nil
	}

	input := newChunkStream()
	input.push(&genx.MessageChunk{
		Role: genx.RoleUser,
		Part: genx.Text(normalized),
	})
	input.push(genx.NewTextEndOfStream())
	input.close()

	output, err := s.transformer.Transform(ctx, s.pattern, input)
	if err != nil {
		return nil, s.outputRate, fmt.Errorf("speechadapt: synthesize: %w", err)
	}
	defer output.Close()

	var audio []byte
	for {
		chunk, err := output.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, genx.ErrDone) {
				break
			}
			return nil, s.outputRate, fmt.Errorf("speechadapt: synthesize stream: %w", err)
		}
		if chunk == nil {
			continue
		}
		if b, ok := chunk.Part.(*genx.Blob); ok && b != nil {
			audio = append(audio, b.Data...)
		}
		if chunk.IsEndOfStream() {
			break
		}
	}

	samples := bytesToInt16(audio)
	if s.nativeRate != s.outputRate && len(samples) > 0 {
		out, err := resampler.Convert(samples, s.nativeRate, s.outputRate)
		if err != nil {
			return nil, s.outputRate, fmt.Errorf("speechadapt: resample tts output: %w", err)
		}
		samples = out
	}
	return samples, s.outputRate, nil
}
