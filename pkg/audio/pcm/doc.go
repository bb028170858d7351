// Package pcm is the raw sample format every audio path in this module
// speaks once it's off the wire: mono 16-bit linear PCM at one of a few
// fixed rates. portaudio's duplex streams, the telephony modem's input/
// output, and resampler's Format all trade in pcm.Chunk rather than a bare
// []byte, so duration math (BytesInDuration, Duration) stays in one place.
//
//	format := pcm.L16Mono16K
//	n := format.BytesInDuration(20 * time.Millisecond) // one ASR frame
//	silence := format.SilenceChunk(100 * time.Millisecond) // comfort noise
//	chunk := format.DataChunk(audioData)
package pcm
