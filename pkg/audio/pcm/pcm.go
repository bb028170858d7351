package pcm

import (
	"io"
	"time"
)

// The formats a call's audio ever runs at: 16 kHz for the ASR/TTS model
// side, 24 kHz for the realtime engine variant, 48 kHz for the audio
// device side. Everything in between goes through resampler.
const (
	L16Mono16K Format = iota
	L16Mono24K
	L16Mono48K
)

// Chunk is a span of PCM audio with a known format and length, writable to
// an io.Writer — either real samples (DataChunk) or generated silence
// (SilenceChunk).
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// Format identifies one of the fixed mono 16-bit PCM configurations above.
type Format int

func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono24K:
		return 24000
	case L16Mono48K:
		return 48000
	}
	panic("pcm: invalid audio type")
}

func (f Format) Channels() int {
	switch f {
	case L16Mono16K, L16Mono24K, L16Mono48K:
		return 1
	}
	panic("pcm: invalid audio type")
}

func (f Format) Depth() int {
	switch f {
	case L16Mono16K, L16Mono24K, L16Mono48K:
		return 16
	}
	panic("pcm: invalid audio type")
}

func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Channels()) / int64(f.Depth())
}

func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration is how big a buffer a caller needs to hold d of audio at
// this format — the size callagent/audiorouter allocate per frame.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.Channels()) * int64(f.Depth()) / 8
}

func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

func (f Format) BitsRate() int {
	return f.SampleRate() * f.Channels() * f.Depth()
}

func (f Format) BytesRate() int {
	return f.BitsRate() / 8
}

// SilenceChunk builds a Chunk that writes duration's worth of zero samples
// without allocating that many bytes up front.
func (f Format) SilenceChunk(duration time.Duration) Chunk {
	return &SilenceChunk{
		Duration: duration,
		len:      f.BytesInDuration(duration),
		fmt:      f,
	}
}

// DataChunk wraps data as a Chunk carrying this format.
func (f Format) DataChunk(data []byte) Chunk {
	return &DataChunk{
		Data: data,
		fmt:  f,
	}
}

// ReadChunk blocks until exactly duration's worth of bytes have been read
// from r (io.ReadFull), or returns the short-read error.
func (f Format) ReadChunk(r io.Reader, duration time.Duration) (Chunk, error) {
	buf := make([]byte, f.BytesInDuration(duration))
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, err
	}
	return f.DataChunk(buf), nil
}

func (f Format) String() string {
	switch f {
	case L16Mono16K:
		return "audio/L16; rate=16000; channels=1"
	case L16Mono24K:
		return "audio/L16; rate=24000; channels=1"
	case L16Mono48K:
		return "audio/L16; rate=48000; channels=1"
	}
	panic("pcm: invalid audio type")
}

// DataChunk is a Chunk over an actual sample buffer.
type DataChunk struct {
	Data []byte
	fmt  Format
}

func (c *DataChunk) Len() int64 {
	return int64(len(c.Data))
}

func (c *DataChunk) Format() Format {
	return c.fmt
}

// ReadFrom fills Data up to its capacity from r, trimming Data to what was
// actually read.
func (c *DataChunk) ReadFrom(r io.Reader) (int64, error) {
	n, err := r.Read(c.Data[:cap(c.Data)])
	if err != nil {
		return 0, err
	}
	c.Data = c.Data[:n]
	return int64(n), nil
}

func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}

// SilenceChunk is a Chunk that writes Duration's worth of zero bytes
// without holding them in memory.
type SilenceChunk struct {
	Duration time.Duration
	len      int64
	fmt      Format
}

func (c *SilenceChunk) Len() int64 {
	return c.len
}

func (c *SilenceChunk) Format() Format {
	return c.fmt
}

// emptyBytes is the zero buffer SilenceChunk.WriteTo writes from in
// 32000-byte slices, rather than allocating len bytes of zeros per call.
var emptyBytes [32000]byte

func (c *SilenceChunk) WriteTo(w io.Writer) (int64, error) {
	tw := c.len
	wn := int64(0)
	for tw > 0 {
		var silence []byte
		if tw > int64(len(emptyBytes)) {
			silence = emptyBytes[:]
			tw -= int64(len(silence))
		} else {
			silence = emptyBytes[:tw]
			tw = 0
		}
		n, err := w.Write(silence)
		if err != nil {
			return 0, err
		}
		wn += int64(n)
	}
	return wn, nil
}
