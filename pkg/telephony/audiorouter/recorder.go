package audiorouter

import (
	"bytes"
	"encoding/binary"
)

// Recorder mixes the input (call) and output (AI voice) legs of a call into
// a single mono WAV file, matching the teacher source's behavior of saving
// the call audio it captured (original_source/audio_router.py's
// start_recording/stop_recording). There is no WAV-writing library in the
// reference corpus (the donor's audio codecs cover mp3/ogg/opus, not WAV), so
// this is a small stdlib-only RIFF writer; see DESIGN.md.
type Recorder struct {
	sampleRate int
	samples    []int16

	// inPos and outPos are each leg's own write position, in samples.
	inPos, outPos int
}

func newRecorder(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

// addInput mixes call audio into the recording.
func (r *Recorder) addInput(chunk []int16) {
	r.mix(&r.inPos, chunk)
}

// addOutput mixes AI voice audio into the recording.
func (r *Recorder) addOutput(chunk []int16) {
	r.mix(&r.outPos, chunk)
}

// mix adds chunk into the recording at *pos, that leg's own write position,
// summing with clipping where the input and output legs overlap and
// extending the buffer where one leg runs ahead of the other.
func (r *Recorder) mix(pos *int, chunk []int16) {
	start := *pos
	need := start + len(chunk)
	if need > len(r.samples) {
		grown := make([]int16, need)
		copy(grown, r.samples)
		r.samples = grown
	}
	for i, s := range chunk {
		sum := int32(r.samples[start+i]) + int32(s)
		r.samples[start+i] = clip16(sum)
	}
	*pos = need
}

func clip16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// bytes renders the accumulated mono 16-bit PCM as a complete WAV file.
func (r *Recorder) bytes() []byte {
	dataSize := len(r.samples) * 2
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // PCM fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // mono
	binary.Write(&buf, binary.LittleEndian, uint32(r.sampleRate))
	byteRate := r.sampleRate * 2
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(2))  // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range r.samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}
