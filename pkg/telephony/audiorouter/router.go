// Package audiorouter binds the modem's virtual audio device (a loopback
// device such as BlackHole on macOS, or the SIM7600's audio-class endpoint on
// Linux) to full-duplex int16 PCM streams the conversation engine can read
// from and write to, per SPEC_FULL.md §4.2/§11.
package audiorouter

import (
	"errors"
	"sync"
	"time"

	"github.com/scranst/phoneagent/pkg/audio/pcm"
	"github.com/scranst/phoneagent/pkg/audio/portaudio"
)

// NativeSampleRate is the virtual routing device's native rate (BlackHole's
// fixed rate on macOS; the same constant the conversation engine resamples
// to/from via pkg/telephony/resampler).
const NativeSampleRate = 48000

// chunkDuration is the buffer size used for both directions.
const chunkDuration = 20 * time.Millisecond

// inputQueueDepth bounds the input backlog; once full, newly captured chunks
// are dropped (drop-newest) until the conversation engine reads again, so
// the capture loop never blocks on a slow consumer.
const inputQueueDepth = 50

// Router owns the input/output PortAudio streams for one call and arbitrates
// access to them for the conversation engine and the optional recorder.
type Router struct {
	in  *portaudio.InputStream
	out *portaudio.OutputStream

	mu       sync.Mutex
	queue    [][]int16
	running  bool
	speaking bool

	recorder *Recorder
}

// Start opens input/output streams on the named devices (matched
// case-insensitively as in the teacher's find_device) at NativeSampleRate.
// Either name may be empty to fall back to the respective system default.
func Start(inputDeviceName, outputDeviceName string) (*Router, error) {
	inIdx := -1
	if inputDeviceName != "" {
		idx, err := portaudio.FindDevice(inputDeviceName, true)
		if err != nil {
			return nil, err
		}
		inIdx = idx
	}
	outIdx := -1
	if outputDeviceName != "" {
		idx, err := portaudio.FindDevice(outputDeviceName, false)
		if err != nil {
			return nil, err
		}
		outIdx = idx
	}

	var in *portaudio.InputStream
	var out *portaudio.OutputStream
	var err error

	if inIdx >= 0 {
		in, err = portaudio.NewInputStreamOnDevice(inIdx, pcm.L16Mono48K, chunkDuration)
	} else {
		in, err = portaudio.NewInputStream(pcm.L16Mono48K, chunkDuration)
	}
	if err != nil {
		return nil, err
	}

	if outIdx >= 0 {
		out, err = portaudio.NewOutputStreamOnDevice(outIdx, pcm.L16Mono48K, chunkDuration)
	} else {
		out, err = portaudio.NewOutputStream(pcm.L16Mono48K, chunkDuration)
	}
	if err != nil {
		in.Close()
		return nil, err
	}

	r := &Router{in: in, out: out, running: true}
	go r.captureLoop()
	return r, nil
}

// captureLoop continuously reads from the input stream and enqueues chunks,
// dropping the new chunk when the queue is full (drop-newest, never block
// the audio callback thread).
func (r *Router) captureLoop() {
	frameSize := int(pcm.L16Mono48K.SamplesInDuration(chunkDuration))
	buf := make([]int16, frameSize)
	for {
		r.mu.Lock()
		running := r.running
		r.mu.Unlock()
		if !running {
			return
		}

		n, err := r.in.Read(buf)
		if err != nil {
			return
		}
		chunk := append([]int16(nil), buf[:n]...)

		r.mu.Lock()
		if len(r.queue) < inputQueueDepth {
			r.queue = append(r.queue, chunk)
		}
		if r.recorder != nil {
			r.recorder.addInput(chunk)
		}
		r.mu.Unlock()
	}
}

// ReadAudio returns the next queued input chunk at NativeSampleRate, or nil
// if none is currently available.
func (r *Router) ReadAudio() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil
	}
	chunk := r.queue[0]
	r.queue = r.queue[1:]
	return chunk
}

// WriteAudio plays samples (at NativeSampleRate) to the call. It sets the
// speaking flag for the duration of the write so the conversation engine can
// suppress the microphone echo path while its own voice is live.
func (r *Router) WriteAudio(samples []int16) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return errors.New("audiorouter: router stopped")
	}
	r.speaking = true
	if r.recorder != nil {
		r.recorder.addOutput(samples)
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.speaking = false
		r.mu.Unlock()
	}()

	_, err := r.out.Write(samples)
	return err
}

// Speaking reports whether a WriteAudio call is currently in flight.
func (r *Router) Speaking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.speaking
}

// DrainInput discards any input queued while the call was speaking, so the
// conversation engine doesn't process its own echo as the next utterance
// once it starts listening again.
func (r *Router) DrainInput() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = r.queue[:0]
}

// StartRecording begins mixing input and output audio into a WAV recorder.
func (r *Router) StartRecording() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = newRecorder(NativeSampleRate)
}

// StopRecording stops mixing and returns the recorded WAV bytes, or nil if
// StartRecording was never called or nothing was captured.
func (r *Router) StopRecording() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recorder == nil {
		return nil
	}
	rec := r.recorder
	r.recorder = nil
	if len(rec.samples) == 0 {
		return nil
	}
	return rec.bytes()
}

// Stop halts capture and playback and releases the underlying streams.
func (r *Router) Stop() error {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	var errs []error
	if err := r.in.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.out.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
