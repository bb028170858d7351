// Package vad implements an energy-gated, WebRTC-style voice activity
// detector that classifies fixed-size frames and yields utterance boundaries.
package vad

import (
	"math"

	"github.com/scranst/phoneagent/pkg/telephony/resampler"
)

// Event is the kind of boundary event Process may emit.
type Event int

const (
	// NoEvent means the frame changed no boundary state.
	NoEvent Event = iota
	// SpeechStarted fires when enough consecutive voiced frames accumulate.
	SpeechStarted
	// SpeechEnded fires on enough consecutive silence, or on the max-speech cap.
	SpeechEnded
)

// Config configures frame sizing and timing thresholds. Defaults are the
// distilled source's constants (original-rate 16kHz, 30ms frames).
type Config struct {
	SampleRateHz      int // native/original sample rate frames arrive at
	FrameDurationMs   int
	MinSpeechMs       int
	MinSilenceMs      int
	MaxSpeechMs       int
	EnergyThreshold   float64 // normalized RMS, 0..1
	ClassifierRateHz  int     // rate the underlying voiced/unvoiced classifier expects
	MaxBufferSeconds  float64 // cap on the accumulated original-rate buffer
}

// DefaultConfig mirrors original_source/vad.py's constructor defaults.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:     16000,
		FrameDurationMs:  30,
		MinSpeechMs:      250,
		MinSilenceMs:     600,
		MaxSpeechMs:      15000,
		EnergyThreshold:  500.0 / 32768.0,
		ClassifierRateHz: 16000,
		MaxBufferSeconds: 30,
	}
}

// Classifier decides, given a frame already at ClassifierRateHz, whether it
// contains speech. The default implementation accepts every frame it is
// given; it applies no spectral test (no dedicated VAD model binding exists in
// the reference corpus; see DESIGN.md).
type Classifier interface {
	IsSpeech(frame []int16) bool
}

// Detector is a stateful per-call voice activity detector.
type Detector struct {
	cfg        Config
	classifier Classifier
	resamp     *resampler.Linear

	frameSize           int
	speechFramesNeeded   int
	silenceFramesNeeded  int
	maxSpeechFrames      int

	speechFrames  int
	silenceFrames int
	totalFrames   int
	started       bool

	originalBuf []int16
	maxBufLen   int

	frameAccum []int16
}

// New constructs a Detector. classifier may be nil to use the built-in
// classifier, which leaves the decision to the RMS energy gate alone.
func New(cfg Config, classifier Classifier) *Detector {
	frameSize := cfg.SampleRateHz * cfg.FrameDurationMs / 1000
	d := &Detector{
		cfg:                 cfg,
		classifier:          classifier,
		resamp:              resampler.NewLinear(cfg.SampleRateHz, cfg.ClassifierRateHz),
		frameSize:           frameSize,
		speechFramesNeeded:  cfg.MinSpeechMs / cfg.FrameDurationMs,
		silenceFramesNeeded: cfg.MinSilenceMs / cfg.FrameDurationMs,
		maxSpeechFrames:     ceilDiv(cfg.MaxSpeechMs, cfg.FrameDurationMs),
		maxBufLen:           int(cfg.MaxBufferSeconds * float64(cfg.SampleRateHz)),
	}
	if d.classifier == nil {
		d.classifier = energyFlatnessClassifier{}
	}
	return d
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Reset clears all accumulated state, for reuse across calls.
func (d *Detector) Reset() {
	d.speechFrames = 0
	d.silenceFrames = 0
	d.totalFrames = 0
	d.started = false
	d.originalBuf = d.originalBuf[:0]
	d.frameAccum = d.frameAccum[:0]
}

// Process appends samples (at cfg.SampleRateHz) to the internal buffers and
// classifies any complete frames, returning the most recent boundary event
// observed and, on SpeechEnded, the accumulated ORIGINAL-rate utterance audio.
//
// The returned buffer is always built from the original-rate audio (never a
// resampled copy), per SPEC_FULL.md §4.2.
func (d *Detector) Process(samples []int16) (Event, []int16) {
	// Always retain original-rate audio, capped, regardless of frame boundaries.
	d.originalBuf = append(d.originalBuf, samples...)
	if len(d.originalBuf) > d.maxBufLen {
		d.originalBuf = d.originalBuf[len(d.originalBuf)-d.maxBufLen:]
	}

	d.frameAccum = append(d.frameAccum, samples...)

	event := NoEvent
	var yielded []int16

	for len(d.frameAccum) >= d.frameSize {
		frame := d.frameAccum[:d.frameSize]
		d.frameAccum = d.frameAccum[d.frameSize:]

		voiced := d.classifyFrame(frame)
		if ev, buf := d.advance(voiced); ev != NoEvent {
			event = ev
			yielded = buf
		}
	}
	return event, yielded
}

func (d *Detector) classifyFrame(frame []int16) bool {
	hasEnergy := rms(frame) >= d.cfg.EnergyThreshold
	if !hasEnergy {
		return false
	}
	classifierFrame := frame
	if d.cfg.ClassifierRateHz != d.cfg.SampleRateHz {
		classifierFrame = d.resamp.Convert(frame)
	}
	return d.classifier.IsSpeech(classifierFrame)
}

func (d *Detector) advance(voiced bool) (Event, []int16) {
	d.totalFrames++
	if voiced {
		d.speechFrames++
		d.silenceFrames = 0
	} else {
		d.silenceFrames++
		d.speechFrames = 0
	}

	if !d.started {
		if d.speechFrames >= d.speechFramesNeeded {
			d.started = true
			d.silenceFrames = 0
			d.totalFrames = d.speechFrames
			return SpeechStarted, nil
		}
		return NoEvent, nil
	}

	silenceDone := d.silenceFrames >= d.silenceFramesNeeded
	maxDone := d.totalFrames >= d.maxSpeechFrames
	if silenceDone || maxDone {
		buf := append([]int16(nil), d.originalBuf...)
		d.originalBuf = d.originalBuf[:0]
		d.started = false
		d.speechFrames = 0
		d.silenceFrames = 0
		d.totalFrames = 0
		return SpeechEnded, buf
	}
	return NoEvent, nil
}

func rms(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(frame))) / 32768.0
}

// energyFlatnessClassifier is a minimal stand-in voiced/unvoiced classifier:
// every frame that cleared the RMS energy gate (checked by the caller) is
// accepted as speech. It does not reject pure tones; a steady tone loud
// enough to clear the gate counts as speech.
type energyFlatnessClassifier struct{}

func (energyFlatnessClassifier) IsSpeech(frame []int16) bool {
	return true
}
