package tone

// Ringback tone frequencies, US standard: 440+480 Hz, nominally 2s on / 4s off.
const (
	ringbackFreq1 = 440.0
	ringbackFreq2 = 480.0

	// ToneMagnitudeThreshold is the normalized Goertzel magnitude (0..~1) above
	// which a frequency is considered present. Grounded on the distilled
	// source's TONE_THRESHOLD, rescaled here because this package's Goertzel
	// magnitude is normalized by frame length (see goertzel.go) rather than
	// left in raw per-sample units.
	ToneMagnitudeThreshold = 0.15

	// voiceFloor is the minimum RMS (normalized 0..1) required, in the
	// absence of ringback, to count a frame as "the callee is speaking".
	voiceFloor = 0.006

	historySize = 100
)

// RingbackDetector tracks a sliding history of ringback/non-ringback frames
// and emits an "answered" edge exactly once per call, per SPEC_FULL.md §4.1
// and §8 ("after >=5 ringback frames followed by voice, answered=true is
// emitted exactly once").
type RingbackDetector struct {
	sampleRate float64
	history    []bool // true = frame classified ringback
	fired      bool
}

// NewRingbackDetector constructs a detector for frames at sampleRate (Hz).
func NewRingbackDetector(sampleRate int) *RingbackDetector {
	return &RingbackDetector{sampleRate: float64(sampleRate)}
}

// IsRingback reports whether frame contains both 440Hz and 480Hz energy
// above ToneMagnitudeThreshold. Pure function of the frame; no history.
func IsRingback(frame []int16, sampleRate int) bool {
	sr := float64(sampleRate)
	m1 := goertzel(frame, sr, ringbackFreq1)
	m2 := goertzel(frame, sr, ringbackFreq2)
	return m1 >= ToneMagnitudeThreshold && m2 >= ToneMagnitudeThreshold
}

// Process feeds one frame and returns true exactly once, on the frame where
// the "answered" edge is detected: at least 5 of the frames before the most
// recent 10 were ringback, fewer than 2 of the most recent 10 were ringback,
// and the current frame's RMS (when not itself ringback) clears voiceFloor.
func (d *RingbackDetector) Process(frame []int16) (answered bool) {
	isRingback := IsRingback(frame, int(d.sampleRate))
	d.history = append(d.history, isRingback)
	if len(d.history) > historySize {
		d.history = d.history[len(d.history)-historySize:]
	}

	if d.fired {
		return false
	}

	n := len(d.history)
	if n < 11 {
		return false
	}

	older := d.history[:n-10]
	recent := d.history[n-10:]

	olderRingbackCount := countTrue(older)
	recentRingbackCount := countTrue(recent)

	hadRingback := olderRingbackCount >= 5
	recentNoRingback := recentRingbackCount < 2
	isVoice := !isRingback && RMS(frame) > voiceFloor

	if hadRingback && recentNoRingback && isVoice {
		d.fired = true
		return true
	}
	return false
}

// Reset clears history and the fired latch, for reuse across calls.
func (d *RingbackDetector) Reset() {
	d.history = d.history[:0]
	d.fired = false
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
