package tone

// StandardTone names a classified call-progress tone.
type StandardTone string

const (
	ToneNone    StandardTone = ""
	ToneDial    StandardTone = "dial"
	ToneBusy    StandardTone = "busy"
	ToneReorder StandardTone = "reorder"
	ToneOffHook StandardTone = "off_hook"
	ToneDTMF    StandardTone = "dtmf"
)

// toneFrequencyTolerance is the matching window, in Hz, grounded on the
// distilled source's tone-matching tolerance.
const toneFrequencyTolerance = 20.0

// standardToneTemplates maps a tone name to the frequencies it is composed of.
// US call-progress tone frequencies.
var standardToneTemplates = map[StandardTone][]float64{
	ToneDial:    {350, 440},
	ToneBusy:    {480, 620},
	ToneReorder: {480, 620}, // faster cadence than busy; cadence is not modeled here, see doc.go
	ToneOffHook: {1400, 2060, 2450, 2600},
}

// dtmfLowFreqs and dtmfHighFreqs are the DTMF matrix's row/column frequencies.
var dtmfLowFreqs = []float64{697, 770, 852, 941}
var dtmfHighFreqs = []float64{1209, 1336, 1477, 1633}

// dtmfDigits[row][col] is the digit produced by dtmfLowFreqs[row] + dtmfHighFreqs[col].
var dtmfDigits = [4][4]rune{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}

// minFreqHz/maxFreqHz bound the band searched for call-progress/DTMF peaks.
const minFreqHz, maxFreqHz = 300.0, 3000.0

// maxPeaksForTone is the spec's "not a tone if more than 6 peaks" rule; a
// frame with more energy peaks than this is classified as speech.
const maxPeaksForTone = 6

// ClassifyStandardTone returns the standard call-progress tone (if any)
// present in frame, or ToneNone if the frame doesn't match any template or
// looks like speech (too many spectral peaks).
func ClassifyStandardTone(frame []int16, sampleRate int) StandardTone {
	if len(frame) < 512 {
		return ToneNone
	}
	windowed := hanning(frame)
	mags := dft(windowed)
	peaks := findPeaks(mags, float64(sampleRate), len(windowed), minFreqHz, maxFreqHz, 0.5)

	if len(peaks) > maxPeaksForTone {
		return ToneNone
	}

	freqs := make([]float64, len(peaks))
	for i, p := range peaks {
		freqs[i] = p.freqHz
	}

	for _, name := range []StandardTone{ToneDial, ToneBusy, ToneOffHook} {
		if matchesTemplate(freqs, standardToneTemplates[name]) {
			return name
		}
	}

	if len(peaks) <= 3 {
		if _, ok := classifyDTMF(freqs); ok {
			return ToneDTMF
		}
	}
	return ToneNone
}

// DTMFDigit resolves the specific DTMF digit in frame, if any. Supplemented
// from the original source's phone_tones.py PHONE_TONES/DTMF tables: when the
// peak set contains exactly one low-group and one high-group frequency within
// tolerance, the corresponding digit is returned.
func DTMFDigit(frame []int16, sampleRate int) (rune, bool) {
	if len(frame) < 512 {
		return 0, false
	}
	windowed := hanning(frame)
	mags := dft(windowed)
	peaks := findPeaks(mags, float64(sampleRate), len(windowed), minFreqHz, maxFreqHz, 0.5)
	if len(peaks) > 3 {
		return 0, false
	}
	freqs := make([]float64, len(peaks))
	for i, p := range peaks {
		freqs[i] = p.freqHz
	}
	return classifyDTMF(freqs)
}

func matchesTemplate(freqs []float64, template []float64) bool {
	for _, want := range template {
		if !anyWithin(freqs, want, toneFrequencyTolerance) {
			return false
		}
	}
	return true
}

func classifyDTMF(freqs []float64) (rune, bool) {
	row, rowOK := closestIndex(freqs, dtmfLowFreqs, toneFrequencyTolerance)
	col, colOK := closestIndex(freqs, dtmfHighFreqs, toneFrequencyTolerance)
	if !rowOK || !colOK {
		return 0, false
	}
	return dtmfDigits[row][col], true
}

func anyWithin(freqs []float64, target, tolerance float64) bool {
	for _, f := range freqs {
		if absf(f-target) <= tolerance {
			return true
		}
	}
	return false
}

// closestIndex returns the index of the first candidate frequency that some
// observed freq lies within tolerance of.
func closestIndex(freqs []float64, candidates []float64, tolerance float64) (int, bool) {
	for i, c := range candidates {
		if anyWithin(freqs, c, tolerance) {
			return i, true
		}
	}
	return 0, false
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
