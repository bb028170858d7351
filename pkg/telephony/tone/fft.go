package tone

import "math"

// dft computes the magnitude spectrum of real-valued samples (Hanning-windowed)
// using a direct O(n^2) discrete Fourier transform. Frames are short (10-30ms,
// a few hundred to low-thousands of samples at 24kHz) so a simple DFT keeps the
// kernel dependency-free and easy to verify against the Goertzel detectors
// above, at the cost of not being an FFT; see DESIGN.md for why no corpus
// library was used here.
func dft(samples []float64) []float64 {
	n := len(samples)
	mags := make([]float64, n/2+1)
	for k := range mags {
		var re, im float64
		for t, s := range samples {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += s * math.Cos(angle)
			im += s * math.Sin(angle)
		}
		mags[k] = math.Hypot(re, im)
	}
	return mags
}

// hanning applies a Hanning window to int16 samples, returning float64 samples
// normalized to [-1, 1].
func hanning(frame []int16) []float64 {
	n := len(frame)
	out := make([]float64, n)
	for i, s := range frame {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		out[i] = (float64(s) / 32768.0) * w
	}
	return out
}

// peak is a local maximum in the magnitude spectrum.
type peak struct {
	freqHz float64
	mag    float64
}

// findPeaks locates local-maxima bins within [loHz, hiHz] whose magnitude is
// at least frac of the global peak magnitude in that band.
func findPeaks(mags []float64, sampleRate float64, n int, loHz, hiHz, frac float64) []peak {
	binHz := sampleRate / float64(n)
	lo := int(loHz / binHz)
	hi := int(hiHz / binHz)
	if hi >= len(mags) {
		hi = len(mags) - 1
	}
	if lo < 1 {
		lo = 1
	}

	var bandMax float64
	for i := lo; i <= hi; i++ {
		if mags[i] > bandMax {
			bandMax = mags[i]
		}
	}
	if bandMax == 0 {
		return nil
	}
	threshold := bandMax * frac

	var peaks []peak
	for i := lo; i <= hi; i++ {
		if mags[i] < threshold {
			continue
		}
		if mags[i] >= mags[i-1] && (i == hi || mags[i] >= mags[i+1]) {
			peaks = append(peaks, peak{freqHz: float64(i) * binHz, mag: mags[i]})
		}
	}
	return peaks
}
