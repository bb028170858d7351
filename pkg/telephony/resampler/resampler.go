// Package resampler implements anti-aliased integer-ratio sample rate
// conversion for int16 PCM audio, per SPEC_FULL.md §4.3. The 48kHz<->24kHz
// hot paths are hand-rolled (mandatory FIR prefilter before decimation, and
// linear interpolation on upsample); other ratios fall back to a general
// polyphase/linear path built on the donor's go-audio-resampling library
// (see DESIGN.md C3).
package resampler

// firLowPass5 are symmetric 5-tap low-pass FIR coefficients summing to 1,
// tuned for a near-null around 15kHz at a 48kHz input rate so that
// call-progress energy above the new (24kHz) Nyquist is suppressed before
// decimation rather than aliased into the voice band. Mandatory per
// SPEC_FULL.md §4.3.
var firLowPass5 = [5]float64{0.15, 0.1765, 0.347, 0.1765, 0.15}

// Downsample48to24 applies the mandatory FIR low-pass filter then decimates
// by 2. Taps that fall outside the input contribute zero at the edges.
func Downsample48to24(in []int16) []int16 {
	filtered := make([]int16, len(in))
	for i := range in {
		var acc float64
		for k := -2; k <= 2; k++ {
			idx := i + k
			if idx < 0 || idx >= len(in) {
				continue
			}
			acc += float64(in[idx]) * firLowPass5[k+2]
		}
		filtered[i] = clip16(acc)
	}

	out := make([]int16, len(filtered)/2)
	for i := range out {
		out[i] = filtered[i*2]
	}
	return out
}

// Upsample24to48 inserts linear-interpolated samples between originals; the
// final output sample duplicates the last input sample, per SPEC_FULL.md §4.3.
func Upsample24to48(in []int16) []int16 {
	if len(in) == 0 {
		return nil
	}
	out := make([]int16, len(in)*2)
	for i := 0; i < len(in); i++ {
		out[i*2] = in[i]
		if i+1 < len(in) {
			out[i*2+1] = clip16((float64(in[i]) + float64(in[i+1])) / 2)
		} else {
			out[i*2+1] = in[i] // final sample duplicated
		}
	}
	return out
}

func clip16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
