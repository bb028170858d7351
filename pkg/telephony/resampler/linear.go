package resampler

// Linear performs linear-interpolation resampling between arbitrary integer
// sample rates, used for ratios other than the 48k<->24k hot paths (e.g. the
// VAD's original-rate-to-classifier-rate conversion, or device-native rates
// that aren't exactly 48kHz). Per SPEC_FULL.md §4.3 ("Other ratios use linear
// interpolation over sample indices").
type Linear struct {
	srcRate, dstRate int
}

// NewLinear constructs a Linear converter for the given rates. If the rates
// are equal, Convert is a no-op copy.
func NewLinear(srcRate, dstRate int) *Linear {
	return &Linear{srcRate: srcRate, dstRate: dstRate}
}

// Convert resamples in (at srcRate) to dstRate using linear interpolation
// over fractional source indices, with explicit int16 clipping.
func (l *Linear) Convert(in []int16) []int16 {
	if l.srcRate == l.dstRate || len(in) == 0 {
		out := make([]int16, len(in))
		copy(out, in)
		return out
	}

	ratio := float64(l.srcRate) / float64(l.dstRate)
	outLen := int(float64(len(in)) / ratio)
	out := make([]int16, outLen)
	for i := range out {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		v := float64(in[idx])*(1-frac) + float64(in[idx+1])*frac
		out[i] = clip16(v)
	}
	return out
}

// ConvertLinear is a convenience one-shot conversion without retaining a
// converter. Prefer the package-level Convert (general.go) as the callers'
// entry point; this is for call sites that specifically want linear
// interpolation rather than the FIR hot paths.
func ConvertLinear(in []int16, srcRate, dstRate int) []int16 {
	return NewLinear(srcRate, dstRate).Convert(in)
}
