package resampler

import (
	"github.com/tphakala/go-audio-resampling/resampling"
)

// Convert is the single entry point callers should use: it picks the
// mandatory-FIR 48->24kHz hot path, the linear-interpolation 24->48kHz hot
// path, or falls back to the donor's general-purpose resampling library for
// any other ratio (mono, matching SPEC_FULL.md §4.3's "other ratios use
// linear interpolation" plus the §11 domain-stack note that the general path
// is backed by go-audio-resampling rather than hand-rolled a second time).
func Convert(in []int16, srcRate, dstRate int) ([]int16, error) {
	switch {
	case srcRate == dstRate:
		out := make([]int16, len(in))
		copy(out, in)
		return out, nil
	case srcRate == 48000 && dstRate == 24000:
		return Downsample48to24(in), nil
	case srcRate == 24000 && dstRate == 48000:
		return Upsample24to48(in), nil
	default:
		return generalConvert(in, srcRate, dstRate)
	}
}

func generalConvert(in []int16, srcRate, dstRate int) ([]int16, error) {
	cfg := &resampling.Config{
		InputRate:  srcRate,
		OutputRate: dstRate,
		Channels:   1,
		Quality:    resampling.QualityHigh,
	}
	r, err := resampling.New(cfg)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	floats := make([]float64, len(in))
	for i, s := range in {
		floats[i] = float64(s) / 32768.0
	}

	processed, err := r.Process(floats)
	if err != nil {
		return nil, err
	}

	out := make([]int16, len(processed))
	for i, s := range processed {
		out[i] = clip16(s * 32768.0)
	}
	return out, nil
}
