package resampler

// Format describes one side of a resampling conversion: sample rate in Hz
// and channel count. Samples are always 16-bit signed integers; there is no
// float or 8-bit variant.
type Format struct {
	SampleRate int
	Stereo     bool
}

func (f Format) channels() int {
	if f.Stereo {
		return 2
	}
	return 1
}

// sampleBytes is the byte width of one frame: 2 bytes/channel, so 2 for
// mono and 4 for stereo.
func (f Format) sampleBytes() int {
	if f.Stereo {
		return 4
	}
	return 2
}
