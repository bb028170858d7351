package resampler

import (
	"math"
	"testing"
)

func sine(freq float64, sampleRate, n int, amp float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestDownsampleLength(t *testing.T) {
	in := sine(1000, 48000, 4800, 20000)
	out := Downsample48to24(in)
	if len(out) != len(in)/2 {
		t.Fatalf("got len %d, want %d", len(out), len(in)/2)
	}
}

func TestDownsampleAntiAliasing(t *testing.T) {
	passband := sine(1000, 48000, 48000, 20000)
	aliasCandidate := sine(15000, 48000, 48000, 20000)

	passbandOut := Downsample48to24(passband)
	aliasOut := Downsample48to24(aliasCandidate)

	passbandPeak := peakMagnitude(passbandOut)
	aliasPeak := peakMagnitude(aliasOut)

	if aliasPeak <= 0 {
		t.Fatal("expected nonzero alias peak")
	}
	ratioDB := 20 * math.Log10(passbandPeak/aliasPeak)
	if ratioDB < 20 {
		t.Fatalf("alias attenuation only %.1fdB below passband, want >=20dB", ratioDB)
	}
}

func peakMagnitude(samples []int16) float64 {
	var peak float64
	for _, s := range samples {
		v := math.Abs(float64(s))
		if v > peak {
			peak = v
		}
	}
	return peak
}

func TestUpsampleDuplicatesFinalSample(t *testing.T) {
	in := []int16{100, 200, 300}
	out := Upsample24to48(in)
	if len(out) != 6 {
		t.Fatalf("got len %d, want 6", len(out))
	}
	if out[5] != 300 {
		t.Fatalf("final sample = %d, want duplicate of last input (300)", out[5])
	}
}

func TestRoundTripLengthPreserved(t *testing.T) {
	in := sine(1000, 24000, 2400, 20000)
	up := Upsample24to48(in)
	down := Downsample48to24(up)
	diff := len(down) - len(in)
	if diff < -1 || diff > 1 {
		t.Fatalf("round trip length diff = %d, want within +-1", diff)
	}
}

func TestLinearConvertIdentity(t *testing.T) {
	in := []int16{1, 2, 3, 4}
	out := NewLinear(16000, 16000).Convert(in)
	if len(out) != len(in) {
		t.Fatalf("identity conversion changed length")
	}
}
