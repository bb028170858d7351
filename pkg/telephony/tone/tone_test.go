package tone

import (
	"math"
	"testing"
)

const testSampleRate = 24000

func sineFrame(freqs []float64, sampleRate int, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		var v float64
		for _, f := range freqs {
			v += math.Sin(2 * math.Pi * f * float64(i) / float64(sampleRate))
		}
		v /= float64(len(freqs))
		out[i] = int16(v * 30000)
	}
	return out
}

func TestIsRingbackPositive(t *testing.T) {
	frame := sineFrame([]float64{440, 480}, testSampleRate, 1024)
	if !IsRingback(frame, testSampleRate) {
		t.Fatal("expected ringback tone to be detected")
	}
}

func TestIsRingbackNegativeSpeechLike(t *testing.T) {
	frame := sineFrame([]float64{220, 900, 1400}, testSampleRate, 1024)
	if IsRingback(frame, testSampleRate) {
		t.Fatal("expected non-ringback frame to not classify as ringback")
	}
}

func TestRingbackDetectorAnsweredEdge(t *testing.T) {
	d := NewRingbackDetector(testSampleRate)
	ringback := sineFrame([]float64{440, 480}, testSampleRate, 512)
	voice := sineFrame([]float64{300, 900}, testSampleRate, 512)

	fired := false
	for i := 0; i < 20; i++ {
		if d.Process(ringback) {
			t.Fatal("should not fire while still ringing")
		}
	}
	for i := 0; i < 12; i++ {
		if d.Process(voice) {
			if fired {
				t.Fatal("answered fired more than once")
			}
			fired = true
		}
	}
	if !fired {
		t.Fatal("expected answered edge to fire after ringback->voice transition")
	}
}

func TestClassifyStandardToneDial(t *testing.T) {
	frame := sineFrame([]float64{350, 440}, testSampleRate, 1024)
	if got := ClassifyStandardTone(frame, testSampleRate); got != ToneDial {
		t.Fatalf("got %v, want %v", got, ToneDial)
	}
}

func TestClassifyStandardToneSpeechLikeIsNone(t *testing.T) {
	frame := sineFrame([]float64{210, 430, 710, 920, 1200, 1500, 1800}, testSampleRate, 1024)
	if got := ClassifyStandardTone(frame, testSampleRate); got != ToneNone {
		t.Fatalf("expected speech-like multi-peak frame to be ToneNone, got %v", got)
	}
}

func TestDTMFDigit(t *testing.T) {
	frame := sineFrame([]float64{697, 1209}, testSampleRate, 1024)
	digit, ok := DTMFDigit(frame, testSampleRate)
	if !ok || digit != '1' {
		t.Fatalf("got digit=%q ok=%v, want '1'", digit, ok)
	}
}
