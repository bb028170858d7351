// Package resampler retimes 16-bit PCM audio between two Formats, the
// bridge between a phone line's 8 kHz audio and the 16/24 kHz a speech
// model expects. Two New implementations exist behind build tags: soxr.go
// binds libsoxr through cgo for cgo builds, resampler.go falls back to a
// pure-Go resampler otherwise — callers use the same Resampler interface
// either way.
//
//	src := resampler.Format{SampleRate: 8000, Stereo: false}
//	dst := resampler.Format{SampleRate: 16000, Stereo: false}
//	r, err := resampler.New(phoneAudio, src, dst)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	io.Copy(asrInput, r)
package resampler
