package conversation

import (
	"context"
	"testing"

	"github.com/scranst/phoneagent/pkg/genx"
	"github.com/scranst/phoneagent/pkg/telephony/audiorouter"
	"github.com/scranst/phoneagent/pkg/telephony/speechadapt"
	"github.com/scranst/phoneagent/pkg/telephony/vad"
)

// fakeTranscriber returns scripted text regardless of the audio given,
// letting tests drive the engine without a real ASR model.
type fakeTranscriber struct{ text string }

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []int16, rate int, language string) (string, error) {
	return f.text, nil
}

// fakeSynthesizer returns a short burst of silence standing in for spoken
// audio, so speak() has something non-empty to hand the sink.
type fakeSynthesizer struct{ calls []string }

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]int16, int, error) {
	f.calls = append(f.calls, text)
	return make([]int16, 160), audiorouter.NativeSampleRate, nil
}

// fakeSink records WriteAudio/DrainInput calls instead of touching real
// hardware.
type fakeSink struct {
	written [][]int16
	drains  int
}

func (f *fakeSink) WriteAudio(samples []int16) error {
	f.written = append(f.written, samples)
	return nil
}

func (f *fakeSink) DrainInput() { f.drains++ }

// fakeGenerator echoes a scripted response for every call.
type fakeGenerator struct{ response string }

func (g *fakeGenerator) GenerateStream(ctx context.Context, model string, mctx genx.ModelContext) (genx.Stream, error) {
	return &scriptedStream{text: g.response}, nil
}

func (g *fakeGenerator) Invoke(ctx context.Context, model string, mctx genx.ModelContext, fn *genx.FuncTool) (genx.Usage, *genx.FuncCall, error) {
	return genx.Usage{}, nil, nil
}

// scriptedStream yields exactly one text chunk then genx.ErrDone.
type scriptedStream struct {
	text string
	done bool
}

func (s *scriptedStream) Next() (*genx.MessageChunk, error) {
	if s.done {
		return nil, genx.ErrDone
	}
	s.done = true
	return &genx.MessageChunk{Role: genx.RoleModel, Part: genx.Text(s.text)}, nil
}

func (s *scriptedStream) Close() error              { return nil }
func (s *scriptedStream) CloseWithError(error) error { return nil }

// fastVADConfig collapses the speech/silence hang-over to a single 30ms
// frame so a handful of synthetic samples are enough to cross a boundary
// in tests, instead of the multi-second defaults real calls use.
func fastVADConfig() vad.Config {
	return vad.Config{
		SampleRateHz:     16000,
		FrameDurationMs:  30,
		MinSpeechMs:      30,
		MinSilenceMs:     30,
		MaxSpeechMs:      15000,
		EnergyThreshold:  500.0 / 32768.0,
		ClassifierRateHz: 16000,
		MaxBufferSeconds: 30,
	}
}

// loudFrame returns one native-rate (48kHz) frame of a loud 1kHz square
// wave, which survives the anti-aliased resample to 16kHz. 960 samples
// become 320 there, so three frames fill two 30ms VAD frames.
func loudFrame(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		if (i/24)%2 == 0 {
			out[i] = 12000
		} else {
			out[i] = -12000
		}
	}
	return out
}

func silentFrame(n int) []int16 {
	return make([]int16, n)
}

func newTestEngine(transcript, response string) (*Engine, *fakeSink, *fakeSynthesizer) {
	sink := &fakeSink{}
	synth := &fakeSynthesizer{}
	stt := &fakeTranscriber{text: transcript}
	llm := speechadapt.NewLLMEngine(&fakeGenerator{response: response}, "test-model")
	e := New(sink, stt, synth, llm, fastVADConfig())
	return e, sink, synth
}

func TestProcessAudioCompletesUtteranceOnSpeechEnd(t *testing.T) {
	e, sink, synth := newTestEngine("what are your hours", "We're open until nine. Have a great day!")
	ctx := context.Background()

	if err := e.Start(ctx, Config{Objective: "Answer questions about the shop"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if e.State() != Listening {
		t.Fatalf("expected Listening after Start, got %v", e.State())
	}

	// A few loud 20ms-at-48kHz frames to cross the speech-started threshold,
	// then silence to cross speech-ended.
	for i := 0; i < 3; i++ {
		if err := e.ProcessAudio(ctx, loudFrame(960)); err != nil {
			t.Fatalf("process audio (loud): %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := e.ProcessAudio(ctx, silentFrame(960)); err != nil {
			t.Fatalf("process audio (silence): %v", err)
		}
	}

	if len(synth.calls) != 1 {
		t.Fatalf("expected exactly one synthesis call, got %d: %v", len(synth.calls), synth.calls)
	}
	if len(sink.written) != 1 {
		t.Fatalf("expected exactly one playback, got %d", len(sink.written))
	}
	if sink.drains != 1 {
		t.Fatalf("expected input drained once after speaking, got %d", sink.drains)
	}

	result := e.GetResult()
	if len(result.Transcript) != 2 {
		t.Fatalf("expected 2 transcript turns, got %d: %+v", len(result.Transcript), result.Transcript)
	}
	if result.Transcript[0].Text != "what are your hours" {
		t.Fatalf("unexpected user turn: %+v", result.Transcript[0])
	}
	if e.State() != Completed {
		t.Fatalf("expected Completed after farewell, got %v", e.State())
	}
	if !result.Success {
		t.Fatal("expected success after a completed call")
	}
}

func TestProcessAudioIgnoredWhileNotListening(t *testing.T) {
	e, _, synth := newTestEngine("hello", "Hi there")
	ctx := context.Background()
	if err := e.Start(ctx, Config{Objective: "test"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Force the engine into Processing and confirm audio is dropped, not
	// queued or acted on, while busy.
	e.setState(Processing)
	if err := e.ProcessAudio(ctx, loudFrame(960)); err != nil {
		t.Fatalf("process audio: %v", err)
	}
	if len(synth.calls) != 0 {
		t.Fatalf("expected no synthesis while busy, got %v", synth.calls)
	}
}

func TestStripMarkersRemovesActionsAndTransferTag(t *testing.T) {
	got := stripMarkers("[TRANSFER] *dials number* Please hold while I connect you.")
	want := "Please hold while I connect you."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestShouldTransferEndsCallAsTransferring(t *testing.T) {
	e, _, _ := newTestEngine("speak to a person", "[TRANSFER] One moment please.")
	ctx := context.Background()
	if err := e.Start(ctx, Config{
		Objective: "test",
		Context: []speechadapt.ContextEntry{
			{Key: "TRANSFER_TO", Value: "17025551234"},
			{Key: "TRANSFER_IF", Value: "they ask for a human"},
		},
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		_ = e.ProcessAudio(ctx, loudFrame(960))
	}
	for i := 0; i < 3; i++ {
		_ = e.ProcessAudio(ctx, silentFrame(960))
	}

	if e.State() != Transferring {
		t.Fatalf("expected Transferring, got %v", e.State())
	}
	result := e.GetResult()
	if result.TransferTo != "17025551234" {
		t.Fatalf("got transfer-to %q", result.TransferTo)
	}
	if !result.Success {
		t.Fatal("expected a transfer to count as success")
	}
}

func TestEmptyTranscriptOnFirstTurnStillGetsAResponse(t *testing.T) {
	e, _, synth := newTestEngine("", "Hello? Can I help you with something?")
	ctx := context.Background()
	if err := e.Start(ctx, Config{Objective: "test"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		_ = e.ProcessAudio(ctx, loudFrame(960))
	}
	for i := 0; i < 3; i++ {
		_ = e.ProcessAudio(ctx, silentFrame(960))
	}

	if len(synth.calls) != 1 {
		t.Fatalf("expected the first empty transcript to still produce a spoken response, got %d calls", len(synth.calls))
	}
	result := e.GetResult()
	if len(result.Transcript) != 1 {
		t.Fatalf("expected only the assistant turn recorded (no empty user turn), got %+v", result.Transcript)
	}
	if result.Transcript[0].Role != "assistant" {
		t.Fatalf("expected an assistant turn, got %+v", result.Transcript[0])
	}
}

func TestEmptyTranscriptAfterFirstTurnIsDropped(t *testing.T) {
	e, _, synth := newTestEngine("", "Hello? Can I help you with something?")
	ctx := context.Background()
	if err := e.Start(ctx, Config{Objective: "test"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	speak := func() {
		for i := 0; i < 3; i++ {
			_ = e.ProcessAudio(ctx, loudFrame(960))
		}
		for i := 0; i < 3; i++ {
			_ = e.ProcessAudio(ctx, silentFrame(960))
		}
	}
	speak()
	speak()

	if len(synth.calls) != 1 {
		t.Fatalf("expected only the first empty transcript to trigger a response, got %d calls", len(synth.calls))
	}
	if e.State() != Listening {
		t.Fatalf("expected the second empty transcript to drop back to Listening, got %v", e.State())
	}
}

func TestGetResultCountsFourTurnsAsSuccessWithoutFarewell(t *testing.T) {
	e, _, _ := newTestEngine("just checking in", "Sounds good, anything else?")
	ctx := context.Background()
	_ = e.Start(ctx, Config{Objective: "test"})

	speak := func() {
		for i := 0; i < 3; i++ {
			_ = e.ProcessAudio(ctx, loudFrame(960))
		}
		for i := 0; i < 3; i++ {
			_ = e.ProcessAudio(ctx, silentFrame(960))
		}
	}
	speak()
	speak()

	result := e.GetResult()
	if e.State() != Listening {
		t.Fatalf("expected still Listening (no farewell), got %v", e.State())
	}
	if len(result.Transcript) != 4 {
		t.Fatalf("expected 4 transcript turns, got %d", len(result.Transcript))
	}
	if !result.Success {
		t.Fatal("expected 4 turns to count as success even without an explicit farewell")
	}
}
