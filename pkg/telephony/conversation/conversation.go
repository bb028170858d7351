package conversation

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/scranst/phoneagent/pkg/telephony/audiorouter"
	"github.com/scranst/phoneagent/pkg/telephony/resampler"
	"github.com/scranst/phoneagent/pkg/telephony/speechadapt"
	"github.com/scranst/phoneagent/pkg/telephony/vad"
)

// actionMarkerRe strips stage directions like *dials* or *waits* that the
// model sometimes emits despite being told not to, same as
// conversation_local.py's re.sub(r'\*[^*]+\*', '', text).
var actionMarkerRe = regexp.MustCompile(`\*[^*]+\*`)

// minUtteranceRMS gates out VAD-detected "speech" that's really just line
// noise or a cough — the distilled source's RMS >= 3000 (on a 16-bit scale)
// threshold before an utterance is worth transcribing.
const minUtteranceRMS = 3000.0

// Config starts a conversation with a goal and the facts the model is
// allowed to know about, mirroring LocalConversationEngine's constructor
// arguments in conversation_local.py.
type Config struct {
	Objective   string
	Context     []speechadapt.ContextEntry
	Language    string
	MaxDuration time.Duration
	GreetFirst  bool // true for outbound calls: speak an opening line before listening
	// Greeting, when set alongside GreetFirst, is spoken verbatim instead of
	// asking the LLM for an opening line — used for inbound calls, whose
	// greeting is pre-synthesized once per persona rather than generated
	// fresh on every incoming ring.
	Greeting string
}

// StateChangeFunc is called whenever the engine's State transitions.
type StateChangeFunc func(State)

// TranscriptFunc is called with each new transcript turn as it's produced.
type TranscriptFunc func(Turn)

// AudioSink is the playback half of a call's audio router that the engine
// needs: write the reply out, then drop whatever the router queued up on
// the input side while we were talking. *audiorouter.Router satisfies this.
type AudioSink interface {
	WriteAudio(samples []int16) error
	DrainInput()
}

// Engine drives one call's turn-taking loop: VAD segments caller audio into
// utterances, each utterance goes through STT -> LLM -> TTS, and the reply
// is played back over the call's audio router. Adapted from
// original_source/conversation_local.py's LocalConversationEngine.
type Engine struct {
	vad    *vad.Detector
	stt    speechadapt.Transcriber
	tts    speechadapt.Synthesizer
	llm    *speechadapt.LLMEngine
	router AudioSink

	vadRateHz    int
	nativeRateHz int
	language     string
	maxDuration  time.Duration

	onStateChange StateChangeFunc
	onTranscript  TranscriptFunc

	mu                sync.Mutex
	state             State
	transcript        []Turn
	transferTo        string
	finishReason      string
	startedAt         time.Time
	firstTurnConsumed bool
}

// New builds an Engine around an already-open call's audio router and the
// speech/LLM adapters it should use. vadRateHz must match the rate the
// Transcriber was configured for (16000 in the default wiring).
func New(router AudioSink, stt speechadapt.Transcriber, tts speechadapt.Synthesizer, llm *speechadapt.LLMEngine, vadCfg vad.Config) *Engine {
	return &Engine{
		vad:          vad.New(vadCfg, nil),
		stt:          stt,
		tts:          tts,
		llm:          llm,
		router:       router,
		vadRateHz:    vadCfg.SampleRateHz,
		nativeRateHz: audiorouter.NativeSampleRate,
		state:        Idle,
	}
}

// OnStateChange registers a callback fired on every state transition.
func (e *Engine) OnStateChange(fn StateChangeFunc) { e.onStateChange = fn }

// OnTranscript registers a callback fired whenever a new transcript turn is recorded.
func (e *Engine) OnTranscript(fn TranscriptFunc) { e.onTranscript = fn }

// Start installs the call's objective on the LLM, resets engine state, and
// (for outbound calls) speaks the model's opening line before listening.
func (e *Engine) Start(ctx context.Context, cfg Config) error {
	e.llm.SetObjective(cfg.Objective, cfg.Context)

	e.mu.Lock()
	e.state = Idle
	e.transcript = nil
	e.transferTo = ""
	e.startedAt = time.Now()
	e.language = cfg.Language
	if e.language == "" {
		e.language = "en"
	}
	e.maxDuration = cfg.MaxDuration
	e.firstTurnConsumed = false
	e.mu.Unlock()

	e.setState(Listening)

	if cfg.GreetFirst {
		greeting := cfg.Greeting
		if greeting == "" {
			var err error
			greeting, err = e.llm.GetInitialGreeting(ctx)
			if err != nil {
				return fmt.Errorf("conversation: initial greeting: %w", err)
			}
		}
		e.recordTurn(Turn{Role: "assistant", Text: greeting})
		if err := e.speak(ctx, greeting); err != nil {
			return fmt.Errorf("conversation: speaking greeting: %w", err)
		}
		e.setState(Listening)
	}

	return nil
}

// ProcessAudio feeds one chunk of caller audio, at the router's native
// sample rate, into the VAD. When a complete utterance is detected it is
// transcribed, answered, and spoken — all synchronously, so callers should
// invoke this from their own capture loop rather than expecting it to
// return immediately during an utterance.
func (e *Engine) ProcessAudio(ctx context.Context, samples []int16) error {
	if e.Finished() {
		return nil
	}

	if e.maxDurationExceeded() {
		e.finish(Failed, "call exceeded maximum duration")
		return nil
	}

	if e.State() != Listening {
		// Busy processing or speaking; caller audio is ignored (it's our own
		// echo, suppressed upstream by router.Speaking(), or simply audio
		// that arrived mid-turn).
		return nil
	}

	vadSamples := samples
	if e.vadRateHz != e.nativeRateHz {
		out, err := resampler.Convert(samples, e.nativeRateHz, e.vadRateHz)
		if err != nil {
			return fmt.Errorf("conversation: resample for vad: %w", err)
		}
		vadSamples = out
	}

	event, utterance := e.vad.Process(vadSamples)
	if event != vad.SpeechEnded {
		return nil
	}

	if rms(utterance) < minUtteranceRMS {
		return nil
	}

	return e.processUtterance(ctx, utterance)
}

func (e *Engine) processUtterance(ctx context.Context, utterance []int16) error {
	e.setState(Processing)

	text, err := e.stt.Transcribe(ctx, utterance, e.vadRateHz, e.language)
	if err != nil {
		e.finish(Failed, "transcription failed: "+err.Error())
		return fmt.Errorf("conversation: transcribe: %w", err)
	}
	text = strings.TrimSpace(text)

	e.mu.Lock()
	isFirstTurn := !e.firstTurnConsumed
	e.firstTurnConsumed = true
	e.mu.Unlock()

	if text == "" && !isFirstTurn {
		e.setState(Listening)
		return nil
	}
	if text != "" {
		e.recordTurn(Turn{Role: "user", Text: text})
	}

	var response string
	if text == "" {
		response, err = e.llm.GenerateFirstResponse(ctx)
	} else {
		response, err = e.llm.GenerateResponse(ctx, text)
	}
	if err != nil {
		e.finish(Failed, "response generation failed: "+err.Error())
		return fmt.Errorf("conversation: generate response: %w", err)
	}

	transferRequested := e.llm.ShouldTransfer(response)
	endRequested := e.llm.ShouldEndCall(response)
	spoken := stripMarkers(response)

	e.recordTurn(Turn{Role: "assistant", Text: spoken})

	if err := e.speak(ctx, spoken); err != nil {
		e.finish(Failed, "speech synthesis failed: "+err.Error())
		return fmt.Errorf("conversation: speak: %w", err)
	}

	switch {
	case transferRequested:
		e.mu.Lock()
		e.transferTo = e.llm.TransferNumber()
		e.mu.Unlock()
		e.finish(Transferring, "caller asked to be transferred")
	case endRequested:
		e.finish(Completed, "call ended with a farewell")
	default:
		e.setState(Listening)
	}
	return nil
}

// speak synthesizes and plays text, then drains whatever input the router
// queued up while we were talking so our own echo isn't mistaken for the
// next utterance.
func (e *Engine) speak(ctx context.Context, text string) error {
	e.setState(Speaking)
	samples, rate, err := e.tts.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	if rate != e.nativeRateHz {
		samples, err = resampler.Convert(samples, rate, e.nativeRateHz)
		if err != nil {
			return fmt.Errorf("resample tts output to router rate: %w", err)
		}
	}
	if err := e.router.WriteAudio(samples); err != nil {
		return err
	}
	e.router.DrainInput()
	return nil
}

// SetSpeaking is a manual override for callers driving playback themselves
// (e.g. a pre-recorded prompt) rather than through speak, mirroring
// conversation_local.py's set_speaking echo-suppression toggle.
func (e *Engine) SetSpeaking(speaking bool) {
	if speaking {
		e.setState(Speaking)
	} else if e.State() == Speaking {
		e.setState(Listening)
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Finished reports whether the conversation has reached a terminal state.
func (e *Engine) Finished() bool {
	switch e.State() {
	case Completed, Failed, Transferring:
		return true
	default:
		return false
	}
}

// GetResult summarizes the finished (or in-progress) conversation. A call
// counts as successful if it reached a terminal completed/transferring
// state, or — same threshold as get_result's len(transcript) >= 4 — if at
// least two full user/assistant exchanges happened even without an explicit
// farewell.
func (e *Engine) GetResult() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	success := e.state == Completed || e.state == Transferring || len(e.transcript) >= 4
	summary := e.finishReason
	if summary == "" {
		summary = summarize(e.transcript)
	}
	return Result{
		Success:    success,
		Summary:    summary,
		Transcript: append([]Turn(nil), e.transcript...),
		Duration:   time.Since(e.startedAt).Seconds(),
		TransferTo: e.transferTo,
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	if e.onStateChange != nil {
		e.onStateChange(s)
	}
}

func (e *Engine) finish(s State, reason string) {
	e.mu.Lock()
	e.finishReason = reason
	e.mu.Unlock()
	e.setState(s)
}

func (e *Engine) recordTurn(t Turn) {
	e.mu.Lock()
	e.transcript = append(e.transcript, t)
	e.mu.Unlock()
	if e.onTranscript != nil {
		e.onTranscript(t)
	}
}

func (e *Engine) maxDurationExceeded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.maxDuration <= 0 {
		return false
	}
	return time.Since(e.startedAt) > e.maxDuration
}

func stripMarkers(text string) string {
	text = strings.ReplaceAll(text, transferMarkerLiteral, "")
	text = actionMarkerRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

const transferMarkerLiteral = "[TRANSFER]"

func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	n := float64(len(samples))
	return math.Sqrt(sum / n)
}

func summarize(transcript []Turn) string {
	if len(transcript) == 0 {
		return "No conversation took place."
	}
	var last string
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == "assistant" {
			last = transcript[i].Text
			break
		}
	}
	if last == "" {
		return fmt.Sprintf("%d turn(s) exchanged.", len(transcript))
	}
	return last
}
