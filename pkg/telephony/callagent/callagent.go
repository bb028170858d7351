// Package callagent binds the modem (C5), audio router (C4), and
// conversation engine (C7) into one call's full lifecycle: dial or answer,
// run the conversation loop, clean up in a fixed order, and persist a call
// log record. Adapted from original_source/agent.py's PhoneAgent.
package callagent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scranst/phoneagent/pkg/audio/portaudio"
	"github.com/scranst/phoneagent/pkg/storage"
	"github.com/scranst/phoneagent/pkg/telephony/audiorouter"
	"github.com/scranst/phoneagent/pkg/telephony/calllog"
	"github.com/scranst/phoneagent/pkg/telephony/conversation"
	"github.com/scranst/phoneagent/pkg/telephony/knowledge"
	"github.com/scranst/phoneagent/pkg/telephony/modem"
	"github.com/scranst/phoneagent/pkg/telephony/speechadapt"
	"github.com/scranst/phoneagent/pkg/telephony/vad"
)

// audioPollInterval is how often the pump loop checks for new router input
// when none was immediately available, same cadence as _process_audio's
// asyncio.sleep(0.01).
const audioPollInterval = 10 * time.Millisecond

// callConnectTimeout bounds how long Call waits for the far end to pick up,
// matching _wait_for_call_connect's 60s timeout.
const callConnectTimeout = 60 * time.Second

// Request describes an outbound call to place.
type Request struct {
	Phone     string
	Objective string
	Context   []speechadapt.ContextEntry
}

// InboundPersona configures how an answered inbound call is run: the
// objective/context to hand the LLM and an optional pre-synthesized
// greeting spoken immediately on answer (skipping a model round trip).
type InboundPersona struct {
	Objective string
	Context   []speechadapt.ContextEntry
	Greeting  string
}

// LeadLookup optionally enriches an inbound call's context with a caller's
// known lead record before the conversation starts.
type LeadLookup interface {
	LookupByPhone(phone string) (extraContext []speechadapt.ContextEntry, found bool)
}

// Result is the outcome of one call, matching agent.py's CallResult plus
// Direction for the log record.
type Result struct {
	Success         bool
	Summary         string
	Transcript      []conversation.Turn
	RecordingPath   string
	DurationSeconds float64
	Phone           string
	Objective       string
	Direction       string
	TransferTo      string
}

// StateChangeFunc is called with (kind, value) — kind is "call" or
// "conversation" — on every state transition of either component.
type StateChangeFunc func(kind, value string)

// TranscriptFunc is called with each new transcript line as it's produced.
type TranscriptFunc func(role, text string)

// Agent owns the long-lived pieces shared across calls (the modem
// connection and the speech/LLM adapters) and drives one call at a time
// through Call or HandleInbound.
type Agent struct {
	modem           *modem.Modem
	inputDevice     string
	outputDevice    string
	stt             speechadapt.Transcriber
	tts             speechadapt.Synthesizer
	llm             *speechadapt.LLMEngine
	vadCfg          vad.Config
	logs            *calllog.Store
	recordings      storage.FileStore
	maxCallDuration time.Duration
	engineName      string
	knowledge       knowledge.Retriever

	logger *slog.Logger

	onStateChange StateChangeFunc
	onTranscript  TranscriptFunc
}

// SetKnowledge installs a knowledge.Retriever consulted on every call's
// objective before the conversation starts; nil (the default) means no
// knowledge-base context is added.
func (a *Agent) SetKnowledge(r knowledge.Retriever) { a.knowledge = r }

// New builds an Agent. inputDevice/outputDevice name the host audio
// devices the router should bind to (the modem's USB audio endpoint, or
// BlackHole-style loopback names on the teacher's original macOS target);
// either may be empty to use the system default. recordings may be nil to
// skip saving call audio.
func New(m *modem.Modem, inputDevice, outputDevice string, stt speechadapt.Transcriber, tts speechadapt.Synthesizer, llm *speechadapt.LLMEngine, vadCfg vad.Config, logs *calllog.Store, recordings storage.FileStore, maxCallDuration time.Duration, engineName string, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		modem:           m,
		inputDevice:     inputDevice,
		outputDevice:    outputDevice,
		stt:             stt,
		tts:             tts,
		llm:             llm,
		vadCfg:          vadCfg,
		logs:            logs,
		recordings:      recordings,
		maxCallDuration: maxCallDuration,
		engineName:      engineName,
		logger:          logger,
	}
}

// OnStateChange registers a callback for call/conversation state transitions.
func (a *Agent) OnStateChange(fn StateChangeFunc) { a.onStateChange = fn }

// OnTranscript registers a callback for new transcript lines.
func (a *Agent) OnTranscript(fn TranscriptFunc) { a.onTranscript = fn }

// Call places an outbound call and runs it to completion.
func (a *Agent) Call(ctx context.Context, req Request) (Result, error) {
	return a.run(ctx, req.Phone, "outgoing", req.Objective, req.Context, false, "", func() bool {
		return a.modem.Dial(req.Phone)
	})
}

// HandleInbound waits for the modem to report an incoming call, answers
// it, optionally enriches the persona's context via lookup, and runs the
// call to completion. Returns ok=false if no call arrived before ctx is
// done.
func (a *Agent) HandleInbound(ctx context.Context, persona InboundPersona, lookup LeadLookup) (Result, bool, error) {
	phone, gotCall := a.modem.WaitForIncomingCall(ctx)
	if !gotCall {
		return Result{}, false, nil
	}

	ctxEntries := persona.Context
	if lookup != nil {
		if extra, found := lookup.LookupByPhone(phone); found {
			ctxEntries = append(append([]speechadapt.ContextEntry(nil), ctxEntries...), extra...)
		}
	}

	result, err := a.run(ctx, phone, "incoming", persona.Objective, ctxEntries, true, persona.Greeting, func() bool {
		return a.modem.Answer()
	})
	return result, true, err
}

func (a *Agent) run(ctx context.Context, phone, direction, objective string, ctxEntries []speechadapt.ContextEntry, greetFirst bool, greeting string, connect func() bool) (Result, error) {
	start := time.Now()
	prevInput, prevOutput := a.snapshotAudioDevices()

	router, err := audiorouter.Start(a.inputDevice, a.outputDevice)
	if err != nil {
		return a.failureResult(phone, direction, objective, start, fmt.Errorf("callagent: start audio router: %w", err)), err
	}
	router.StartRecording()

	engine := conversation.New(router, a.stt, a.tts, a.llm, a.vadCfg)
	engine.OnStateChange(func(s conversation.State) { a.notifyState("conversation", s.String()) })
	engine.OnTranscript(func(t conversation.Turn) { a.notifyTranscript(t.Role, t.Text) })

	var callErr error
	var recordingPath string

	func() {
		defer func() {
			// Cleanup order per SPEC_FULL.md §4.8/§7: hang up, stop recording,
			// disconnect LLM (nothing to disconnect in this synchronous adapter,
			// but the step is named for parity with the original teardown),
			// stop audio, restore devices.
			a.modem.Hangup()
			recordingPath = a.saveRecording(ctx, router.StopRecording(), start)
			router.Stop()
			a.restoreAudioDevices(prevInput, prevOutput)
		}()

		a.modem.OnStateChange(func(s modem.CallState) { a.notifyState("call", s.String()) })

		if !connect() {
			callErr = fmt.Errorf("callagent: failed to connect call to %s", phone)
			return
		}

		if direction == "outgoing" {
			if err := a.waitForConnect(ctx, router); err != nil {
				callErr = err
				return
			}
		}

		if a.knowledge != nil {
			if text := a.knowledge.Retrieve(objective, knowledge.DefaultCharBudget); text != "" {
				ctxEntries = append(append([]speechadapt.ContextEntry(nil), ctxEntries...),
					speechadapt.ContextEntry{Key: "RELEVANT KNOWLEDGE", Value: text})
			}
		}

		if err := engine.Start(ctx, conversation.Config{
			Objective:   objective,
			Context:     ctxEntries,
			MaxDuration: a.maxCallDuration,
			GreetFirst:  greetFirst,
			Greeting:    greeting,
		}); err != nil {
			callErr = fmt.Errorf("callagent: start conversation: %w", err)
			return
		}

		a.pumpAudio(ctx, router, engine)
	}()

	if callErr != nil {
		return a.failureResult(phone, direction, objective, start, callErr), callErr
	}

	result := engine.GetResult()
	res := Result{
		Success:         result.Success,
		Summary:         result.Summary,
		Transcript:      result.Transcript,
		RecordingPath:   recordingPath,
		DurationSeconds: time.Since(start).Seconds(),
		Phone:           phone,
		Objective:       objective,
		Direction:       direction,
		TransferTo:      result.TransferTo,
	}
	a.saveLog(ctx, res, ctxEntries)
	return res, nil
}

func (a *Agent) pumpAudio(ctx context.Context, router *audiorouter.Router, engine *conversation.Engine) {
	for {
		if engine.Finished() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if info := a.modem.GetCallInfo(); info != nil && info.State.IsTerminal() {
			return
		}

		samples := router.ReadAudio()
		if samples == nil {
			time.Sleep(audioPollInterval)
			continue
		}
		if err := engine.ProcessAudio(ctx, samples); err != nil {
			a.logger.Error("conversation processing error", "error", err)
			return
		}
	}
}

// waitForConnect blocks until CLCC polling (the modem's monitor loop) reports
// the call as connected, that being the only authoritative state transition.
// While waiting it feeds the router's outbound-call audio through the
// modem's ringback detector and logs its advisory "likely answered" hint,
// which never substitutes for the CLCC-driven transition itself.
func (a *Agent) waitForConnect(ctx context.Context, router *audiorouter.Router) error {
	deadline := time.Now().Add(callConnectTimeout)
	hint := a.modem.AnsweredHint()
	hintLogged := false

	for {
		info := a.modem.GetCallInfo()
		if info != nil && info.State == modem.CallConnected {
			return nil
		}
		if info != nil && (info.State == modem.CallFailed || info.State == modem.CallEnded) {
			return fmt.Errorf("callagent: call failed or ended before connecting")
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("callagent: timed out waiting for call to connect")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if samples := router.ReadAudio(); samples != nil {
			a.modem.FeedCallAudio(samples, audiorouter.NativeSampleRate)
		} else {
			time.Sleep(audioPollInterval)
		}

		select {
		case <-hint:
			if !hintLogged {
				hintLogged = true
				a.logger.Debug("ringback detector suggests the call was answered, awaiting CLCC confirmation")
			}
		default:
		}
	}
}

func (a *Agent) failureResult(phone, direction, objective string, start time.Time, err error) Result {
	return Result{
		Success:         false,
		Summary:         "Call failed: " + err.Error(),
		Phone:           phone,
		Objective:       objective,
		Direction:       direction,
		DurationSeconds: time.Since(start).Seconds(),
	}
}

func (a *Agent) saveRecording(ctx context.Context, wav []byte, start time.Time) string {
	if len(wav) == 0 || a.recordings == nil {
		return ""
	}
	path := fmt.Sprintf("call_%s.wav", start.Format("20060102_150405"))
	w, err := a.recordings.Write(ctx, path)
	if err != nil {
		a.logger.Error("failed to open recording for writing", "path", path, "error", err)
		return ""
	}
	defer w.Close()
	if _, err := w.Write(wav); err != nil {
		a.logger.Error("failed to write recording", "path", path, "error", err)
		return ""
	}
	return path
}

func (a *Agent) saveLog(ctx context.Context, res Result, ctxEntries []speechadapt.ContextEntry) {
	if a.logs == nil {
		return
	}
	contextMap := make(map[string]string, len(ctxEntries))
	for _, e := range ctxEntries {
		contextMap[e.Key] = e.Value
	}
	transcript := make([]calllog.TranscriptTurn, len(res.Transcript))
	for i, t := range res.Transcript {
		transcript[i] = calllog.TranscriptTurn{Role: t.Role, Text: t.Text}
	}
	record := calllog.Record{
		Timestamp:     time.Now(),
		Phone:         res.Phone,
		Direction:     res.Direction,
		Objective:     res.Objective,
		Context:       contextMap,
		Success:       res.Success,
		Summary:       res.Summary,
		Transcript:    transcript,
		RecordingPath: res.RecordingPath,
		DurationSecs:  res.DurationSeconds,
		Engine:        a.engineName,
	}
	if _, err := a.logs.Save(ctx, record); err != nil {
		a.logger.Error("failed to save call log", "error", err)
	}
}

// snapshotAudioDevices records the host's current default input/output
// devices before the router claims specific ones for the call, so they can
// be restored afterward. Per SPEC_FULL.md §4.8 this bookkeeping is
// best-effort: failures are logged and never fail the call.
func (a *Agent) snapshotAudioDevices() (input, output string) {
	if in, err := portaudio.DefaultInputDevice(); err != nil {
		a.logger.Warn("could not read default input device", "error", err)
	} else {
		input = in.Name
	}
	if out, err := portaudio.DefaultOutputDevice(); err != nil {
		a.logger.Warn("could not read default output device", "error", err)
	} else {
		output = out.Name
	}
	return input, output
}

// restoreAudioDevices is a best-effort no-op beyond logging: PortAudio has
// no API to change the host OS's system-default device (the original relied
// on the external SwitchAudioSource tool for that); here the router always
// binds explicit device names for the call, so there is nothing to actually
// switch back, only the prior names to record for diagnostics.
func (a *Agent) restoreAudioDevices(input, output string) {
	if input != "" {
		a.logger.Info("call finished, prior default input device was", "device", input)
	}
	if output != "" {
		a.logger.Info("call finished, prior default output device was", "device", output)
	}
}

func (a *Agent) notifyState(kind, value string) {
	if a.onStateChange != nil {
		a.onStateChange(kind, value)
	}
}

func (a *Agent) notifyTranscript(role, text string) {
	if a.onTranscript != nil {
		a.onTranscript(role, text)
	}
}
