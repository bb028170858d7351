package speechadapt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/scranst/phoneagent/pkg/genx"
)

// ContextEntry is one key/value fact about the caller or business given to
// the model. A slice rather than a map, because llm.py's context_str joins
// a Python dict in insertion order — a Go map would scramble that order on
// every call.
type ContextEntry struct {
	Key   string
	Value string
}

const farewellPhrases = "goodbye, bye, have a great day, have a good day, take care, thank you for your time, thanks for your time"

var endCallPhrases = []string{
	"goodbye", "bye", "have a great day", "have a good day",
	"take care", "thank you for your time", "thanks for your time",
}

const transferMarker = "[TRANSFER]"

// LLMEngine generates conversational responses for a single phone call. It
// carries one objective/system-prompt and a growing history for the life of
// the call, mirroring original_source/llm.py's LLMEngine class.
type LLMEngine struct {
	generator genx.Generator
	model     string

	mu           sync.Mutex
	systemPrompt string
	transferTo   string
	history      []*genx.Message
}

// NewLLMEngine wraps a genx.Generator (an OpenAIGenerator pointed at a
// hosted chat model, in the default deployment) as an LLMEngine.
func NewLLMEngine(generator genx.Generator, model string) *LLMEngine {
	return &LLMEngine{generator: generator, model: model}
}

// SetObjective installs the call's goal and context as a system prompt and
// resets conversation history, same as LLMEngine.set_objective.
func (e *LLMEngine) SetObjective(objective string, ctxEntries []ContextEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var contextStr strings.Builder
	var transferTo, transferIf string
	for _, kv := range ctxEntries {
		fmt.Fprintf(&contextStr, "- %s: %s\n", kv.Key, kv.Value)
		switch kv.Key {
		case "TRANSFER_TO":
			transferTo = kv.Value
		case "TRANSFER_IF":
			transferIf = kv.Value
		}
	}

	var b strings.Builder
	b.WriteString("You are a voice chatbot having a conversation. The other person has just sent you a message.\n\n")
	b.WriteString("YOUR GOAL:\n")
	b.WriteString(objective)
	b.WriteString("\n\nABOUT YOU:\n")
	b.WriteString(strings.TrimRight(contextStr.String(), "\n"))
	b.WriteString("\n\nRULES:\n")
	b.WriteString("- Reply with SHORT responses (1-2 sentences)\n")
	b.WriteString("- Just say words - no asterisks, no actions like *dials* or *waits*\n")
	b.WriteString("- You are trying to accomplish YOUR goal - you need something from them\n")
	b.WriteString("- Do not make up information you don't have\n")
	b.WriteString("- When you are done or the other person says goodbye, end with a farewell (e.g. " + farewellPhrases + ")")
	if transferTo != "" {
		fmt.Fprintf(&b, "\n- If %s, reply with \"%s\" followed by a short message and nothing else", transferIf, transferMarker)
	}

	e.systemPrompt = b.String()
	e.transferTo = transferTo
	e.history = nil
}

// GenerateResponse appends userText to history, asks the model for a reply,
// appends that reply to history, and returns it.
func (e *LLMEngine) GenerateResponse(ctx context.Context, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", nil
	}

	e.mu.Lock()
	e.history = append(e.history, userMessage(userText))
	mctx := e.snapshot()
	e.mu.Unlock()

	text, err := e.generate(ctx, mctx)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.history = append(e.history, modelMessage(text))
	e.mu.Unlock()

	return text, nil
}

// GenerateFirstResponse asks the model for a line with no new user turn
// appended to history, for the one case where a VAD utterance produced no
// transcript on a call's very first turn. Mirrors conversation.py's
// "empty transcript but speech detected" fallback, which calls
// response.create directly without passing any user text alongside it.
func (e *LLMEngine) GenerateFirstResponse(ctx context.Context) (string, error) {
	e.mu.Lock()
	mctx := e.snapshot()
	e.mu.Unlock()

	text, err := e.generate(ctx, mctx)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.history = append(e.history, modelMessage(text))
	e.mu.Unlock()

	return text, nil
}

// GetInitialGreeting seeds history with a user="Hello?" turn and returns the
// model's reply, used as the outbound call's opening line.
func (e *LLMEngine) GetInitialGreeting(ctx context.Context) (string, error) {
	e.mu.Lock()
	e.history = []*genx.Message{userMessage("Hello?")}
	mctx := e.snapshot()
	e.mu.Unlock()

	text, err := e.generate(ctx, mctx)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.history = append(e.history, modelMessage(text))
	e.mu.Unlock()

	return text, nil
}

func (e *LLMEngine) generate(ctx context.Context, mctx genx.ModelContext) (string, error) {
	stream, err := e.generator.GenerateStream(ctx, e.model, mctx)
	if err != nil {
		return "", fmt.Errorf("speechadapt: llm: %w", err)
	}
	defer stream.Close()

	var text strings.Builder
	for {
		chunk, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, genx.ErrDone) {
				break
			}
			return "", fmt.Errorf("speechadapt: llm stream: %w", err)
		}
		if chunk == nil {
			continue
		}
		if t, ok := chunk.Part.(genx.Text); ok {
			text.WriteString(string(t))
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// ShouldEndCall reports whether text ends the conversation on a farewell.
func (e *LLMEngine) ShouldEndCall(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range endCallPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ShouldTransfer reports whether text carries the transfer marker.
func (e *LLMEngine) ShouldTransfer(text string) bool {
	return strings.Contains(text, transferMarker)
}

// TransferNumber returns the number set via the TRANSFER_TO context entry.
func (e *LLMEngine) TransferNumber() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transferTo
}

func (e *LLMEngine) snapshot() genx.ModelContext {
	return &chatContext{systemPrompt: e.systemPrompt, history: append([]*genx.Message(nil), e.history...)}
}

func userMessage(text string) *genx.Message {
	return &genx.Message{Role: genx.RoleUser, Payload: genx.Contents{genx.Text(text)}}
}

func modelMessage(text string) *genx.Message {
	return &genx.Message{Role: genx.RoleModel, Payload: genx.Contents{genx.Text(text)}}
}

// chatContext is the minimal genx.ModelContext our conversation history
// needs: a single system prompt plus a flat message history, no tools (a
// phone call's LLMEngine never calls tools; smsrouter.Router is the one
// caller that needs a ModelContext with tools wired in).
type chatContext struct {
	systemPrompt string
	history      []*genx.Message
	params       *genx.ModelParams
}

func (c *chatContext) Prompts() iter.Seq[*genx.Prompt] {
	return func(yield func(*genx.Prompt) bool) {
		if c.systemPrompt == "" {
			return
		}
		yield(&genx.Prompt{Name: "system", Text: c.systemPrompt})
	}
}

func (c *chatContext) Messages() iter.Seq[*genx.Message] {
	return func(yield func(*genx.Message) bool) {
		for _, m := range c.history {
			if !yield(m) {
				return
			}
		}
	}
}

func (c *chatContext) CoTs() iter.Seq[string] {
	return func(func(string) bool) {}
}

func (c *chatContext) Tools() iter.Seq[genx.Tool] {
	return func(func(genx.Tool) bool) {}
}

func (c *chatContext) Params() *genx.ModelParams {
	if c.params == nil {
		return &genx.ModelParams{MaxTokens: 150}
	}
	return c.params
}
