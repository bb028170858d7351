// Package smsrouter classifies inbound SMS by sender, dispatches to the
// owner's reasoning-tier personal-assistant agent or a fast-tier
// receptionist agent, executes tool calls, and exposes a queue of calls the
// personal assistant wants placed. Adapted from
// original_source/sms_ai.py's SMSAIHandler.
package smsrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/scranst/phoneagent/pkg/genx"
	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
	"github.com/scranst/phoneagent/pkg/telephony/phonenumber"
	"github.com/scranst/phoneagent/pkg/telephony/settings"
)

// maxToolRounds bounds the tool-calling loop so a misbehaving model can't
// spin forever; sms_ai.py's _handle_llm_response recurses unbounded, which
// this caps defensively.
const maxToolRounds = 6

// maxReplyChars is the outbound SMS length cap applied to every agent's
// final reply, matching sms_ai.py's response.content[0].text.strip()[:300].
const maxReplyChars = 300

// Config wires a Router to its generator, models, stores, and external
// action callbacks.
type Config struct {
	Generator      genx.Generator
	ReasoningModel string // owner's personal-assistant model
	FastModel      string // receptionist model

	OwnerPhone string
	Leads      leadstore.Store
	Settings   *settings.Settings

	SendSMS        SendSMSFunc
	SearchWeb      WebSearchFunc      // optional
	MovieShowtimes MovieShowtimesFunc // optional
}

// Router dispatches inbound SMS to the correct agent persona and executes
// whatever tools that persona calls.
type Router struct {
	generator      genx.Generator
	reasoningModel string
	fastModel      string

	owner    phonenumber.Number
	leads    leadstore.Store
	settings *settings.Settings

	sendSMS        SendSMSFunc
	searchWeb      WebSearchFunc
	movieShowtimes MovieShowtimesFunc

	pending  *pendingCallQueue
	commands *commandHandler
}

// New builds a Router from cfg.
func New(cfg Config) *Router {
	r := &Router{
		generator:      cfg.Generator,
		reasoningModel: cfg.ReasoningModel,
		fastModel:      cfg.FastModel,
		owner:          phonenumber.Normalize(cfg.OwnerPhone),
		leads:          cfg.Leads,
		settings:       cfg.Settings,
		sendSMS:        cfg.SendSMS,
		searchWeb:      cfg.SearchWeb,
		movieShowtimes: cfg.MovieShowtimes,
		pending:        &pendingCallQueue{},
	}
	r.commands = newCommandHandler(r)
	return r
}

// GetPendingCall pops the oldest queued call job, if any, for the outer
// scheduler to place.
func (r *Router) GetPendingCall() (PendingCall, bool) { return r.pending.GetPendingCall() }

// HasPendingCalls reports whether a call job is waiting to be placed.
func (r *Router) HasPendingCalls() bool { return r.pending.HasPendingCalls() }

// IsOwner reports whether sender normalizes to the configured owner phone.
func (r *Router) IsOwner(sender string) bool {
	return phonenumber.Normalize(sender) == r.owner
}

// ProcessMessage is the SMS router's entry point: normalize the sender,
// pick a persona, run it, and return the text to send back (empty string
// means no reply).
func (r *Router) ProcessMessage(ctx context.Context, sender, body string) (string, error) {
	r.logInbound(ctx, sender, body)

	if r.IsOwner(sender) {
		// The command grammar is a cheaper, deterministic fast path; a
		// literal or natural-language match wins over the AI tool-calling
		// path without invoking it at all.
		if reply, handled := r.commands.Try(ctx, body); handled {
			return reply, nil
		}
		return r.respondAsPersonalAssistant(ctx, sender, body)
	}

	if r.leads != nil && r.leads.IsAutopilotDisabled(ctx, sender) {
		return "", nil
	}
	return r.respondAsReceptionist(ctx, sender, body)
}

func (r *Router) logInbound(ctx context.Context, sender, body string) {
	if r.leads == nil {
		return
	}
	r.leads.AppendMessage(ctx, leadstore.Message{
		Channel: "sms", Direction: "inbound",
		From: sender, To: r.callbackNumber(),
		Body: body, CreatedAt: timeNow(), Status: "received",
	})
}

func (r *Router) callbackNumber() string {
	if r.settings == nil {
		return ""
	}
	return r.settings.CallbackNumber
}

func (r *Router) history(ctx context.Context, sender string) []leadstore.Message {
	if r.leads == nil {
		return nil
	}
	return r.leads.RecentMessages(ctx, sender, maxHistoryMessages)
}

// respondAsPersonalAssistant runs the owner's reasoning-tier agent with the
// full tool set, looping on tool calls until a plain-text reply emerges.
func (r *Router) respondAsPersonalAssistant(ctx context.Context, sender, body string) (string, error) {
	systemPrompt := r.personalAssistantPrompt() + "\n" + formatHistory(r.history(ctx, sender))
	reply, err := r.runToolLoop(ctx, r.reasoningModel, systemPrompt, body, r.personalAssistantTools())
	if err != nil {
		return fmt.Sprintf("Error: %s", truncate(err.Error(), 100)), nil
	}
	return reply, nil
}

// respondAsReceptionist runs the fast-tier agent with no tools: one call in,
// one short reply out, matching sms_ai.py's _process_other_user_message.
func (r *Router) respondAsReceptionist(ctx context.Context, sender, body string) (string, error) {
	var lead *leadstore.Lead
	if r.leads != nil {
		if found, ok := r.leads.GetLead(ctx, sender); ok {
			lead = &found
		}
	}
	systemPrompt := r.receptionistPrompt(lead) + "\n" + formatHistory(r.history(ctx, sender))
	userText := fmt.Sprintf("They just sent: %q", body)

	reply, err := r.runToolLoop(ctx, r.fastModel, systemPrompt, userText, nil)
	if err != nil {
		return "", nil
	}
	return reply, nil
}

// runToolLoop drives one agent's turn: send userText with systemPrompt and
// tools, execute any tool_use blocks and feed tool_result back, and repeat
// until the model responds with plain text (or maxToolRounds is hit).
// Mirrors sms_ai.py's _handle_llm_response recursion as an explicit loop.
func (r *Router) runToolLoop(ctx context.Context, model, systemPrompt, userText string, tools []*genx.FuncTool) (string, error) {
	toolsByName := make(map[string]*genx.FuncTool, len(tools))
	genxTools := make([]genx.Tool, len(tools))
	for i, t := range tools {
		toolsByName[t.Name] = t
		genxTools[i] = t
	}

	history := []*genx.Message{{Role: genx.RoleUser, Payload: genx.Contents{genx.Text(userText)}}}

	for round := 0; round < maxToolRounds; round++ {
		mctx := &toolLoopContext{systemPrompt: systemPrompt, history: history, tools: genxTools}
		stream, err := r.generator.GenerateStream(ctx, model, mctx)
		if err != nil {
			return "", fmt.Errorf("smsrouter: generate: %w", err)
		}
		text, calls, err := drainStream(stream)
		stream.Close()
		if err != nil {
			return "", fmt.Errorf("smsrouter: stream: %w", err)
		}

		if len(calls) == 0 {
			return truncate(strings.TrimSpace(text), maxReplyChars), nil
		}

		if text != "" {
			history = append(history, &genx.Message{Role: genx.RoleModel, Payload: genx.Contents{genx.Text(text)}})
		}
		for _, call := range calls {
			history = append(history, &genx.Message{Role: genx.RoleModel, Payload: call})
			history = append(history, &genx.Message{Role: genx.RoleTool, Payload: &genx.ToolResult{
				ID:     call.ID,
				Result: r.invokeTool(ctx, toolsByName, call),
			}})
		}
	}
	return "Done, but hit the tool-call limit.", nil
}

func (r *Router) invokeTool(ctx context.Context, toolsByName map[string]*genx.FuncTool, call *genx.ToolCall) string {
	if call.FuncCall == nil {
		return `{"error":"malformed tool call"}`
	}
	tool, ok := toolsByName[call.FuncCall.Name]
	if !ok {
		return fmt.Sprintf(`{"error":"unknown tool: %s"}`, call.FuncCall.Name)
	}
	result, err := tool.NewFuncCall(call.FuncCall.Arguments).Invoke(ctx)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	encoded, err := encodeToolResult(result)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return encoded
}

// drainStream reads a generation to completion, concatenating text chunks
// and collecting tool calls in order, same shape as speechadapt.LLMEngine's
// generate helper plus tool-call accumulation.
func drainStream(stream genx.Stream) (string, []*genx.ToolCall, error) {
	var text strings.Builder
	var calls []*genx.ToolCall
	for {
		chunk, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, genx.ErrDone) {
				break
			}
			return "", nil, err
		}
		if chunk == nil {
			continue
		}
		if chunk.ToolCall != nil {
			calls = append(calls, chunk.ToolCall)
			continue
		}
		if t, ok := chunk.Part.(genx.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), calls, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// toolLoopContext is the genx.ModelContext for one tool-calling round: a
// system prompt, the accumulated history, and the persona's tool set.
type toolLoopContext struct {
	systemPrompt string
	history      []*genx.Message
	tools        []genx.Tool
}

func (c *toolLoopContext) Prompts() iter.Seq[*genx.Prompt] {
	return func(yield func(*genx.Prompt) bool) {
		if c.systemPrompt == "" {
			return
		}
		yield(&genx.Prompt{Name: "system", Text: c.systemPrompt})
	}
}

func (c *toolLoopContext) Messages() iter.Seq[*genx.Message] {
	return func(yield func(*genx.Message) bool) {
		for _, m := range c.history {
			if !yield(m) {
				return
			}
		}
	}
}

func (c *toolLoopContext) CoTs() iter.Seq[string] { return func(func(string) bool) {} }

func (c *toolLoopContext) Tools() iter.Seq[genx.Tool] {
	return func(yield func(genx.Tool) bool) {
		for _, t := range c.tools {
			if !yield(t) {
				return
			}
		}
	}
}

func (c *toolLoopContext) Params() *genx.ModelParams {
	return &genx.ModelParams{MaxTokens: 1000}
}
