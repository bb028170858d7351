// Package genx defines the model-agnostic chat-generation contract the call
// agent drives: a Generator turns a ModelContext (system prompt, transcript,
// tool set) into either a Stream of chunks or a single tool invocation, with
// one concrete backend (OpenAIGenerator, see openai.go) behind the interface.
package genx

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"

	_ "embed"
)

var (
	//go:embed inspect_model_context.gotmpl
	debugDumpTplSource string

	debugDumpTpl = template.Must(
		template.New("inspectModelContext").
			Funcs(template.FuncMap{
				"inspectMessage": InspectMessage,
				"inspectTool":    InspectTool,
				"trim":           strings.Trim,
			}).
			Parse(debugDumpTplSource))
)

// Stream yields chunks of a single in-flight generation.
type Stream interface {
	Next() (*MessageChunk, error)
	Close() error
	CloseWithError(error) error
}

// ModelParams carries the sampling knobs passed through to a Generator's
// backend on every call.
type ModelParams struct {
	MaxTokens        int     `json:"max_tokens,omitzero"`
	FrequencyPenalty float32 `json:"frequency_penalty,omitzero"`
	N                int     `json:"n,omitzero"`
	Temperature      float32 `json:"temperature,omitzero"`
	TopP             float32 `json:"top_p,omitzero"`
	PresencePenalty  float32 `json:"presence_penalty,omitzero"`
	TopK             float32 `json:"top_k,omitzero"`
}

// Prompt is one named system/developer instruction block.
type Prompt struct {
	Name string
	Text string
}

// Tool is a capability a Generator may invoke mid-conversation.
type Tool interface {
	isTool()
}

// SearchWebTool is a placeholder built-in tool kept for parity with backends
// that expose a hosted web-search tool; this module does not implement one.
type SearchWebTool struct{}

func (*SearchWebTool) isTool() {}

// ModelContext is the full input to a single generation call: system
// prompts, prior turns, any chain-of-thought to replay, and the tool set.
type ModelContext interface {
	Prompts() iter.Seq[*Prompt]
	Messages() iter.Seq[*Message]
	CoTs() iter.Seq[string]
	Tools() iter.Seq[Tool]

	Params() *ModelParams
}

// InspectTool renders a single tool as a short human-readable block, used by
// InspectModelContext's debug dump.
func InspectTool(tool Tool) string {
	switch t := tool.(type) {
	case *FuncTool:
		name := unquote(t.Name)
		return fmt.Sprintf("### %s\n%s", name, t.Description)
	case *SearchWebTool:
		return "### SearchWebTool"
	}
	return ""
}

// unquote strips the surrounding quotes %q adds, so names containing control
// characters still render on one line without the quote marks themselves.
func unquote(s string) string {
	return strings.Trim(fmt.Sprintf("%q", s), `"`)
}

// InspectMessage renders a single turn as a short human-readable block:
// role header, sender name, then a line per content part / tool call / tool
// result. Used for call-log debug dumps, not shipped to any model.
func InspectMessage(msg *Message) string {
	if msg == nil {
		return ""
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n", msg.Role.String())
	fmt.Fprintln(&sb, unquote(msg.Name))
	switch p := msg.Payload.(type) {
	case Contents:
		for _, part := range p {
			switch pt := part.(type) {
			case Text:
				fmt.Fprintln(&sb, pt)
			case *Blob:
				if pt != nil {
					fmt.Fprintln(&sb, pt.MIMEType)
					fmt.Fprintf(&sb, "[%d]\n", len(pt.Data))
				}
			default:
				fmt.Fprintf(&sb, "[%T]\n", part)
			}
		}
	case *ToolCall:
		fmt.Fprintf(&sb, "[%s]\n", p.ID)
		if p.FuncCall != nil {
			fmt.Fprintf(&sb, "%s(%s)\n", unquote(p.FuncCall.Name), p.FuncCall.Arguments)
		}
	case *ToolResult:
		fmt.Fprintf(&sb, "[%s]\n", p.ID)
		fmt.Fprintln(&sb, p.Result)
	}
	return sb.String()
}

// InspectModelContext renders an entire ModelContext through the embedded
// debug template: every prompt, message, and tool in call order.
func InspectModelContext(mctx ModelContext) (string, error) {
	var sb strings.Builder
	if err := debugDumpTpl.Execute(&sb, mctx); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Generator is the one seam between the call agent and an LLM backend: every
// turn either streams (GenerateStream) or forces a single tool call (Invoke).
type Generator interface {
	GenerateStream(context.Context, string, ModelContext) (Stream, error)
	Invoke(context.Context, string, ModelContext, *FuncTool) (Usage, *FuncCall, error)
}

// Usage reports token accounting for one generation call.
type Usage struct {
	// PromptTokenCount is the full prompt size, including any cached portion.
	PromptTokenCount int64

	// CachedContentTokenCount is the subset of PromptTokenCount served from
	// the backend's prompt cache.
	CachedContentTokenCount int64

	// GeneratedTokenCount is the number of tokens the model produced.
	GeneratedTokenCount int64
}

func (u Usage) String() string {
	b, _ := yaml.Marshal(map[string]map[string]any{
		"Usage": {
			"Prompt":    u.PromptTokenCount,
			"Cached":    u.CachedContentTokenCount,
			"Generated": u.GeneratedTokenCount,
		},
	})
	return string(b)
}
