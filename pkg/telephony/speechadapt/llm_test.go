package speechadapt

import (
	"context"
	"strings"
	"testing"

	"github.com/scranst/phoneagent/pkg/genx"
)

// fakeGenerator echoes a canned response and records the last ModelContext
// it was asked to generate from, so tests can assert on prompt/history
// construction without a real model.
type fakeGenerator struct {
	response string
	lastCtx  genx.ModelContext
}

func (g *fakeGenerator) GenerateStream(ctx context.Context, model string, mctx genx.ModelContext) (genx.Stream, error) {
	g.lastCtx = mctx
	s := newChunkStream()
	s.push(&genx.MessageChunk{Role: genx.RoleModel, Part: genx.Text(g.response)})
	s.close()
	return &doneStream{chunkStream: s}, nil
}

func (g *fakeGenerator) Invoke(ctx context.Context, model string, mctx genx.ModelContext, fn *genx.FuncTool) (genx.Usage, *genx.FuncCall, error) {
	return genx.Usage{}, nil, nil
}

// doneStream wraps chunkStream so that exhausting it returns genx.ErrDone
// (the normal stop signal) instead of io.EOF, like a real generator stream.
type doneStream struct {
	*chunkStream
}

func (s *doneStream) Next() (*genx.MessageChunk, error) {
	c, err := s.chunkStream.Next()
	if err != nil {
		return nil, genx.ErrDone
	}
	return c, nil
}

func TestSetObjectiveBuildsSystemPrompt(t *testing.T) {
	gen := &fakeGenerator{response: "Hello there"}
	e := NewLLMEngine(gen, "test-model")
	e.SetObjective("Remind them their book is ready", []ContextEntry{
		{Key: "library", Value: "City Library"},
	})

	if !strings.Contains(e.systemPrompt, "Remind them their book is ready") {
		t.Fatalf("system prompt missing objective: %q", e.systemPrompt)
	}
	if !strings.Contains(e.systemPrompt, "- library: City Library") {
		t.Fatalf("system prompt missing context: %q", e.systemPrompt)
	}
}

func TestGenerateResponseAppendsHistory(t *testing.T) {
	gen := &fakeGenerator{response: "Sure, I can help."}
	e := NewLLMEngine(gen, "test-model")
	e.SetObjective("Help the caller", nil)

	resp, err := e.GenerateResponse(context.Background(), "Hi, I need help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "Sure, I can help." {
		t.Fatalf("got %q", resp)
	}
	if len(e.history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(e.history))
	}
}

func TestGenerateResponseEmptyInputIsNoop(t *testing.T) {
	gen := &fakeGenerator{response: "should not be called"}
	e := NewLLMEngine(gen, "test-model")
	e.SetObjective("Help the caller", nil)

	resp, err := e.GenerateResponse(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "" {
		t.Fatalf("expected empty response, got %q", resp)
	}
	if len(e.history) != 0 {
		t.Fatalf("expected no history mutation, got %d entries", len(e.history))
	}
}

func TestGetInitialGreetingSeedsHistory(t *testing.T) {
	gen := &fakeGenerator{response: "Hello, how can I help?"}
	e := NewLLMEngine(gen, "test-model")
	e.SetObjective("Greet the caller", nil)

	greeting, err := e.GetInitialGreeting(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if greeting != "Hello, how can I help?" {
		t.Fatalf("got %q", greeting)
	}
	if len(e.history) != 2 {
		t.Fatalf("expected seeded hello + greeting, got %d entries", len(e.history))
	}
}

func TestShouldEndCall(t *testing.T) {
	e := NewLLMEngine(&fakeGenerator{}, "test-model")
	if !e.ShouldEndCall("Alright, take care!") {
		t.Fatal("expected farewell to be detected")
	}
	if e.ShouldEndCall("What else can I help with?") {
		t.Fatal("did not expect farewell")
	}
}

func TestShouldTransferAndTransferNumber(t *testing.T) {
	e := NewLLMEngine(&fakeGenerator{}, "test-model")
	e.SetObjective("Handle the call", []ContextEntry{
		{Key: "TRANSFER_TO", Value: "17025551234"},
		{Key: "TRANSFER_IF", Value: "they ask to speak to a human"},
	})

	if !e.ShouldTransfer("[TRANSFER] Please hold.") {
		t.Fatal("expected transfer marker to be detected")
	}
	if e.TransferNumber() != "17025551234" {
		t.Fatalf("got %q", e.TransferNumber())
	}
}
