package smsrouter

import (
	"context"
	"testing"
	"time"

	"github.com/scranst/phoneagent/pkg/genx"
	"github.com/scranst/phoneagent/pkg/kv"
	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
	"github.com/scranst/phoneagent/pkg/telephony/settings"
)

// scriptedRound is one round of a scriptedGenerator's canned response.
type scriptedRound struct {
	text      string
	toolName  string
	toolArgs  string
	toolCalls []*genx.ToolCall // used instead of toolName/toolArgs when set
}

// scriptedGenerator returns one scriptedRound per call to GenerateStream, in
// order, regardless of the prompt given — enough to drive the tool loop
// deterministically without a real model.
type scriptedGenerator struct {
	rounds []scriptedRound
	calls  int
}

func (g *scriptedGenerator) GenerateStream(ctx context.Context, model string, mctx genx.ModelContext) (genx.Stream, error) {
	round := g.rounds[g.calls]
	g.calls++
	return &scriptedStream{round: round}, nil
}

func (g *scriptedGenerator) Invoke(ctx context.Context, model string, mctx genx.ModelContext, fn *genx.FuncTool) (genx.Usage, *genx.FuncCall, error) {
	return genx.Usage{}, nil, nil
}

type scriptedStream struct {
	round scriptedRound
	step  int
}

func (s *scriptedStream) Next() (*genx.MessageChunk, error) {
	calls := s.round.toolCalls
	if calls == nil && s.round.toolName != "" {
		calls = []*genx.ToolCall{{
			ID:       "call-1",
			FuncCall: &genx.FuncCall{Name: s.round.toolName, Arguments: s.round.toolArgs},
		}}
	}

	switch s.step {
	case 0:
		s.step++
		if s.round.text != "" {
			return &genx.MessageChunk{Role: genx.RoleModel, Part: genx.Text(s.round.text)}, nil
		}
		fallthrough
	case 1:
		s.step++
		if len(calls) > 0 {
			return &genx.MessageChunk{Role: genx.RoleModel, ToolCall: calls[0]}, nil
		}
		fallthrough
	default:
		return nil, genx.ErrDone
	}
}

func (s *scriptedStream) Close() error              { return nil }
func (s *scriptedStream) CloseWithError(error) error { return nil }

func newTestRouter(t *testing.T, gen genx.Generator) (*Router, leadstore.Store) {
	t.Helper()
	store := leadstore.New(kv.NewMemory(nil))
	r := New(Config{
		Generator:      gen,
		ReasoningModel: "reasoning-model",
		FastModel:      "fast-model",
		OwnerPhone:     "17025551111",
		Leads:          store,
		Settings:       &settings.Settings{MyName: "Alex", Company: "City Dental", City: "Reno", CallbackNumber: "17025550000"},
	})
	return r, store
}

func TestProcessMessageRoutesOwnerToPersonalAssistant(t *testing.T) {
	gen := &scriptedGenerator{rounds: []scriptedRound{{text: "Sure, on it."}}}
	r, _ := newTestRouter(t, gen)

	reply, err := r.ProcessMessage(context.Background(), "702-555-1111", "what's on my plate today")
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if reply != "Sure, on it." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one generation round, got %d", gen.calls)
	}
}

func TestProcessMessageNonOwnerGetsReceptionistNoTools(t *testing.T) {
	gen := &scriptedGenerator{rounds: []scriptedRound{{text: "Thanks for reaching out, we'll be in touch!"}}}
	r, _ := newTestRouter(t, gen)

	reply, err := r.ProcessMessage(context.Background(), "17025559999", "can I book an appointment?")
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if reply == "" {
		t.Fatal("expected a receptionist reply")
	}
}

func TestProcessMessageRespectsAutopilotDisabled(t *testing.T) {
	gen := &scriptedGenerator{rounds: []scriptedRound{{text: "should never be called"}}}
	r, store := newTestRouter(t, gen)
	store.SetAutopilotDisabled(context.Background(), "17025559999", true)

	reply, err := r.ProcessMessage(context.Background(), "17025559999", "hello?")
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if reply != "" {
		t.Fatalf("expected no reply with autopilot disabled, got %q", reply)
	}
	if gen.calls != 0 {
		t.Fatal("expected no generation call when autopilot is disabled")
	}
}

func TestMakeCallToolEnqueuesPendingCallWithoutBlocking(t *testing.T) {
	gen := &scriptedGenerator{rounds: []scriptedRound{
		{toolName: "make_call", toolArgs: `{"phone":"702-555-2222","objective":"confirm the order"}`},
		{text: "Done, I queued that call."},
	}}
	r, _ := newTestRouter(t, gen)

	reply, err := r.ProcessMessage(context.Background(), "17025551111", "please phone 702-555-2222 and confirm the order")
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if reply != "Done, I queued that call." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !r.HasPendingCalls() {
		t.Fatal("expected a pending call to be queued")
	}
	call, ok := r.GetPendingCall()
	if !ok {
		t.Fatal("expected to pop the queued call")
	}
	if call.Phone != "17025552222" || call.Objective != "confirm the order" {
		t.Fatalf("unexpected pending call: %+v", call)
	}
}

func TestOwnerCommandGrammarWinsOverToolCallingPath(t *testing.T) {
	gen := &scriptedGenerator{rounds: []scriptedRound{{text: "should never be reached"}}}
	r, store := newTestRouter(t, gen)
	store.UpsertLead(context.Background(), leadstore.Lead{FirstName: "John", LastName: "Doe", Phone: "17025552222"})

	reply, err := r.ProcessMessage(context.Background(), "17025551111", "call john and remind him about the meeting tomorrow")
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if reply == "" {
		t.Fatal("expected a command-grammar reply")
	}
	if gen.calls != 0 {
		t.Fatal("expected the command grammar to short-circuit the AI path entirely")
	}
	if !r.HasPendingCalls() {
		t.Fatal("expected the call command to enqueue a pending call")
	}
}

func TestStatusCommandReportsLeadsAndPendingCalls(t *testing.T) {
	gen := &scriptedGenerator{}
	r, store := newTestRouter(t, gen)
	store.UpsertLead(context.Background(), leadstore.Lead{FirstName: "Alice", Phone: "17025550001"})

	reply, err := r.ProcessMessage(context.Background(), "17025551111", "status")
	if err != nil {
		t.Fatalf("process message: %v", err)
	}
	if reply != "Leads: 1" {
		t.Fatalf("unexpected status reply: %q", reply)
	}
}

func TestParseDateTimeDefaultsToTenAM(t *testing.T) {
	when, ok := parseDateTime("tomorrow")
	if !ok {
		t.Fatal("expected tomorrow to parse")
	}
	if when.Hour() != 10 || when.Minute() != 0 {
		t.Fatalf("expected default time of 10:00, got %v", when)
	}
}

func TestParseDateTimeHandlesWeekdayAndPM(t *testing.T) {
	when, ok := parseDateTime("tuesday at 4pm")
	if !ok {
		t.Fatal("expected weekday+pm to parse")
	}
	if when.Hour() != 16 || when.Weekday() != time.Tuesday {
		t.Fatalf("unexpected parsed time: %v", when)
	}
}
