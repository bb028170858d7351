package leadstore

import (
	"context"
	"testing"
	"time"

	"github.com/scranst/phoneagent/pkg/kv"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	return New(kv.NewMemory(nil))
}

func TestUpsertAndGetLeadNormalizesPhone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpsertLead(ctx, Lead{FirstName: "John", LastName: "Doe", Phone: "702-555-1234"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	lead, ok := s.GetLead(ctx, "(702) 555-1234")
	if !ok {
		t.Fatal("expected lead to be found by a differently formatted number")
	}
	if lead.FullName() != "John Doe" {
		t.Fatalf("unexpected full name: %q", lead.FullName())
	}
}

func TestSearchLeadsMatchesFirstNameSubstring(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.UpsertLead(ctx, Lead{FirstName: "Alice", LastName: "Smith", Phone: "17025550001"})
	s.UpsertLead(ctx, Lead{FirstName: "Bob", LastName: "Jones", Phone: "17025550002"})

	found := s.SearchLeads(ctx, "ali", 10)
	if len(found) != 1 || found[0].FirstName != "Alice" {
		t.Fatalf("expected to find Alice, got %+v", found)
	}
}

func TestRecentMessagesReturnsChronologicalOrderTrimmedToLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		s.AppendMessage(ctx, Message{
			Channel: "sms", Direction: "inbound",
			From: "17025551234", To: "17025550000",
			Body:      "message",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	recent := s.RecentMessages(ctx, "17025551234", 5)
	if len(recent) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(recent))
	}
	if !recent[0].CreatedAt.Before(recent[len(recent)-1].CreatedAt) {
		t.Fatal("expected messages in chronological order")
	}
	if !recent[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("expected the oldest kept message to be the 3rd sent, got %v", recent[0].CreatedAt)
	}
}

func TestAutopilotOverrideIndependentOfLeadFlag(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.UpsertLead(ctx, Lead{FirstName: "Carl", Phone: "17025559999"})

	if s.IsAutopilotDisabled(ctx, "17025559999") {
		t.Fatal("expected autopilot enabled by default")
	}
	if err := s.SetAutopilotDisabled(ctx, "17025559999", true); err != nil {
		t.Fatalf("set autopilot disabled: %v", err)
	}
	if !s.IsAutopilotDisabled(ctx, "17025559999") {
		t.Fatal("expected autopilot to be disabled after override")
	}
}
