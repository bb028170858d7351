// Package leadstore is the narrow lead/message interface the telephony core
// depends on in place of a real CRM: a phone-keyed contact lookup plus an
// append-only message log, backed by pkg/kv's hierarchical key/value store.
package leadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/scranst/phoneagent/pkg/kv"
	"github.com/scranst/phoneagent/pkg/telephony/phonenumber"
)

// Lead is one contact record.
type Lead struct {
	ID                string `json:"id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Company           string `json:"company"`
	City              string `json:"city"`
	AutopilotDisabled bool   `json:"autopilot_disabled"`
}

// FullName joins first and last name, same formatting as sms_ai.py and
// sms_commands.py's repeated f"{first_name} {last_name}".strip().
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Message is one inbound or outbound SMS/email line, append-only.
type Message struct {
	Channel   string    `json:"channel"`
	Direction string    `json:"direction"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	ThreadID  string    `json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

// Stats summarizes the lead book, the fields sms_commands.py's "status"
// command reports (database.get_lead_stats()['total']).
type Stats struct {
	Total int
}

// Store is the interface the core depends on: GetLead/SearchLeads/UpsertLead
// for contact resolution, AppendMessage/RecentMessages for conversation
// history, and IsAutopilotDisabled for the per-thread SMS override.
type Store interface {
	GetLead(ctx context.Context, phone string) (Lead, bool)
	SearchLeads(ctx context.Context, query string, limit int) []Lead
	UpsertLead(ctx context.Context, lead Lead) error
	AppendMessage(ctx context.Context, msg Message) error
	RecentMessages(ctx context.Context, phone string, limit int) []Message
	Stats(ctx context.Context) Stats
	IsAutopilotDisabled(ctx context.Context, phone string) bool
	SetAutopilotDisabled(ctx context.Context, phone string, disabled bool) error
}

// KVStore implements Store over a kv.Store, keying leads under
// {"lead", <normalized phone>} and messages under
// {"msg", <normalized phone>, <UTC timestamp>}, the timestamp laid out as
// fixed-width, colon-free 20060102T150405.000000000Z so List returns a
// thread's messages in chronological order.
type KVStore struct {
	kv kv.Store
}

// New wraps a kv.Store (kv.NewBadger or kv.NewMemory) as a lead/message Store.
func New(store kv.Store) *KVStore {
	return &KVStore{kv: store}
}

func leadKey(phone string) kv.Key {
	return kv.Key{"lead", string(phonenumber.Normalize(phone))}
}

func messagePrefix(phone string) kv.Key {
	return kv.Key{"msg", string(phonenumber.Normalize(phone))}
}

func messageKey(phone string, at time.Time) kv.Key {
	return append(messagePrefix(phone), at.UTC().Format("20060102T150405.000000000Z"))
}

// GetLead looks up a lead by phone number, normalizing first.
func (s *KVStore) GetLead(ctx context.Context, phone string) (Lead, bool) {
	data, err := s.kv.Get(ctx, leadKey(phone))
	if err != nil {
		return Lead{}, false
	}
	var lead Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return Lead{}, false
	}
	return lead, true
}

// SearchLeads returns up to limit leads whose name, company, or phone
// contains query (case-insensitive substring), same fallback ranking
// sms_commands.py's _find_contact applies at the call site.
func (s *KVStore) SearchLeads(ctx context.Context, query string, limit int) []Lead {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []Lead
	for entry, err := range s.kv.List(ctx, kv.Key{"lead"}) {
		if err != nil {
			continue
		}
		var lead Lead
		if err := json.Unmarshal(entry.Value, &lead); err != nil {
			continue
		}
		if query == "" || leadMatches(lead, query) {
			out = append(out, lead)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func leadMatches(l Lead, query string) bool {
	haystacks := []string{
		strings.ToLower(l.FirstName),
		strings.ToLower(l.LastName),
		strings.ToLower(l.FullName()),
		strings.ToLower(l.Company),
		string(phonenumber.Normalize(l.Phone)),
	}
	for _, h := range haystacks {
		if h != "" && strings.Contains(h, query) {
			return true
		}
	}
	return false
}

// UpsertLead stores lead under its normalized phone number, assigning an ID
// from the phone if none is set.
func (s *KVStore) UpsertLead(ctx context.Context, lead Lead) error {
	if lead.ID == "" {
		lead.ID = string(phonenumber.Normalize(lead.Phone))
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("leadstore: marshal lead: %w", err)
	}
	return s.kv.Set(ctx, leadKey(lead.Phone), data)
}

// AppendMessage persists msg under its sender/recipient thread. Whichever of
// From/To isn't the owner-perspective phone is used as the thread key, so
// both inbound and outbound messages for a contact land in the same thread.
func (s *KVStore) AppendMessage(ctx context.Context, msg Message) error {
	if msg.CreatedAt.IsZero() {
		return fmt.Errorf("leadstore: message CreatedAt is required")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("leadstore: marshal message: %w", err)
	}
	phone := msg.From
	if msg.Direction == "outbound" {
		phone = msg.To
	}
	return s.kv.Set(ctx, messageKey(phone, msg.CreatedAt), data)
}

// RecentMessages returns up to the last limit messages exchanged with phone,
// oldest first, mirroring sms_ai.py's _get_conversation_history(limit=5).
func (s *KVStore) RecentMessages(ctx context.Context, phone string, limit int) []Message {
	var all []Message
	for entry, err := range s.kv.List(ctx, messagePrefix(phone)) {
		if err != nil {
			continue
		}
		var msg Message
		if err := json.Unmarshal(entry.Value, &msg); err != nil {
			continue
		}
		all = append(all, msg)
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all
}

// Stats reports the size of the lead book.
func (s *KVStore) Stats(ctx context.Context) Stats {
	total := 0
	for _, err := range s.kv.List(ctx, kv.Key{"lead"}) {
		if err != nil {
			continue
		}
		total++
	}
	return Stats{Total: total}
}

// IsAutopilotDisabled reports whether phone's lead record, or an
// independent per-thread override, has autopilot turned off.
func (s *KVStore) IsAutopilotDisabled(ctx context.Context, phone string) bool {
	if lead, ok := s.GetLead(ctx, phone); ok && lead.AutopilotDisabled {
		return true
	}
	data, err := s.kv.Get(ctx, kv.Key{"autopilot_disabled", string(phonenumber.Normalize(phone))})
	return err == nil && string(data) == "true"
}

// SetAutopilotDisabled sets the per-thread autopilot override independent of
// whatever is stored on the lead record itself.
func (s *KVStore) SetAutopilotDisabled(ctx context.Context, phone string, disabled bool) error {
	value := "false"
	if disabled {
		value = "true"
	}
	return s.kv.Set(ctx, kv.Key{"autopilot_disabled", string(phonenumber.Normalize(phone))}, []byte(value))
}
