package leadstore

import (
	"context"

	"github.com/scranst/phoneagent/pkg/telephony/speechadapt"
)

// CallerLookup adapts a Store to callagent.LeadLookup: an inbound call's
// audio loop can enrich the conversation's context with whatever is known
// about the caller before the engine starts talking.
type CallerLookup struct {
	store Store
	ctx   context.Context
}

// NewCallerLookup wraps store for use as a callagent.LeadLookup. ctx bounds
// the lookup call itself (the lead store read), not the phone call.
func NewCallerLookup(ctx context.Context, store Store) *CallerLookup {
	return &CallerLookup{store: store, ctx: ctx}
}

// LookupByPhone satisfies callagent.LeadLookup.
func (l *CallerLookup) LookupByPhone(phone string) ([]speechadapt.ContextEntry, bool) {
	lead, ok := l.store.GetLead(l.ctx, phone)
	if !ok {
		return nil, false
	}
	var entries []speechadapt.ContextEntry
	if name := lead.FullName(); name != "" {
		entries = append(entries, speechadapt.ContextEntry{Key: "Caller name", Value: name})
	}
	if lead.Company != "" {
		entries = append(entries, speechadapt.ContextEntry{Key: "Caller company", Value: lead.Company})
	}
	if lead.Email != "" {
		entries = append(entries, speechadapt.ContextEntry{Key: "Caller email", Value: lead.Email})
	}
	return entries, len(entries) > 0
}
