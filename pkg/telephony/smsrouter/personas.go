package smsrouter

import (
	"fmt"
	"strings"

	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
)

const maxHistoryMessages = 5

// personalAssistantPrompt builds the owner-facing agent's system prompt: a
// reasoning-tier assistant that can search contacts, search the web, and
// place calls or send texts on the owner's behalf. Structured like
// speechadapt.LLMEngine.SetObjective's prompt (goal, rules, context block)
// rather than sms_ai.py's external persona-file text, which this module
// doesn't have access to.
func (r *Router) personalAssistantPrompt() string {
	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(r.settings.MyName)
	b.WriteString("'s personal assistant, reachable by text message.\n\n")
	b.WriteString("YOUR JOB:\n")
	b.WriteString("- Help your boss manage contacts, calls, and texts by SMS.\n")
	b.WriteString("- Use the available tools rather than guessing: look up contacts before calling or texting them.\n")
	b.WriteString("- make_call queues a call; it does not wait for the call to finish.\n")
	b.WriteString("- Keep replies SHORT, this is SMS.\n\n")
	fmt.Fprintf(&b, "CONTEXT:\n- Company: %s\n- City: %s\n", r.settings.Company, r.settings.City)
	return b.String()
}

// receptionistPrompt builds the non-owner-facing agent's persona: a
// fast-tier responder answering on the owner's behalf with a known,
// bounded reply, matching sms_ai.py's _process_other_user_message prompt
// (base persona + optional lead context + "write a brief, natural reply").
func (r *Router) receptionistPrompt(lead *leadstore.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s's assistant, texting on their behalf.\n", r.settings.MyName)
	fmt.Fprintf(&b, "Company: %s. Location: %s.\n", r.settings.Company, r.settings.City)
	b.WriteString("Write a brief, natural SMS reply. Be conversational and human-like. Do not invent facts you don't have.\n")
	if lead != nil {
		name := lead.FullName()
		if name == "" {
			name = "unknown"
		}
		company := lead.Company
		if company == "" {
			company = "an unknown company"
		}
		fmt.Fprintf(&b, "\nCaller info: %s at %s\n", name, company)
	}
	return b.String()
}

// formatHistory renders up to maxHistoryMessages prior messages as the
// "Recent conversation:\nThem: ...\nMe: ...\n" block sms_ai.py's
// _get_conversation_history builds, oldest first.
func formatHistory(history []leadstore.Message) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, m := range history {
		who := "Me"
		if m.Direction == "inbound" {
			who = "Them"
		}
		body := m.Body
		if len(body) > 100 {
			body = body[:100]
		}
		fmt.Fprintf(&b, "%s: %s\n", who, body)
	}
	return b.String()
}
