package smsrouter

import (
	"context"
	"fmt"
	"time"

	"github.com/scranst/phoneagent/pkg/genx"
	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
	"github.com/scranst/phoneagent/pkg/telephony/phonenumber"
)

// SendSMSFunc delivers an outbound SMS, returning whether it was accepted by
// the transport (modem.Modem.SendSMS has this exact signature).
type SendSMSFunc func(phone, message string) bool

// SearchResult is one hit from the optional web-search tool.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearchFunc performs an external web search. Optional: when nil the
// search_web tool reports itself unconfigured rather than being omitted
// from the tool list, matching ai_tools.py always registering the tool.
type WebSearchFunc func(ctx context.Context, query string) ([]SearchResult, error)

// MovieShowtimesFunc looks up showtimes for movie near location. Optional,
// same unconfigured-but-present behavior as WebSearchFunc.
type MovieShowtimesFunc func(ctx context.Context, location, movie string) (string, error)

type searchContactsArgs struct {
	Query string `json:"query"`
}

type searchWebArgs struct {
	Query string `json:"query"`
}

type movieShowtimesArgs struct {
	Location string `json:"location"`
	Movie    string `json:"movie"`
}

type makeCallArgs struct {
	Phone     string `json:"phone"`
	Objective string `json:"objective"`
	AgentID   string `json:"agent_id,omitempty"`
}

type sendSMSArgs struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// personalAssistantTools builds the tool set available to the owner's
// reasoning-tier agent, grounded on ai_tools.py's ASSISTANT_TOOLS and
// sms_ai.py's _execute_tool dispatch.
func (r *Router) personalAssistantTools() []*genx.FuncTool {
	return []*genx.FuncTool{
		r.searchContactsTool(),
		r.searchWebTool(),
		r.movieShowtimesTool(),
		r.makeCallTool(),
		r.sendSMSTool(),
	}
}

func (r *Router) searchContactsTool() *genx.FuncTool {
	return genx.MustNewFuncTool[searchContactsArgs]("search_contacts",
		"Search the contact/lead book by name, company, or phone number substring.",
		genx.InvokeFunc[searchContactsArgs](func(ctx context.Context, _ *genx.FuncCall, arg searchContactsArgs) (any, error) {
			if r.leads == nil {
				return map[string]any{"error": "contact store not configured"}, nil
			}
			leads := r.leads.SearchLeads(ctx, arg.Query, 10)
			results := make([]map[string]any, len(leads))
			for i, lead := range leads {
				results[i] = map[string]any{
					"id": lead.ID, "name": lead.FullName(),
					"phone": lead.Phone, "company": lead.Company, "email": lead.Email,
				}
			}
			return map[string]any{"results": results}, nil
		}))
}

func (r *Router) searchWebTool() *genx.FuncTool {
	return genx.MustNewFuncTool[searchWebArgs]("search_web",
		"Search the web for current information.",
		genx.InvokeFunc[searchWebArgs](func(ctx context.Context, _ *genx.FuncCall, arg searchWebArgs) (any, error) {
			if r.searchWeb == nil {
				return map[string]any{"error": "web search not configured"}, nil
			}
			results, err := r.searchWeb(ctx, arg.Query)
			if err != nil {
				return map[string]any{"error": err.Error()}, nil
			}
			return map[string]any{"results": results}, nil
		}))
}

func (r *Router) movieShowtimesTool() *genx.FuncTool {
	return genx.MustNewFuncTool[movieShowtimesArgs]("get_movie_showtimes",
		"Look up movie showtimes near a location.",
		genx.InvokeFunc[movieShowtimesArgs](func(ctx context.Context, _ *genx.FuncCall, arg movieShowtimesArgs) (any, error) {
			if r.movieShowtimes == nil {
				return map[string]any{"error": "showtimes lookup not configured"}, nil
			}
			location := arg.Location
			if location == "" {
				location = r.settings.City
			}
			showtimes, err := r.movieShowtimes(ctx, location, arg.Movie)
			if err != nil {
				return map[string]any{"error": err.Error()}, nil
			}
			return map[string]any{"showtimes": showtimes}, nil
		}))
}

// makeCallTool enqueues an outbound call job; it never blocks on the call
// itself, matching sms_ai.py's make_call appending to self.pending_calls and
// returning immediately.
func (r *Router) makeCallTool() *genx.FuncTool {
	return genx.MustNewFuncTool[makeCallArgs]("make_call",
		"Place an outbound phone call with a given objective. Does not wait for the call to finish.",
		genx.InvokeFunc[makeCallArgs](func(ctx context.Context, _ *genx.FuncCall, arg makeCallArgs) (any, error) {
			phone := string(phonenumber.Normalize(arg.Phone))
			if phone == "" {
				return map[string]any{"error": "a phone number is required"}, nil
			}

			var lead leadstore.Lead
			var leadID, contactName string
			if r.leads != nil {
				if found, ok := r.leads.GetLead(ctx, phone); ok {
					lead = found
					leadID = lead.ID
					contactName = lead.FullName()
				}
			}
			if contactName == "" {
				contactName = arg.Phone
			}
			agentID := arg.AgentID
			if agentID == "" {
				agentID = "personal_assistant"
			}

			call := PendingCall{Phone: phone, Objective: arg.Objective, LeadID: leadID, ContactName: contactName, AgentID: agentID}
			r.pending.push(call)

			return map[string]any{
				"success":   true,
				"message":   fmt.Sprintf("Call queued to %s at %s", contactName, phone),
				"objective": arg.Objective,
			}, nil
		}))
}

// sendSMSTool sends a message via the registered SendSMSFunc and persists
// the outbound message to the lead store on success, same as sms_ai.py's
// send_sms tool.
func (r *Router) sendSMSTool() *genx.FuncTool {
	return genx.MustNewFuncTool[sendSMSArgs]("send_sms",
		"Send a text message to a phone number.",
		genx.InvokeFunc[sendSMSArgs](func(ctx context.Context, _ *genx.FuncCall, arg sendSMSArgs) (any, error) {
			phone := string(phonenumber.Normalize(arg.Phone))
			if r.sendSMS == nil {
				return map[string]any{"success": false, "error": "SMS sending not configured"}, nil
			}
			if !r.sendSMS(phone, arg.Message) {
				return map[string]any{"success": false, "error": "failed to send SMS"}, nil
			}
			if r.leads != nil {
				r.leads.AppendMessage(ctx, leadstore.Message{
					Channel: "sms", Direction: "outbound",
					From: r.settings.CallbackNumber, To: phone,
					Body: arg.Message, CreatedAt: timeNow(),
					Status: "sent",
				})
			}
			return map[string]any{"success": true, "message": fmt.Sprintf("SMS sent to %s", arg.Phone)}, nil
		}))
}

// timeNow is a var rather than a direct time.Now() call so tests can
// override it without threading a clock through every method signature.
var timeNow = time.Now
