package smsrouter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/scranst/phoneagent/pkg/telephony/calendar"
	"github.com/scranst/phoneagent/pkg/telephony/leadstore"
	"github.com/scranst/phoneagent/pkg/telephony/phonenumber"
)

// commandHandler implements the owner's deterministic command grammar, a
// parallel fast path to the AI tool-calling agent. Ported from
// original_source/sms_commands.py's SMSCommandHandler.
type commandHandler struct {
	router   *Router
	calendar calendar.Provider
}

func newCommandHandler(r *Router) *commandHandler {
	return &commandHandler{router: r, calendar: calendar.Stub{}}
}

var (
	callAndPattern     = regexp.MustCompile(`(?i)^(.+?)\s+(?:and|to)\s+(.+)$`)
	bookForPattern     = regexp.MustCompile(`(?i)^(.+?)\s+(?:for|on|at)\s+(.+)$`)
	remindPattern      = regexp.MustCompile(`(?i)^remind\s+(\S+)\s+(?:about\s+)?(.+)$`)
	scheduleCallPat    = regexp.MustCompile(`(?i)^(?:schedule|make)\s+(?:a\s+)?call\s+(?:with|to)\s+(\S+)$`)
	scheduleMeetingPat = regexp.MustCompile(`(?i)^(?:set up|schedule)\s+(?:a\s+)?meeting\s+with\s+(\S+)\s+(?:for|on)\s+(.+)$`)
	timeOfDayPattern   = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
)

// Try attempts the command grammar against body. handled reports whether the
// message matched a literal-prefix or natural-language command at all;
// reply is what to text back in that case.
func (h *commandHandler) Try(ctx context.Context, body string) (reply string, handled bool) {
	message := strings.ToLower(strings.TrimSpace(body))

	switch {
	case strings.HasPrefix(message, "call "):
		return h.handleCall(ctx, message[len("call "):]), true
	case strings.HasPrefix(message, "book "):
		return h.handleBook(ctx, message[len("book "):]), true
	case strings.HasPrefix(message, "text ") || strings.HasPrefix(message, "sms "):
		rest := afterFirstWord(message)
		return h.handleText(ctx, rest), true
	case message == "status":
		return h.handleStatus(ctx), true
	case message == "help":
		return h.handleHelp(), true
	default:
		return h.handleNatural(ctx, message)
	}
}

func afterFirstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[i+1:]
	}
	return ""
}

func (h *commandHandler) handleCall(ctx context.Context, args string) string {
	var contactQuery, objective string
	if m := callAndPattern.FindStringSubmatch(args); m != nil {
		contactQuery, objective = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	} else {
		contactQuery = strings.TrimSpace(args)
	}

	lead, ok := h.findContact(ctx, contactQuery)
	if !ok {
		return fmt.Sprintf("Contact '%s' not found", contactQuery)
	}
	if lead.Phone == "" {
		return fmt.Sprintf("No phone number for %s", contactName(lead, contactQuery))
	}

	name := contactName(lead, contactQuery)
	if objective == "" {
		objective = fmt.Sprintf("Follow up call with %s", name)
	}

	h.router.pending.push(PendingCall{
		Phone: string(phonenumber.Normalize(lead.Phone)), Objective: objective,
		LeadID: lead.ID, ContactName: name, AgentID: "personal_assistant",
	})
	return fmt.Sprintf("Calling %s at %s. Objective: %s", name, lead.Phone, objective)
}

func (h *commandHandler) handleBook(ctx context.Context, args string) string {
	m := bookForPattern.FindStringSubmatch(args)
	if m == nil {
		return "Format: book [contact] for [date/time]"
	}
	contactQuery, dateTimeStr := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])

	lead, ok := h.findContact(ctx, contactQuery)
	if !ok {
		return fmt.Sprintf("Contact '%s' not found", contactQuery)
	}

	when, ok := parseDateTime(dateTimeStr)
	if !ok {
		return fmt.Sprintf("Could not understand date/time: %s", dateTimeStr)
	}

	name := contactName(lead, contactQuery)
	slot := calendar.TimeSlot{Start: when, End: when.Add(30 * time.Minute)}
	result, err := h.calendar.BookAppointment(slot, name, lead.Email, lead.Phone, "Booked via SMS command")
	if err != nil {
		return fmt.Sprintf("Booking failed: %s", err.Error())
	}
	if !result.Success {
		return fmt.Sprintf("Booking failed: %s", result.Message)
	}
	return fmt.Sprintf("Booked %s for %s", name, when.Format("Monday 01/02 at 3:04 PM"))
}

func (h *commandHandler) handleText(ctx context.Context, args string) string {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		return "Format: text [contact] [message]"
	}
	contactQuery, message := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	lead, ok := h.findContact(ctx, contactQuery)
	if !ok {
		return fmt.Sprintf("Contact '%s' not found", contactQuery)
	}
	if lead.Phone == "" {
		return fmt.Sprintf("No phone number for %s", contactName(lead, contactQuery))
	}

	phone := string(phonenumber.Normalize(lead.Phone))
	if h.router.sendSMS == nil || !h.router.sendSMS(phone, message) {
		return "Failed to send SMS"
	}
	if h.router.leads != nil {
		h.router.leads.AppendMessage(ctx, leadstore.Message{
			Channel: "sms", Direction: "outbound",
			From: h.router.callbackNumber(), To: phone,
			Body: message, CreatedAt: timeNow(), Status: "sent",
		})
	}
	return fmt.Sprintf("Texted %s: %s", contactName(lead, contactQuery), message)
}

func (h *commandHandler) handleStatus(ctx context.Context) string {
	status := "Leads: 0"
	if h.router.leads != nil {
		status = fmt.Sprintf("Leads: %d", h.router.leads.Stats(ctx).Total)
	}
	if n := h.router.pending.len(); n > 0 {
		status += fmt.Sprintf(", Pending calls: %d", n)
	}
	return status
}

func (h *commandHandler) handleHelp() string {
	return "Commands:\ncall [name] and [task]\nbook [name] for [time]\ntext [name] [msg]\nstatus"
}

func (h *commandHandler) handleNatural(ctx context.Context, message string) (string, bool) {
	if m := remindPattern.FindStringSubmatch(message); m != nil {
		return h.handleCall(ctx, fmt.Sprintf("%s and remind them about %s", m[1], m[2])), true
	}
	if m := scheduleCallPat.FindStringSubmatch(message); m != nil {
		return h.handleCall(ctx, m[1]), true
	}
	if m := scheduleMeetingPat.FindStringSubmatch(message); m != nil {
		return h.handleBook(ctx, fmt.Sprintf("%s for %s", m[1], m[2])), true
	}
	return "", false
}

// findContact resolves query against the lead store: exact first-name
// match, then exact full-name match, else the first search hit, same
// fallback order as sms_commands.py's _find_contact.
func (h *commandHandler) findContact(ctx context.Context, query string) (leadstore.Lead, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if h.router.leads == nil {
		return leadstore.Lead{}, false
	}
	leads := h.router.leads.SearchLeads(ctx, query, 10)
	if len(leads) == 0 {
		return leadstore.Lead{}, false
	}
	for _, lead := range leads {
		if strings.ToLower(lead.FirstName) == query {
			return lead, true
		}
	}
	for _, lead := range leads {
		if strings.ToLower(lead.FullName()) == query {
			return lead, true
		}
	}
	return leads[0], true
}

func contactName(lead leadstore.Lead, fallback string) string {
	if name := lead.FullName(); name != "" {
		return name
	}
	return fallback
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// parseDateTime accepts today|tomorrow|<weekday> plus H[:MM][am|pm],
// defaulting to 10:00, same rules as sms_commands.py's _parse_datetime.
func parseDateTime(text string) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	now := timeNow()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	targetDate := today
	switch {
	case strings.Contains(text, "tomorrow"):
		targetDate = today.AddDate(0, 0, 1)
	case strings.Contains(text, "today"):
		// targetDate already today
	default:
		for i, day := range weekdays {
			if !strings.Contains(text, day) {
				continue
			}
			daysAhead := (i - weekdayIndex(today) + 7) % 7
			if daysAhead <= 0 {
				daysAhead += 7
			}
			targetDate = today.AddDate(0, 0, daysAhead)
			break
		}
	}

	hour, minute := 10, 0
	if m := timeOfDayPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		switch strings.ToLower(m[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
	}

	return time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), hour, minute, 0, 0, targetDate.Location()), true
}

// weekdayIndex maps time.Weekday (Sunday=0) to a Monday=0 index matching
// Python's datetime.weekday().
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
