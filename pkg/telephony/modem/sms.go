package modem

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

// Message is one read SMS: index (for deletion), sender, and decoded text.
type Message struct {
	Index   string
	Sender  string
	Message string
}

// decodeUCS2Hex decodes a hex-encoded UCS2 (UTF-16BE) string, which is how
// the modem returns SMS bodies containing characters outside GSM 7-bit
// (smart quotes, emoji, ...). Strings that don't look like hex pass through
// unchanged.
func decodeUCS2Hex(s string) string {
	if s == "" || len(s)%4 != 0 {
		return s
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789ABCDEFabcdef", c) {
			return s
		}
	}
	units := make([]uint16, 0, len(s)/4)
	for i := 0; i < len(s); i += 4 {
		v, err := strconv.ParseUint(s[i:i+4], 16, 16)
		if err != nil {
			return s
		}
		units = append(units, uint16(v))
	}
	return string(utf16.Decode(units))
}

func (m *Modem) notifySMS(sender, message string) {
	decoded := decodeUCS2Hex(message)
	m.mu.Lock()
	callbacks := append([]SMSCallback(nil), m.smsCallbacks...)
	m.mu.Unlock()
	for _, cb := range callbacks {
		cb(sender, decoded)
	}
}

func (m *Modem) readSMSByIndex(index string) {
	resp := m.sendAT(fmt.Sprintf("AT+CMGR=%s", index), 3*time.Second)
	idx := strings.Index(resp, "+CMGR:")
	if idx < 0 {
		return
	}
	lines := strings.Split(resp[idx:], "\n")
	if len(lines) < 2 {
		return
	}
	header := strings.Split(lines[0], ",")
	if len(header) < 2 {
		return
	}
	sender := strings.Trim(strings.TrimSpace(header[1]), `" `)
	message := strings.TrimSpace(lines[1])
	if message != "" && message != "OK" {
		m.logger.Info("sms received", "sender", sender)
		m.notifySMS(sender, message)
	}
	m.sendAT(fmt.Sprintf("AT+CMGD=%s", index), 2*time.Second)
}

// SendSMS sends a text message, pausing the background monitor for the
// duration of the exchange (the teacher source's smsInProgress flag) to
// avoid two AT exchanges racing on the same USB endpoint.
func (m *Modem) SendSMS(phoneNumber, message string) bool {
	m.mu.Lock()
	if m.dev == nil {
		m.mu.Unlock()
		m.logger.Error("cannot send SMS: not connected")
		return false
	}
	m.smsInProgress = true
	m.mu.Unlock()
	time.Sleep(600 * time.Millisecond) // let the monitor loop finish its current iteration

	defer func() {
		m.mu.Lock()
		m.smsInProgress = false
		m.mu.Unlock()
	}()

	clean := cleanNumber(phoneNumber)
	m.logger.Info("sending SMS", "number", clean)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainPending()
	m.sendATLocked("AT", 2*time.Second)
	m.sendATLocked("AT+CMGF=1", 2*time.Second)

	resp := m.sendATLocked(fmt.Sprintf("AT+CMGS=%q", clean), 2*time.Second)
	if !strings.Contains(resp, ">") {
		// the ">" prompt can arrive in a later read; poll a few more times
		promptFound := false
		for i := 0; i < 4; i++ {
			if m.readMore(time.Second) {
				promptFound = true
				break
			}
		}
		if !promptFound {
			m.logger.Error("SMS failed: no prompt received")
			m.dev.Write(m.endpoints.ATEndpointOut, []byte{0x1b}, time.Second) // ESC to cancel
			return false
		}
	}

	body := message + string(rune(26)) // Ctrl+Z terminates the message
	if _, err := m.dev.Write(m.endpoints.ATEndpointOut, []byte(body), 5*time.Second); err != nil {
		m.logger.Error("SMS body write failed", "err", err)
		return false
	}
	time.Sleep(3 * time.Second)

	var final strings.Builder
	buf := make([]byte, atReadChunkSize)
	for i := 0; i < 10; i++ {
		n, err := m.dev.Read(m.endpoints.ATEndpointIn, buf, time.Second)
		if err != nil {
			break
		}
		final.Write(buf[:n])
		if strings.Contains(final.String(), "OK") || strings.Contains(final.String(), "ERROR") {
			break
		}
	}

	if strings.Contains(final.String(), "OK") {
		m.logger.Info("SMS sent", "number", clean)
		return true
	}
	m.logger.Error("SMS failed", "response", final.String())
	return false
}

// readMore reads one more chunk from the AT endpoint and reports whether it
// contained the ">" SMS-body prompt.
func (m *Modem) readMore(timeout time.Duration) bool {
	buf := make([]byte, atReadChunkSize)
	n, err := m.dev.Read(m.endpoints.ATEndpointIn, buf, timeout)
	if err != nil {
		return false
	}
	return strings.Contains(string(buf[:n]), ">")
}

func (m *Modem) drainPending() {
	buf := make([]byte, atReadChunkSize)
	for i := 0; i < 5; i++ {
		if _, err := m.dev.Read(m.endpoints.ATEndpointIn, buf, 100*time.Millisecond); err != nil {
			break
		}
	}
}

// ReadAllSMS lists every stored message (read and unread), optionally
// deleting each after reading.
func (m *Modem) ReadAllSMS(deleteAfterRead bool) []Message {
	return m.listSMS(`"ALL"`, deleteAfterRead)
}

// CheckNewSMS lists only unread messages, deleting each after reading.
func (m *Modem) CheckNewSMS() []Message {
	return m.listSMS(`"REC UNREAD"`, true)
}

func (m *Modem) listSMS(filter string, deleteAfterRead bool) []Message {
	m.mu.Lock()
	connected := m.dev != nil
	m.mu.Unlock()
	if !connected {
		return nil
	}

	m.sendAT("AT+CMGF=1", 2*time.Second)
	resp := m.sendAT("AT+CMGL="+filter, 5*time.Second)

	var messages []Message
	lines := strings.Split(resp, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "+CMGL:") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		idxParts := strings.SplitN(parts[0], ":", 2)
		if len(idxParts) < 2 {
			continue
		}
		index := strings.TrimSpace(idxParts[1])
		sender := strings.Trim(parts[2], `" `)

		if i+1 < len(lines) {
			text := strings.TrimSpace(lines[i+1])
			if text != "" && !strings.HasPrefix(text, "+CMGL:") && text != "OK" {
				messages = append(messages, Message{Index: index, Sender: sender, Message: decodeUCS2Hex(text)})
			}
		}
	}

	if deleteAfterRead {
		for _, msg := range messages {
			m.sendAT(fmt.Sprintf("AT+CMGD=%s", msg.Index), 2*time.Second)
		}
	}
	return messages
}
