package modem

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SupplementaryServices reports what the network advertised support for,
// gathered via AT+CCWA?/AT+CHLD=?/AT+CTFR=? probes before attempting a
// transfer.
type SupplementaryServices struct {
	CallWaiting bool
	CallHold    string
	CTFR        bool
}

// CheckSupplementaryServices probes the network for call-waiting, hold, and
// explicit-call-transfer support.
func (m *Modem) CheckSupplementaryServices() SupplementaryServices {
	var s SupplementaryServices
	s.CallWaiting = strings.Contains(m.sendAT("AT+CCWA?", defaultATTimeout), "OK")
	s.CallHold = m.sendAT("AT+CHLD=?", defaultATTimeout)
	m.sendAT("AT+CHLD=4", defaultATTimeout) // ECT is sometimes CHLD=4
	ctfr := m.sendAT("AT+CTFR=?", defaultATTimeout)
	s.CTFR = strings.Contains(ctfr, "OK") || !strings.Contains(ctfr, "ERROR")
	m.sendAT("AT+CSSN=1,1", defaultATTimeout) // enable supplementary service notifications
	return s
}

// explicitCallTransfer tries 3GPP Explicit Call Transfer via AT+CTFR,
// falling back to an unquoted form and finally a blind ATD> transfer.
func (m *Modem) explicitCallTransfer(cleanNumber string) bool {
	if resp := m.sendAT(fmt.Sprintf("AT+CTFR=%q", cleanNumber), defaultATTimeout); strings.Contains(resp, "OK") {
		return true
	}
	if resp := m.sendAT("AT+CTFR="+cleanNumber, defaultATTimeout); strings.Contains(resp, "OK") {
		return true
	}
	resp := m.sendAT("ATD>"+cleanNumber+";", 3*time.Second)
	return strings.Contains(resp, "OK")
}

// TransferTo transfers the active call to phoneNumber. It tries Explicit
// Call Transfer first (cleanest), then falls back to dialing the target
// directly and merging with AT+CHLD=3 (3-way conference), matching carriers
// that support 3-way calling but not call waiting / ECT.
func (m *Modem) TransferTo(phoneNumber string) bool {
	clean := cleanNumber(phoneNumber)
	m.logger.Info("initiating transfer", "number", clean)

	m.CheckSupplementaryServices()
	m.sendAT("AT+CCWA=1", defaultATTimeout)
	m.sendAT("AT+CSSN=1,1", defaultATTimeout)
	time.Sleep(200 * time.Millisecond)

	if m.explicitCallTransfer(clean) {
		m.logger.Info("ECT successful")
		return true
	}
	m.logger.Info("ECT not supported, trying 3-way calling")

	resp := m.sendAT("ATD"+clean+";", 5*time.Second)
	if !strings.Contains(resp, "OK") {
		m.logger.Error("transfer failed: could not dial target", "number", clean)
		m.ResumeCall()
		return false
	}

	answered := false
	for i := 0; i < 60; i++ {
		time.Sleep(500 * time.Millisecond)
		clcc := m.sendAT("AT+CLCC", defaultATTimeout)
		if strings.Count(clcc, "+CLCC:") >= 2 && secondCallActive(clcc) {
			answered = true
			break
		}
	}
	if !answered {
		m.logger.Error("transfer failed: target did not answer")
		m.ResumeCall()
		return false
	}

	m.logger.Info("transfer target answered")
	time.Sleep(2 * time.Second)

	merge := m.sendAT("AT+CHLD=3", 5*time.Second)
	if strings.Contains(merge, "+CME ERROR") || strings.Contains(merge, "ERROR") || strings.Contains(merge, "VOICE CALL: END") {
		m.logger.Error("merge failed", "response", merge)
		return false
	}

	m.logger.Info("3-way conference initiated, transfer complete")
	return true
}

func secondCallActive(clcc string) bool {
	chunks := strings.Split(clcc, "+CLCC:")
	for _, c := range chunks[1:] {
		fields := strings.Split(c, ",")
		if len(fields) < 3 {
			continue
		}
		if stat, err := strconv.Atoi(strings.TrimSpace(fields[2])); err == nil && stat == 0 {
			return true
		}
	}
	return false
}

// ConferenceCalls merges a held call with the active call (manual 3-way),
// trying the CHLD variants carriers commonly implement.
func (m *Modem) ConferenceCalls() bool {
	for _, cmd := range []string{"AT+CHLD=3", "AT+CHLD=3,0", "AT+CHLD=4"} {
		resp := m.sendAT(cmd, defaultATTimeout)
		if strings.Contains(resp, "OK") && !strings.Contains(resp, "END") {
			return true
		}
		if strings.Contains(resp, "END") {
			return false
		}
	}
	return false
}
