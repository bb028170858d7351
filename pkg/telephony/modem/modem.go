// Package modem drives a SIM7600G-H USB modem over its AT command
// interface: connection lifecycle, call state tracking, DTMF, call transfer,
// and SMS send/receive. Grounded on SPEC_FULL.md §4.5 and (distilled from)
// the original sim7600_modem.py controller.
package modem

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scranst/phoneagent/pkg/telephony/tone"
)

// StateCallback is notified on every call state transition.
type StateCallback func(CallState)

// SMSCallback is notified when an SMS arrives, with the decoded sender and
// message text.
type SMSCallback func(sender, message string)

// Modem is a connected (or disconnected, pending reconnect) SIM7600
// controller. Zero value is not usable; construct with New.
type Modem struct {
	discoverer Discoverer
	logger     *slog.Logger

	mu        sync.Mutex
	dev       USBDevice
	productID int
	endpoints endpointMap

	current *CallInfo

	stateCallbacks []StateCallback
	smsCallbacks   []SMSCallback

	lastSuccessfulAT time.Time

	running        bool
	monitorDone    chan struct{}
	smsInProgress  bool
	reconnecting   bool
	reconnectMu    sync.Mutex

	ringback     *tone.RingbackDetector
	answeredHint chan struct{}
}

// New constructs a Modem bound to the given USB discovery strategy.
func New(discoverer Discoverer, logger *slog.Logger) *Modem {
	if logger == nil {
		logger = nopLogger()
	}
	return &Modem{discoverer: discoverer, logger: logger}
}

// OnStateChange registers a callback for call state transitions.
func (m *Modem) OnStateChange(cb StateCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateCallbacks = append(m.stateCallbacks, cb)
}

// OnSMS registers a callback for incoming SMS.
func (m *Modem) OnSMS(cb SMSCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smsCallbacks = append(m.smsCallbacks, cb)
}

// Connect discovers and claims the modem, verifies SIM readiness, enables
// SMS notifications, and starts the background call/SMS monitor. It retries
// discovery+claim up to retries times.
func (m *Modem) Connect(retries int) bool {
	for attempt := 0; attempt < retries; attempt++ {
		dev, productID, err := m.discoverer.Discover()
		if err != nil {
			m.logger.Debug("modem not found", "attempt", attempt+1, "err", err)
			if attempt < retries-1 {
				time.Sleep(time.Second)
				continue
			}
			m.logger.Error("SIM7600 modem not found")
			return false
		}

		m.mu.Lock()
		m.dev = dev
		m.productID = productID
		m.endpoints = endpointsFor(productID)
		m.mu.Unlock()

		if m.doConnect() {
			return true
		}

		dev.Close()
		m.mu.Lock()
		m.dev = nil
		m.mu.Unlock()
		if attempt < retries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	return false
}

func (m *Modem) doConnect() bool {
	m.mu.Lock()
	dev := m.dev
	ep := m.endpoints
	m.mu.Unlock()

	if dev == nil {
		return false
	}
	if err := dev.Reset(); err != nil {
		m.logger.Debug("usb reset skipped", "err", err)
	}
	time.Sleep(500 * time.Millisecond)

	if err := dev.Claim(ep.ATInterface); err != nil {
		m.logger.Error("failed to claim AT interface", "err", err)
		return false
	}
	m.logger.Info("connected to SIM7600 modem", "interface", ep.ATInterface, "product_id", m.productID)

	simReady := false
	for attempt := 0; attempt < 3; attempt++ {
		time.Sleep(500 * time.Millisecond)
		resp := m.sendAT("AT+CPIN?", 3*time.Second)
		if strings.Contains(resp, "READY") {
			simReady = true
			break
		}
		if strings.Contains(resp, "ERROR") {
			m.logger.Error("SIM error", "response", resp)
			break
		}
	}
	if !simReady {
		if resp := m.sendAT("AT", defaultATTimeout); strings.Contains(resp, "OK") {
			m.logger.Warn("SIM status unclear but modem responds, continuing")
			simReady = true
		} else {
			m.logger.Error("SIM not ready after retries")
			return false
		}
	}

	m.logger.Info("signal", "response", m.sendAT("AT+CSQ", defaultATTimeout))

	// +CNMI mode 2,1: buffer URCs during AT commands, emit +CMTI for new SMS.
	m.sendAT("AT+CNMI=2,1,0,0,0", defaultATTimeout)
	m.sendAT("AT+CMGF=1", defaultATTimeout) // SMS text mode

	m.mu.Lock()
	m.running = true
	m.monitorDone = make(chan struct{})
	m.mu.Unlock()
	go m.monitorLoop()

	return true
}

// IsConnected reports whether the modem answered an AT probe within the
// last 30 seconds, or performs a fresh probe otherwise.
func (m *Modem) IsConnected() bool {
	m.mu.Lock()
	dev := m.dev
	fresh := !m.lastSuccessfulAT.IsZero() && time.Since(m.lastSuccessfulAT) < 30*time.Second
	m.mu.Unlock()

	if dev == nil {
		return false
	}
	if fresh {
		return true
	}
	resp := m.sendAT("AT", time.Second)
	return strings.Contains(resp, "OK")
}

// Reconnect tears down and re-establishes the USB connection, guarded so
// only one reconnect attempt runs at a time.
func (m *Modem) Reconnect() bool {
	if !m.reconnectMu.TryLock() {
		m.logger.Debug("reconnection already in progress")
		return false
	}
	defer m.reconnectMu.Unlock()

	m.logger.Warn("modem disconnected, attempting to reconnect")

	m.mu.Lock()
	m.running = false
	done := m.monitorDone
	dev := m.dev
	ep := m.endpoints
	m.dev = nil
	m.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}
	if dev != nil {
		dev.Release(ep.ATInterface)
		dev.Close()
	}
	time.Sleep(2 * time.Second)

	for attempt := 0; attempt < 5; attempt++ {
		m.logger.Info("reconnection attempt", "attempt", attempt+1)
		if m.Connect(1) {
			m.logger.Info("modem reconnected successfully")
			return true
		}
		time.Sleep(2 * time.Second)
	}
	m.logger.Error("failed to reconnect to modem after 5 attempts")
	return false
}

// Disconnect hangs up any active call, releases the interface, and stops
// the monitor loop.
func (m *Modem) Disconnect() {
	m.mu.Lock()
	m.running = false
	done := m.monitorDone
	dev := m.dev
	ep := m.endpoints
	m.current = nil
	m.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	}

	if dev != nil {
		m.sendAT("AT+CHUP", time.Second)
		dev.Release(ep.ATInterface)
		dev.Reset()
		dev.Close()
	}

	m.mu.Lock()
	m.dev = nil
	m.mu.Unlock()
	time.Sleep(1500 * time.Millisecond)
	m.logger.Info("disconnected from modem")
}

func (m *Modem) notifyState(s CallState) {
	m.mu.Lock()
	if m.current != nil {
		m.current.State = s
	}
	callbacks := append([]StateCallback(nil), m.stateCallbacks...)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(s)
	}
}

// GetSignalStrength returns the AT+CSQ signal value (0-31, or 99 unknown).
func (m *Modem) GetSignalStrength() int {
	resp := m.sendAT("AT+CSQ", defaultATTimeout)
	idx := strings.Index(resp, "+CSQ:")
	if idx < 0 {
		return 0
	}
	part := strings.TrimSpace(resp[idx+len("+CSQ:"):])
	fields := strings.Split(part, ",")
	n, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0
	}
	return n
}

// GetCallInfo returns the current (or most recent) call, or nil.
func (m *Modem) GetCallInfo() *CallInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// AnsweredHint returns a channel that receives a value when the ringback
// detector believes an outgoing call was answered, ahead of the
// authoritative CLCC-polled state transition. Advisory only: callers should
// keep waiting on CallInfo.State for the real transition and use this only
// to act sooner (e.g. poll faster, log) on a best-effort basis.
func (m *Modem) AnsweredHint() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.answeredHint == nil {
		m.answeredHint = make(chan struct{}, 1)
	}
	return m.answeredHint
}

// FeedCallAudio runs one chunk of call audio through the ringback detector,
// signaling AnsweredHint's channel the first time it looks like ringback
// stopped and voice began. It does not check the call state; Dial resets the
// detector for each new call. Nothing is signaled if no one has ever called
// AnsweredHint.
func (m *Modem) FeedCallAudio(samples []int16, sampleRate int) {
	m.mu.Lock()
	if m.ringback == nil {
		m.ringback = tone.NewRingbackDetector(sampleRate)
	}
	hint := m.answeredHint
	answered := m.ringback.Process(samples)
	m.mu.Unlock()

	if answered && hint != nil {
		select {
		case hint <- struct{}{}:
		default:
		}
	}
}

// IsRinging reports whether there is a currently-incoming, unanswered call.
func (m *Modem) IsRinging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.State == CallIncoming
}

func cleanNumber(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' || c == '+' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Dial initiates an outgoing voice call, configuring the modem's audio
// routing/volume/echo-suppression before dialing, per SPEC_FULL.md §4.5.
func (m *Modem) Dial(phoneNumber string) bool {
	clean := cleanNumber(phoneNumber)
	m.logger.Info("dialing", "number", clean)

	m.mu.Lock()
	m.current = &CallInfo{PhoneNumber: clean, State: CallDialing, Direction: Outgoing, StartTime: time.Now().UnixMilli()}
	m.ringback = nil
	if m.answeredHint != nil {
		m.answeredHint = make(chan struct{}, 1)
	}
	m.mu.Unlock()
	m.notifyState(CallDialing)

	m.sendAT("AT+CSDVC=1", defaultATTimeout) // route audio to headset path
	m.sendAT("AT+CLVL=1", defaultATTimeout)  // conservative volume, avoid clipping
	m.sendAT("AT+CECM=1", defaultATTimeout)  // echo suppression
	m.sendAT("AT^PWRCTL=0,1,3", defaultATTimeout)

	resp := m.sendAT("ATD"+clean+";", 5*time.Second)
	if strings.Contains(resp, "OK") {
		m.notifyState(CallRinging)
		return true
	}
	m.logger.Error("dial failed", "response", resp)
	m.notifyState(CallFailed)
	return false
}

// Answer accepts an incoming call.
func (m *Modem) Answer() bool {
	m.sendAT("AT+CSDVC=1", defaultATTimeout)
	m.sendAT("AT+CLVL=1", defaultATTimeout)
	m.sendAT("AT+CECM=1", defaultATTimeout)

	resp := m.sendAT("ATA", defaultATTimeout)
	if !strings.Contains(resp, "OK") {
		return false
	}
	m.mu.Lock()
	if m.current != nil {
		m.current.ConnectTime = time.Now().UnixMilli()
	}
	m.mu.Unlock()
	m.notifyState(CallConnected)
	return true
}

// RejectCall declines an incoming call.
func (m *Modem) RejectCall() bool {
	resp := m.sendAT("AT+CHUP", defaultATTimeout)
	m.mu.Lock()
	if m.current != nil {
		m.current.EndTime = time.Now().UnixMilli()
		m.current.State = CallEnded
	}
	m.mu.Unlock()
	return strings.Contains(resp, "OK")
}

// Hangup ends the current call.
func (m *Modem) Hangup() bool {
	resp := m.sendAT("AT+CHUP", defaultATTimeout)
	m.mu.Lock()
	if m.current != nil {
		m.current.EndTime = time.Now().UnixMilli()
	}
	m.mu.Unlock()
	m.notifyState(CallEnded)
	return strings.Contains(resp, "OK")
}

// SendDTMF transmits one DTMF digit on the active call.
func (m *Modem) SendDTMF(digit string) {
	m.sendAT("AT+VTS="+digit, defaultATTimeout)
}

// HoldCall places the active call on hold, trying both CHLD variants the
// teacher source tries.
func (m *Modem) HoldCall() bool {
	if strings.Contains(m.sendAT("AT+CHLD=2", defaultATTimeout), "OK") {
		return true
	}
	return strings.Contains(m.sendAT("AT+CHLD=2,0", defaultATTimeout), "OK")
}

// ResumeCall resumes a held call.
func (m *Modem) ResumeCall() bool {
	return strings.Contains(m.sendAT("AT+CHLD=2", defaultATTimeout), "OK")
}

// WaitForIncomingCall blocks (honoring ctx cancellation) until an incoming
// call is detected via the monitor loop, returning its caller ID.
func (m *Modem) WaitForIncomingCall(ctx context.Context) (string, bool) {
	m.sendAT("AT+CLIP=1", defaultATTimeout) // enable caller ID
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-ticker.C:
			m.mu.Lock()
			info := m.current
			m.mu.Unlock()
			if info != nil && info.State == CallIncoming {
				return info.PhoneNumber, true
			}
		}
	}
}
