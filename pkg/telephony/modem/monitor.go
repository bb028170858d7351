package modem

import (
	"strconv"
	"strings"
	"time"
)

// monitorLoop polls AT+CLCC for call-state transitions and watches for
// unsolicited RING/+CLIP/+CMTI lines, matching the teacher's background
// thread. It pauses while an SMS send is in flight (sendSMSLocked sets
// smsInProgress) to avoid contending with that command's own AT exchange.
func (m *Modem) monitorLoop() {
	defer func() {
		m.mu.Lock()
		done := m.monitorDone
		m.mu.Unlock()
		if done != nil {
			close(done)
		}
	}()

	for {
		m.mu.Lock()
		running := m.running
		paused := m.smsInProgress
		m.mu.Unlock()
		if !running {
			return
		}
		if paused {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		resp := m.sendAT("AT+CLCC", defaultATTimeout)
		m.processCLCC(resp)
		m.processCMTI(resp)

		time.Sleep(500 * time.Millisecond)
	}
}

func (m *Modem) processCLCC(resp string) {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current != nil {
		if stat, fields, ok := parseCLCC(resp); ok {
			switch stat {
			case 0: // active
				if current.State != CallConnected {
					m.mu.Lock()
					current.ConnectTime = time.Now().UnixMilli()
					m.mu.Unlock()
					m.logger.Info("call answered (CLCC stat=0)")
					m.notifyState(CallConnected)
				}
			case 3: // alerting
				if current.State != CallRinging {
					m.notifyState(CallRinging)
				}
			case 4: // incoming
				m.notifyState(CallIncoming)
			}
			_ = fields
		} else if current.State == CallConnected {
			m.mu.Lock()
			current.EndTime = time.Now().UnixMilli()
			m.mu.Unlock()
			m.notifyState(CallEnded)
		}
		return
	}

	if strings.Contains(resp, "RING") || strings.Contains(resp, "+CLIP:") {
		number := extractCallerID(resp)
		m.mu.Lock()
		m.current = &CallInfo{PhoneNumber: number, State: CallIncoming, Direction: Incoming, StartTime: time.Now().UnixMilli()}
		m.mu.Unlock()
		m.notifyState(CallIncoming)
		m.logger.Info("incoming call", "number", number)
	}
}

// parseCLCC extracts (stat, fields, ok) from a +CLCC response line of the
// form "+CLCC: id,dir,stat,mode,mpty[,number,type]".
func parseCLCC(resp string) (int, []string, bool) {
	idx := strings.Index(resp, "+CLCC:")
	if idx < 0 {
		return 0, nil, false
	}
	line := resp[idx+len("+CLCC:"):]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return 0, nil, false
	}
	stat, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return 0, nil, false
	}
	return stat, fields, true
}

func extractCallerID(resp string) string {
	if !strings.Contains(resp, "+CLIP:") {
		return "Unknown"
	}
	parts := strings.SplitN(resp, "\"", 3)
	if len(parts) >= 2 {
		return parts[1]
	}
	return "Unknown"
}

func (m *Modem) processCMTI(resp string) {
	idx := strings.Index(resp, "+CMTI:")
	if idx < 0 {
		return
	}
	line := resp[idx+len("+CMTI:"):]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return
	}
	index := strings.TrimSpace(fields[1])
	m.logger.Info("new SMS notification", "index", index)
	m.readSMSByIndex(index)
}
