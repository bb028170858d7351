package modem

import (
	"bytes"
	"errors"
	"log/slog"
	"time"
)

const (
	atReadChunkSize  = 512
	atReadAttempts   = 20
	atReadTimeout    = 200 * time.Millisecond
	atWriteSettle    = 100 * time.Millisecond
	defaultATTimeout = 2 * time.Second
)

// sendAT writes cmd (appending CRLF) to the AT endpoint and accumulates
// reads until "OK" or "ERROR" appears in the response or atReadAttempts is
// exhausted, mirroring the teacher source's polling read loop.
func (m *Modem) sendAT(cmd string, timeout time.Duration) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendATLocked(cmd, timeout)
}

func (m *Modem) sendATLocked(cmd string, timeout time.Duration) string {
	if m.dev == nil {
		return "ERROR: not connected"
	}

	if _, err := m.dev.Write(m.endpoints.ATEndpointOut, []byte(cmd+"\r\n"), timeout); err != nil {
		m.logger.Error("at command write failed", "cmd", cmd, "err", err)
		m.handleTransportError(err)
		return "ERROR: " + err.Error()
	}
	time.Sleep(atWriteSettle)

	var response bytes.Buffer
	buf := make([]byte, atReadChunkSize)
	for i := 0; i < atReadAttempts; i++ {
		n, err := m.dev.Read(m.endpoints.ATEndpointIn, buf, atReadTimeout)
		if err != nil {
			break
		}
		response.Write(buf[:n])
		if bytes.Contains(response.Bytes(), []byte("OK")) || bytes.Contains(response.Bytes(), []byte("ERROR")) {
			break
		}
	}

	m.lastSuccessfulAT = time.Now()
	return response.String()
}

func (m *Modem) handleTransportError(err error) {
	if errors.Is(err, errDeviceGone) {
		m.dev = nil
		go m.Reconnect()
	}
}

var errDeviceGone = errors.New("modem: device disconnected")

func nopLogger() *slog.Logger {
	return slog.Default()
}
