package modem

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeUSBDevice is an in-memory USBDevice whose Read returns scripted
// responses keyed by exact command, letting tests drive the AT state
// machine without real hardware.
type fakeUSBDevice struct {
	mu        sync.Mutex
	responses map[string]string
	lastCmd   string
	claimed   bool
}

func newFakeDevice() *fakeUSBDevice {
	return &fakeUSBDevice{responses: map[string]string{}}
}

func (f *fakeUSBDevice) Claim(int) error   { f.claimed = true; return nil }
func (f *fakeUSBDevice) Release(int) error { f.claimed = false; return nil }
func (f *fakeUSBDevice) Reset() error      { return nil }
func (f *fakeUSBDevice) Close() error      { return nil }

func (f *fakeUSBDevice) Write(endpoint int, buf []byte, timeout time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCmd = strings.TrimRight(string(buf), "\r\n")
	return len(buf), nil
}

func (f *fakeUSBDevice) Read(endpoint int, buf []byte, timeout time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp, ok := f.responses[f.lastCmd]
	if !ok {
		resp = "OK"
	}
	n := copy(buf, resp)
	return n, nil
}

type fakeDiscoverer struct {
	dev       USBDevice
	productID int
}

func (d *fakeDiscoverer) Discover() (USBDevice, int, error) {
	return d.dev, d.productID, nil
}

func newTestModem() (*Modem, *fakeUSBDevice) {
	dev := newFakeDevice()
	dev.responses["AT+CPIN?"] = "+CPIN: READY\r\nOK"
	m := New(&fakeDiscoverer{dev: dev, productID: 0x9001}, nil)
	return m, dev
}

func TestConnectSetsUpModem(t *testing.T) {
	m, dev := newTestModem()
	if !m.Connect(1) {
		t.Fatal("expected Connect to succeed")
	}
	if !dev.claimed {
		t.Fatal("expected AT interface to be claimed")
	}
	m.Disconnect()
}

func TestDecodeUCS2Hex(t *testing.T) {
	got := decodeUCS2Hex("00430061006C006C")
	if got != "Call" {
		t.Fatalf("got %q, want %q", got, "Call")
	}
}

func TestDecodeUCS2HexPassthroughForPlainText(t *testing.T) {
	got := decodeUCS2Hex("hello world")
	if got != "hello world" {
		t.Fatalf("got %q, want passthrough", got)
	}
}

func TestParseCLCCActive(t *testing.T) {
	stat, fields, ok := parseCLCC("+CLCC: 1,0,0,0,0,\"+15551234567\",145\r\n\r\nOK\r\n")
	if !ok {
		t.Fatal("expected CLCC to parse")
	}
	if stat != 0 {
		t.Fatalf("stat = %d, want 0", stat)
	}
	if len(fields) < 3 {
		t.Fatalf("expected at least 3 fields, got %v", fields)
	}
}

func TestParseCLCCNoCall(t *testing.T) {
	_, _, ok := parseCLCC("OK\r\n")
	if ok {
		t.Fatal("expected no CLCC match")
	}
}

func TestCleanNumber(t *testing.T) {
	got := cleanNumber("+1 (415) 555-1234")
	if got != "+14155551234" {
		t.Fatalf("got %q", got)
	}
}

func TestSecondCallActive(t *testing.T) {
	clcc := "+CLCC: 1,0,1,0,0\r\n+CLCC: 2,0,0,0,0\r\n\r\nOK\r\n"
	if !secondCallActive(clcc) {
		t.Fatal("expected second call to be detected as active")
	}
}

func TestExtractCallerID(t *testing.T) {
	got := extractCallerID(`RING\r\n+CLIP: "+14155551234",145,,,,0\r\n`)
	if got != "+14155551234" {
		t.Fatalf("got %q", got)
	}
}

func TestDialAndHangup(t *testing.T) {
	m, _ := newTestModem()
	if !m.Connect(1) {
		t.Fatal("connect failed")
	}
	defer m.Disconnect()

	var states []CallState
	m.OnStateChange(func(s CallState) { states = append(states, s) })

	if !m.Dial("4155551234") {
		t.Fatal("expected dial to succeed")
	}
	if len(states) == 0 || states[len(states)-1] != CallRinging {
		t.Fatalf("expected final state CallRinging, got %v", states)
	}

	if !m.Hangup() {
		t.Fatal("expected hangup to succeed")
	}
}
