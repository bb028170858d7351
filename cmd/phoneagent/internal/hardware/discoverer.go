// Package hardware provides the USB modem discoverer the CLI wires into
// pkg/telephony/modem. No library in the reference corpus binds libusb or
// an equivalent, so there is no real SIM7600 backend to construct here; see
// DESIGN.md for why that dependency isn't fabricated.
package hardware

import (
	"fmt"

	"github.com/scranst/phoneagent/pkg/telephony/modem"
)

// ErrNoBackend is returned by UnconfiguredDiscoverer.Discover. It names what
// a real deployment needs to supply (a modem.Discoverer backed by a CGO
// libusb binding such as google/gousb) rather than silently no-opping.
var ErrNoBackend = fmt.Errorf("phoneagent: no USB modem backend configured; " +
	"wire a modem.Discoverer backed by a libusb binding (e.g. google/gousb) " +
	"for the target platform")

// UnconfiguredDiscoverer satisfies modem.Discoverer for builds without a
// real USB stack wired in. Connect/Reconnect calls through it fail with a
// clear, actionable error instead of hanging or panicking.
type UnconfiguredDiscoverer struct{}

// Discover always fails; see ErrNoBackend.
func (UnconfiguredDiscoverer) Discover() (modem.USBDevice, int, error) {
	return nil, 0, ErrNoBackend
}
