package audiorouter

import (
	"encoding/binary"
	"net"

	"github.com/pion/rtp"
)

// Tap is an optional audio tee for deployments that front the modem with a
// SIP trunk rather than a USB/virtual-device call leg: it listens for RTP
// packets carrying raw L16 payload (RFC 3551 payload type 11, mono) and
// forwards decoded PCM to a callback, alongside (not instead of) the
// Router's normal capture path. G.711/Opus trunk codecs are out of scope;
// see DESIGN.md for why pion/rtp is wired here rather than dropped.
type Tap struct {
	conn     net.PacketConn
	onPacket func(samples []int16)
	buf      [1500]byte
}

// NewTap wraps an already-bound UDP connection.
func NewTap(conn net.PacketConn, onPacket func(samples []int16)) *Tap {
	return &Tap{conn: conn, onPacket: onPacket}
}

// Run reads packets until the connection is closed or an error occurs.
func (t *Tap) Run() error {
	for {
		n, _, err := t.conn.ReadFrom(t.buf[:])
		if err != nil {
			return err
		}

		pkt := rtp.Packet{}
		if err := pkt.Unmarshal(t.buf[:n]); err != nil {
			continue
		}
		t.onPacket(decodeL16(pkt.Payload))
	}
}

// Close releases the underlying connection.
func (t *Tap) Close() error {
	return t.conn.Close()
}

func decodeL16(payload []byte) []int16 {
	samples := make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.BigEndian.Uint16(payload[i*2:]))
	}
	return samples
}
