package modem

import "encoding/json"

// CallState is the lifecycle state of the modem's current call.
type CallState int

const (
	CallIdle CallState = iota
	CallDialing
	CallRinging  // outgoing call, waiting for the far end to answer
	CallIncoming // inbound call, waiting for us to answer
	CallConnected
	CallEnded
	CallFailed
)

// String returns the lowercase wire name of the state.
func (s CallState) String() string {
	switch s {
	case CallDialing:
		return "dialing"
	case CallRinging:
		return "ringing"
	case CallIncoming:
		return "incoming"
	case CallConnected:
		return "connected"
	case CallEnded:
		return "ended"
	case CallFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalJSON implements json.Marshaler.
func (s CallState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *CallState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "dialing":
		*s = CallDialing
	case "ringing":
		*s = CallRinging
	case "incoming":
		*s = CallIncoming
	case "connected":
		*s = CallConnected
	case "ended":
		*s = CallEnded
	case "failed":
		*s = CallFailed
	default:
		*s = CallIdle
	}
	return nil
}

// IsTerminal reports whether the call has reached a state with no further
// transitions (ended or failed).
func (s CallState) IsTerminal() bool {
	return s == CallEnded || s == CallFailed
}

// Direction is whether a call was placed by us or received.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

func (d Direction) String() string {
	if d == Incoming {
		return "incoming"
	}
	return "outgoing"
}

// CallInfo describes the modem's current (or most recent) call.
type CallInfo struct {
	PhoneNumber string
	State       CallState
	Direction   Direction
	StartTime   int64 // unix millis; 0 if unset
	ConnectTime int64
	EndTime     int64
}
