// Package genx's error.go packages a generation's terminal outcome — how it
// ended and the usage it racked up along the way — as a single error value
// a Stream.Next() caller can range over until it sees one.
package genx

import (
	"errors"
	"fmt"
)

// ErrDone signals a Stream finished normally with no further chunks.
var ErrDone = errors.New("genx: done")

// Done builds the terminal State for a stream that finished normally.
func Done(stats Usage) *State {
	return &State{
		usage:  stats,
		status: StatusDone,
		err:    ErrDone,
	}
}

// Blocked builds the terminal State for a generation the backend refused to
// produce (safety filter, policy refusal, etc.), carrying the refusal text.
func Blocked(stats Usage, refusal string) *State {
	return &State{
		usage:  stats,
		status: StatusBlocked,
		err:    fmt.Errorf("genx: generate blocked: %s", refusal),
	}
}

// Truncated builds the terminal State for a generation cut off by a token
// or length limit before the model reached a natural stopping point.
func Truncated(stats Usage) *State {
	return &State{
		usage:  stats,
		status: StatusTruncated,
		err:    errors.New("genx: generate truncated"),
	}
}

// Error builds the terminal State for a generation that failed outright
// (transport error, backend 5xx, malformed response).
func Error(stats Usage, err error) *State {
	return &State{
		usage:  stats,
		status: StatusError,
		err:    fmt.Errorf("genx: generate error: %w", err),
	}
}

// State is a stream's terminal outcome: how it ended, plus the token usage
// accrued before it ended. Returned as the final error from Stream.Next().
type State struct {
	usage  Usage
	status Status
	err    error
}

func (ss State) Usage() Usage {
	return ss.usage
}

func (ss State) Status() Status {
	return ss.status
}

func (ss State) Unwrap() error {
	return ss.err
}

func (ss State) Error() string {
	switch ss.status {
	case StatusDone:
		return "genx: generate done"
	case StatusTruncated:
		return ss.err.Error()
	case StatusBlocked:
		return ss.err.Error()
	case StatusError:
		return ss.err.Error()
	default:
		return fmt.Sprintf("genx: unexpected stream status: %v", ss.status)
	}
}
