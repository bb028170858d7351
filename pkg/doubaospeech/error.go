package doubaospeech

import "fmt"

// Error is a streaming ASR/TTS session error reported inline on a session's
// error channel (code/message come straight off the service's binary error
// frame, not an HTTP response body).
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("doubaospeech: %s (code=%d)", e.Message, e.Code)
}
